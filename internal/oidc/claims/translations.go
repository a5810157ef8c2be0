package claims

import "oidcop/internal/oidc/models"

// Type is the JSON type a translated claim is released as.
type Type string

const (
	TypeString Type = ""
	TypeInt    Type = "int"
	TypeBool   Type = "bool"
	// TypeJSON claims are objects built from nested translations.
	TypeJSON Type = "json"
)

// Translation maps one claim to the source attributes it is read from. The
// first attribute present on the subject wins.
type Translation struct {
	Type       Type                   `yaml:"type"`
	Attributes []string               `yaml:"attributes"`
	Claims     map[string]Translation `yaml:"claims"`
}

// RegisteredClaims are JWT and ID token claims that are always releasable.
var RegisteredClaims = []string{
	"iss", "sub", "aud", "exp", "iat", "auth_time", "nonce", "acr", "amr", "azp", "at_hash", "c_hash",
}

func attrs(names ...string) Translation { return Translation{Attributes: names} }

// DefaultTranslations maps the standard OpenID Connect claims to LDAP and
// SAML attribute names.
func DefaultTranslations() map[string]Translation {
	return map[string]Translation{
		"sub":                   attrs("eduPersonPrincipalName", "eduPersonTargetedID", "eduPersonUniqueId"),
		"name":                  attrs("cn", "displayName"),
		"family_name":           attrs("sn"),
		"given_name":            attrs("givenName"),
		"middle_name":           attrs(),
		"nickname":              attrs("eduPersonNickname"),
		"preferred_username":    attrs("uid"),
		"profile":               attrs("labeledURI", "description"),
		"picture":               attrs("jpegPhoto"),
		"website":               attrs("url"),
		"gender":                attrs(),
		"birthdate":             attrs(),
		"zoneinfo":              attrs(),
		"locale":                attrs("preferredLanguage"),
		"updated_at":            {Type: TypeInt},
		"email":                 attrs("mail"),
		"email_verified":        {Type: TypeBool},
		"phone_number":          attrs("mobile", "telephoneNumber", "homePhone"),
		"phone_number_verified": {Type: TypeBool},
		"address": {
			Type: TypeJSON,
			Claims: map[string]Translation{
				"formatted":      attrs("postalAddress"),
				"street_address": attrs("street"),
				"locality":       attrs(),
				"region":         attrs(),
				"postal_code":    attrs("postalCode"),
				"country":        attrs(),
			},
		},
	}
}

// DefaultClaimSets are the claim sets of the protected scopes.
func DefaultClaimSets() []models.ClaimSet {
	return []models.ClaimSet{
		{Scope: models.ScopeOpenID, Claims: []string{"sub"}},
		{Scope: models.ScopeProfile, Claims: []string{
			"name", "family_name", "given_name", "middle_name", "nickname", "preferred_username",
			"profile", "picture", "website", "gender", "birthdate", "zoneinfo", "locale", "updated_at",
		}},
		{Scope: models.ScopeEmail, Claims: []string{"email", "email_verified"}},
		{Scope: models.ScopeAddress, Claims: []string{"address"}},
		{Scope: models.ScopePhone, Claims: []string{"phone_number", "phone_number_verified"}},
	}
}
