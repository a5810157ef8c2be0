// Package rules validates authorization requests through an ordered chain of
// independent rules.
//
// Each rule reads request parameters and the results of earlier rules, and
// either produces a Result or fails with an *oautherr.Error. The Manager runs a
// caller-supplied list of rule keys in order and checks, before running
// anything, that every declared dependency is satisfied by an earlier rule.
package rules

import (
	"context"
	"net/http"

	"oidcop/internal/oidc/oautherr"
)

const (
	KeyState               Key = "state"
	KeyClientID            Key = "client_id"
	KeyRedirectURI         Key = "redirect_uri"
	KeyResponseType        Key = "response_type"
	KeyRequestParameter    Key = "request_parameter"
	KeyIDTokenHint         Key = "id_token_hint"
	KeyPrompt              Key = "prompt"
	KeyMaxAge              Key = "max_age"
	KeyScope               Key = "scope"
	KeyRequiredOpenIDScope Key = "required_openid_scope"
	KeyCodeChallengeMethod Key = "code_challenge_method"
	KeyCodeChallenge       Key = "code_challenge"
	KeyRequestedClaims     Key = "requested_claims"
	KeyAddClaimsToIDToken  Key = "add_claims_to_id_token"
	KeyRequiredNonce       Key = "required_nonce"
	KeyScopeOfflineAccess  Key = "scope_offline_access"
	KeyUILocales           Key = "ui_locales"
	KeyACRValues           Key = "acr_values"
)

// Rule is one validation step.
type Rule interface {
	Key() Key
	// Dependencies lists the results the rule reads with GetOrFail.
	Dependencies() []Key
	// CheckRule returns nil when there is nothing to record.
	CheckRule(ctx context.Context, req *Request, bag *ResultBag, data Data) (*Result, error)
}

// Data is the ambient configuration a chain runs with.
type Data struct {
	DefaultScope   string
	ScopeDelimiter string
	AllowedMethods []string
	// UseFragment sends redirect-carried errors in the fragment.
	UseFragment   bool
	ResponseTypes []string

	AlwaysIssueRefreshToken  bool
	AlwaysAddClaimsToIDToken bool
}

// DefaultData returns the authorization endpoint defaults.
func DefaultData() Data {
	return Data{
		ScopeDelimiter: " ",
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}
}

// Canonical chains per entry point. Each satisfies the declared dependencies
// of its rules; PKCERuleKeys runs after a code chain with its results
// predefined.
var (
	AuthorizationCodeRuleKeys = []Key{
		KeyState,
		KeyClientID,
		KeyRedirectURI,
		KeyResponseType,
		KeyRequestParameter,
		KeyIDTokenHint,
		KeyPrompt,
		KeyMaxAge,
		KeyScope,
		KeyRequiredOpenIDScope,
		KeyRequestedClaims,
		KeyAddClaimsToIDToken,
		KeyScopeOfflineAccess,
		KeyACRValues,
		KeyUILocales,
	}

	ImplicitRuleKeys = []Key{
		KeyState,
		KeyClientID,
		KeyRedirectURI,
		KeyResponseType,
		KeyRequestParameter,
		KeyIDTokenHint,
		KeyPrompt,
		KeyMaxAge,
		KeyScope,
		KeyRequiredOpenIDScope,
		KeyRequiredNonce,
		KeyRequestedClaims,
		KeyAddClaimsToIDToken,
		KeyACRValues,
		KeyUILocales,
	}

	PKCERuleKeys = []Key{
		KeyCodeChallenge,
		KeyCodeChallengeMethod,
	}
)

type base struct{}

func (base) Dependencies() []Key { return nil }

// redirectable attaches the already validated redirect URI and state to e.
// Before redirect_uri has run the error is returned as is and is rendered to
// the user agent instead of the client.
func redirectable(e *oautherr.Error, bag *ResultBag, data Data) *oautherr.Error {
	uri, ok := OptionalValueOf[string](bag, KeyRedirectURI)
	if !ok || uri == "" {
		return e
	}
	state, _ := OptionalValueOf[string](bag, KeyState)
	return e.WithRedirect(uri, state, data.UseFragment)
}
