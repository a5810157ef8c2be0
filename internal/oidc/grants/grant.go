// Package grants implements the authorization code, implicit and refresh
// token grants.
//
// Grants consume the result bag of the rules manager, issue protocol
// artifacts through the repositories and produce either a redirect or a token
// response. Identifier collisions reported by the repositories are retried a
// bounded number of times; every other failure is returned as an
// *oautherr.Error or, for misconfiguration, a coded domain error.
package grants

import (
	"context"
	"errors"
	"time"

	"oidcop/internal/oidc/claims"
	"oidcop/internal/oidc/idtoken"
	"oidcop/internal/oidc/metrics"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/pkce"
	"oidcop/internal/oidc/ports"
	"oidcop/internal/oidc/rules"
	dErrors "oidcop/pkg/domain-errors"
	"oidcop/pkg/platform/secretbox"

	"go.uber.org/zap"
)

// AuthorizationGrant answers the authorization endpoint.
type AuthorizationGrant interface {
	ResponseTypes() []string
	ValidateAuthorizationRequest(ctx context.Context, req *rules.Request) (models.AuthorizationRequest, error)
	CompleteAuthorizationRequest(ctx context.Context, ar models.AuthorizationRequest) (*RedirectResponse, error)
}

// TokenGrant answers the token endpoint for one grant_type.
type TokenGrant interface {
	Identifier() models.GrantType
	RespondToAccessTokenRequest(ctx context.Context, req *rules.Request) (*TokenResponse, error)
}

// RedirectResponse sends the user agent back to the client.
type RedirectResponse struct {
	URL string
}

// TokenResponse is the token endpoint JSON body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

type Config struct {
	AuthCodeTTL                 time.Duration
	AccessTokenTTL              time.Duration
	RefreshTokenTTL             time.Duration
	MaxIdentifierAttempts       int
	DefaultScope                string
	ScopeDelimiter              string
	RequirePKCEForPublicClients bool
	AlwaysIssueRefreshToken     bool
	AlwaysAddClaimsToIDToken    bool
}

func DefaultConfig() Config {
	return Config{
		AuthCodeTTL:                 10 * time.Minute,
		AccessTokenTTL:              time.Hour,
		RefreshTokenTTL:             30 * 24 * time.Hour,
		MaxIdentifierAttempts:       10,
		ScopeDelimiter:              " ",
		RequirePKCEForPublicClients: true,
	}
}

// AccessTokenSigner renders an access token as a bearer string.
type AccessTokenSigner interface {
	GenerateAccessToken(tokenID, clientID, userID string, scopes []string, expiresAt time.Time) (string, error)
}

// Dependencies are shared by all grants. Audit, Metrics and Logger are optional.
type Dependencies struct {
	Clients           ports.ClientRepository
	Scopes            ports.ScopeRepository
	AuthCodes         ports.AuthCodeRepository
	AccessTokens      ports.AccessTokenRepository
	RefreshTokens     ports.RefreshTokenRepository
	Users             ports.UserRepository
	Rules             *rules.Manager
	Box               secretbox.Box
	AccessTokenSigner AccessTokenSigner
	IDTokens          *idtoken.Builder
	Claims            *claims.TranslatorExtractor
	Verifiers         *pkce.Registry
	Audit             ports.AuditPublisher
	Metrics           *metrics.Metrics
	Logger            *zap.Logger
	Now               func() time.Time
	// NewIdentifier overrides identifier generation.
	NewIdentifier func() (string, error)
}

func (d Dependencies) validate() error {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check("Clients", d.Clients != nil)
	check("Scopes", d.Scopes != nil)
	check("AuthCodes", d.AuthCodes != nil)
	check("AccessTokens", d.AccessTokens != nil)
	check("RefreshTokens", d.RefreshTokens != nil)
	check("Users", d.Users != nil)
	check("Rules", d.Rules != nil)
	check("Box", d.Box != nil)
	check("AccessTokenSigner", d.AccessTokenSigner != nil)
	check("IDTokens", d.IDTokens != nil)
	check("Claims", d.Claims != nil)
	if len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "grant dependencies missing: %v", missing)
	}
	return nil
}

var errNoUser = errors.New("authorization request has no authenticated user")
