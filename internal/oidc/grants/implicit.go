package grants

import (
	"context"
	"net/url"
	"strconv"

	"oidcop/internal/oidc/idtoken"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/oidc/rules"
	dErrors "oidcop/pkg/domain-errors"
	"oidcop/pkg/platform/audit"
)

// ImplicitGrant returns ID tokens, and optionally an access token, directly
// from the authorization endpoint. Every response travels in the fragment.
type ImplicitGrant struct {
	*issuer
}

func NewImplicitGrant(cfg Config, deps Dependencies) (*ImplicitGrant, error) {
	i, err := newIssuer(cfg, deps)
	if err != nil {
		return nil, err
	}
	return &ImplicitGrant{issuer: i}, nil
}

func (g *ImplicitGrant) ResponseTypes() []string {
	return []string{models.ResponseTypeIDTokenToken, models.ResponseTypeIDToken}
}

func (g *ImplicitGrant) ValidateAuthorizationRequest(ctx context.Context, req *rules.Request) (models.AuthorizationRequest, error) {
	ctx, span := g.tracer.Start(ctx, "grants.Implicit.Validate")
	defer span.End()

	bag, err := g.deps.Rules.Check(ctx, req, rules.ImplicitRuleKeys, g.ruleData(true, g.ResponseTypes()...))
	if err != nil {
		return models.AuthorizationRequest{}, err
	}
	ar, err := authorizationRequestFromBag(bag, models.GrantImplicit)
	if err != nil {
		return models.AuthorizationRequest{}, err
	}
	ar.Nonce, err = rules.ValueOf[string](bag, rules.KeyRequiredNonce)
	if err != nil {
		return models.AuthorizationRequest{}, err
	}
	return ar.Validated(), nil
}

func (g *ImplicitGrant) CompleteAuthorizationRequest(ctx context.Context, ar models.AuthorizationRequest) (*RedirectResponse, error) {
	ctx, span := g.tracer.Start(ctx, "grants.Implicit.Complete")
	defer span.End()

	if ar.User == nil {
		return nil, dErrors.Wrap(errNoUser, dErrors.CodeInvariantViolation, "complete authorization request")
	}

	params := url.Values{}
	if ar.State != "" {
		params.Set("state", ar.State)
	}
	if !ar.IsApproved() {
		g.emit(ctx, audit.EventAuthorizationDenied, ar.Client.ID, ar.User.ID, "", "user denied")
		return g.redirect(ar, params)
	}

	scopes, err := g.deps.Scopes.FinalizeScopes(ctx, ar.Scopes, models.GrantImplicit, ar.Client, ar.User.ID)
	if err != nil {
		return nil, oautherr.ServerError("Could not finalize scopes").WithCause(err).WithRedirect(ar.RedirectURI, ar.State, true)
	}
	scopeIDs := models.ScopeIdentifiers(scopes)

	idParams := idtoken.Params{
		ClientID: ar.Client.ID,
		Subject:  ar.User.ID,
		Nonce:    ar.Nonce,
		ACR:      ar.ACR,
		AuthTime: ar.AuthTime,
	}

	if ar.ResponseType == models.ResponseTypeIDTokenToken {
		accessToken, bearer, err := g.issueAccessToken(ctx, ar.Client.ID, ar.User.ID, scopeIDs, "", ar.Claims)
		if err != nil {
			return nil, withRedirect(err, ar, true)
		}
		params.Set("access_token", bearer)
		params.Set("token_type", models.TokenTypeBearer)
		params.Set("expires_in", strconv.FormatInt(g.expiresIn(), 10))
		idParams.AccessToken = bearer
		g.deps.Metrics.IncTokenIssued(artifactAccessToken, string(models.GrantImplicit))
		g.emit(ctx, audit.EventTokenIssued, ar.Client.ID, ar.User.ID, accessToken.ID, "")
	}

	idParams.Claims, err = g.userClaims(ctx, ar.User.ID, scopeIDs, ar.AddClaimsToIDToken, ar.Claims)
	if err != nil {
		return nil, withRedirect(err, ar, true)
	}
	idToken, err := g.buildIDToken(ctx, idParams, models.GrantImplicit)
	if err != nil {
		return nil, withRedirect(err, ar, true)
	}
	params.Set("id_token", idToken)
	return g.redirect(ar, params)
}

func (g *ImplicitGrant) redirect(ar models.AuthorizationRequest, params url.Values) (*RedirectResponse, error) {
	target, err := oautherr.AppendParams(ar.RedirectURI, params, true)
	if err != nil {
		return nil, oautherr.ServerError("Invalid redirect URI").WithCause(err)
	}
	return &RedirectResponse{URL: target}, nil
}
