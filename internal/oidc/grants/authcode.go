package grants

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"time"

	"oidcop/internal/oidc/idtoken"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/oidc/pkce"
	"oidcop/internal/oidc/rules"
	"oidcop/internal/platform/logger"
	dErrors "oidcop/pkg/domain-errors"
	"oidcop/pkg/platform/audit"
	"oidcop/pkg/platform/sentinel"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AuthCodeGrant implements the authorization code flow with PKCE. The code
// handed to the client is the sealed AuthCodePayload, not the code identifier.
type AuthCodeGrant struct {
	*issuer
	verifiers *pkce.Registry
}

func NewAuthCodeGrant(cfg Config, deps Dependencies) (*AuthCodeGrant, error) {
	i, err := newIssuer(cfg, deps)
	if err != nil {
		return nil, err
	}
	verifiers := deps.Verifiers
	if verifiers == nil {
		verifiers = pkce.NewRegistry()
	}
	return &AuthCodeGrant{issuer: i, verifiers: verifiers}, nil
}

func (g *AuthCodeGrant) Identifier() models.GrantType { return models.GrantAuthorizationCode }

func (g *AuthCodeGrant) ResponseTypes() []string { return []string{models.ResponseTypeCode} }

func (g *AuthCodeGrant) ValidateAuthorizationRequest(ctx context.Context, req *rules.Request) (models.AuthorizationRequest, error) {
	ctx, span := g.tracer.Start(ctx, "grants.AuthCode.Validate")
	defer span.End()

	data := g.ruleData(false, models.ResponseTypeCode)
	bag, err := g.deps.Rules.Check(ctx, req, rules.AuthorizationCodeRuleKeys, data)
	if err != nil {
		return models.AuthorizationRequest{}, err
	}
	client, err := rules.ValueOf[*models.Client](bag, rules.KeyClientID)
	if err != nil {
		return models.AuthorizationRequest{}, err
	}

	usePKCE := req.Param("code_challenge", data.AllowedMethods) != "" ||
		(g.cfg.RequirePKCEForPublicClients && !client.IsConfidential())
	if usePKCE {
		bag, err = g.deps.Rules.Check(ctx, req, rules.PKCERuleKeys, data, bag.All()...)
		if err != nil {
			return models.AuthorizationRequest{}, err
		}
	}

	ar, err := authorizationRequestFromBag(bag, models.GrantAuthorizationCode)
	if err != nil {
		return models.AuthorizationRequest{}, err
	}
	ar.Nonce = req.Param("nonce", data.AllowedMethods)
	ar.CodeChallenge, _ = rules.OptionalValueOf[string](bag, rules.KeyCodeChallenge)
	ar.CodeChallengeMethod, _ = rules.OptionalValueOf[string](bag, rules.KeyCodeChallengeMethod)
	span.SetAttributes(attribute.String("client_id", client.ID), attribute.Bool("pkce", usePKCE))
	return ar.Validated(), nil
}

func (g *AuthCodeGrant) CompleteAuthorizationRequest(ctx context.Context, ar models.AuthorizationRequest) (*RedirectResponse, error) {
	ctx, span := g.tracer.Start(ctx, "grants.AuthCode.Complete")
	defer span.End()

	if ar.User == nil {
		return nil, dErrors.Wrap(errNoUser, dErrors.CodeInvariantViolation, "complete authorization request")
	}
	if !ar.IsApproved() {
		g.emit(ctx, audit.EventAuthorizationDenied, ar.Client.ID, ar.User.ID, "", "user denied")
		return nil, oautherr.AccessDenied("The user denied the request").WithRedirect(ar.RedirectURI, ar.State, false)
	}

	scopes, err := g.deps.Scopes.FinalizeScopes(ctx, ar.Scopes, models.GrantAuthorizationCode, ar.Client, ar.User.ID)
	if err != nil {
		return nil, oautherr.ServerError("Could not finalize scopes").WithCause(err).WithRedirect(ar.RedirectURI, ar.State, false)
	}
	scopeIDs := models.ScopeIdentifiers(scopes)

	code, err := g.issueAuthCode(ctx, ar.Client.ID, ar.User.ID, scopeIDs, ar.RedirectURI, ar.Nonce)
	if err != nil {
		return nil, withRedirect(err, ar, false)
	}

	payload := models.AuthCodePayload{
		ClientID:            ar.Client.ID,
		RedirectURI:         ar.RedirectURI,
		AuthCodeID:          code.ID,
		Scopes:              scopeIDs,
		UserID:              ar.User.ID,
		ExpireTime:          code.ExpiresAt.Unix(),
		CodeChallenge:       ar.CodeChallenge,
		CodeChallengeMethod: ar.CodeChallengeMethod,
		Nonce:               ar.Nonce,
		Claims:              ar.Claims,
		ACR:                 ar.ACR,
		OfflineAccess:       ar.OfflineAccess,
	}
	if !ar.AuthTime.IsZero() {
		payload.AuthTime = ar.AuthTime.Unix()
	}
	sealed, err := g.seal(payload)
	if err != nil {
		return nil, withRedirect(err, ar, false)
	}

	params := url.Values{"code": {sealed}}
	if ar.State != "" {
		params.Set("state", ar.State)
	}
	target, err := oautherr.AppendParams(ar.RedirectURI, params, false)
	if err != nil {
		return nil, oautherr.ServerError("Invalid redirect URI").WithCause(err)
	}

	g.deps.Metrics.IncTokenIssued(artifactAuthCode, string(models.GrantAuthorizationCode))
	g.emit(ctx, audit.EventAuthCodeIssued, ar.Client.ID, ar.User.ID, code.ID, "")
	return &RedirectResponse{URL: target}, nil
}

func (g *AuthCodeGrant) RespondToAccessTokenRequest(ctx context.Context, req *rules.Request) (*TokenResponse, error) {
	ctx, span := g.tracer.Start(ctx, "grants.AuthCode.Token")
	defer span.End()

	resp, err := g.redeem(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redemption failed")
		if oe, ok := oautherr.As(err); ok {
			g.deps.Metrics.IncRedemptionFailure(string(models.GrantAuthorizationCode), oe.Code)
		}
		return nil, err
	}
	return resp, nil
}

func (g *AuthCodeGrant) redeem(ctx context.Context, req *rules.Request) (*TokenResponse, error) {
	client, err := g.authenticateClient(ctx, req)
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("client_id", client.ID))

	encrypted := req.PostParam("code")
	if encrypted == "" {
		return nil, oautherr.InvalidRequest("code", "")
	}
	var p models.AuthCodePayload
	if err := g.open(encrypted, &p); err != nil {
		g.deps.Metrics.IncDecryptFailure(artifactAuthCode)
		return nil, oautherr.InvalidRequest("code", "Cannot decrypt the authorization code").WithCause(err)
	}
	if p.AuthCodeID == "" {
		return nil, oautherr.InvalidRequest("code", "Authorization code malformed")
	}
	now := g.now()
	if now.Unix() > p.ExpireTime {
		return nil, oautherr.InvalidGrant("Authorization code has expired")
	}

	revoked, err := g.deps.AuthCodes.IsRevoked(ctx, p.AuthCodeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, oautherr.InvalidGrant("Authorization code is unknown")
		}
		return nil, oautherr.ServerError("Authorization code lookup failed").WithCause(err)
	}
	if revoked {
		return nil, g.replayed(ctx, p)
	}
	if p.ClientID != client.ID {
		return nil, oautherr.InvalidGrant("Authorization code was not issued to this client")
	}
	if req.PostParam("redirect_uri") != p.RedirectURI {
		return nil, oautherr.InvalidGrant("Invalid redirect URI")
	}
	if err := g.verifyCodeVerifier(req.PostParam("code_verifier"), p); err != nil {
		return nil, err
	}

	accessToken, bearer, err := g.issueAccessToken(ctx, client.ID, p.UserID, p.Scopes, p.AuthCodeID, p.Claims)
	if err != nil {
		return nil, err
	}
	resp := &TokenResponse{
		AccessToken: bearer,
		TokenType:   models.TokenTypeBearer,
		ExpiresIn:   g.expiresIn(),
	}

	// The offline access decision was taken when the code was issued.
	if p.OfflineAccess {
		resp.RefreshToken, err = g.issueRefreshToken(ctx, accessToken)
		if err != nil {
			return nil, err
		}
		g.deps.Metrics.IncTokenIssued(artifactRefreshToken, string(models.GrantAuthorizationCode))
	}

	if slices.Contains(p.Scopes, models.ScopeOpenID) {
		userClaims, err := g.userClaims(ctx, p.UserID, p.Scopes, g.cfg.AlwaysAddClaimsToIDToken, p.Claims)
		if err != nil {
			return nil, err
		}
		params := idtoken.Params{
			ClientID:    client.ID,
			Subject:     p.UserID,
			Nonce:       p.Nonce,
			ACR:         p.ACR,
			AccessToken: bearer,
			Claims:      userClaims,
		}
		if p.AuthTime > 0 {
			params.AuthTime = time.Unix(p.AuthTime, 0)
		}
		resp.IDToken, err = g.buildIDToken(ctx, params, models.GrantAuthorizationCode)
		if err != nil {
			return nil, err
		}
	}

	// Single use: the code is revoked only once everything above succeeded.
	if err := g.deps.AuthCodes.Revoke(ctx, p.AuthCodeID); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, g.replayed(ctx, p)
		}
		return nil, oautherr.ServerError("Could not revoke the authorization code").WithCause(err)
	}

	g.deps.Metrics.IncTokenIssued(artifactAccessToken, string(models.GrantAuthorizationCode))
	g.emit(ctx, audit.EventTokenIssued, client.ID, p.UserID, accessToken.ID, "")
	return resp, nil
}

// replayed revokes everything issued from a code presented twice.
func (g *AuthCodeGrant) replayed(ctx context.Context, p models.AuthCodePayload) error {
	log := logger.From(ctx, g.logger)
	if err := g.deps.AccessTokens.RevokeByAuthCodeID(ctx, p.AuthCodeID); err != nil {
		log.Error("revoke access tokens of replayed code", logger.Err(err))
	}
	if err := g.deps.RefreshTokens.RevokeByAuthCodeID(ctx, p.AuthCodeID); err != nil {
		log.Error("revoke refresh tokens of replayed code", logger.Err(err))
	}
	g.emit(ctx, audit.EventAuthCodeReplayed, p.ClientID, p.UserID, p.AuthCodeID, "authorization code reused")
	return oautherr.InvalidGrant("Authorization code has been revoked")
}

func (g *AuthCodeGrant) verifyCodeVerifier(verifier string, p models.AuthCodePayload) error {
	if p.CodeChallenge == "" {
		if verifier != "" {
			return oautherr.InvalidRequest("code_verifier", "Failed to verify `code_verifier`: no code challenge was issued")
		}
		return nil
	}
	if verifier == "" {
		return oautherr.InvalidGrant("Check the `code_verifier` parameter")
	}
	if !pkce.ValidFormat(verifier) {
		return oautherr.InvalidGrant("Code verifier must follow the specifications of RFC-7636")
	}
	method := p.CodeChallengeMethod
	if method == "" {
		method = pkce.MethodPlain
	}
	v, ok := g.verifiers.Get(method)
	if !ok {
		return oautherr.ServerError("Unsupported code challenge method " + method)
	}
	if !v.Verify(verifier, p.CodeChallenge) {
		return oautherr.InvalidGrant("Failed to verify `code_verifier`")
	}
	return nil
}

func authorizationRequestFromBag(bag *rules.ResultBag, grant models.GrantType) (models.AuthorizationRequest, error) {
	client, err := rules.ValueOf[*models.Client](bag, rules.KeyClientID)
	if err != nil {
		return models.AuthorizationRequest{}, err
	}
	redirectURI, err := rules.ValueOf[string](bag, rules.KeyRedirectURI)
	if err != nil {
		return models.AuthorizationRequest{}, err
	}
	scopes, err := rules.ValueOf[[]models.Scope](bag, rules.KeyScope)
	if err != nil {
		return models.AuthorizationRequest{}, err
	}
	responseType, err := rules.ValueOf[string](bag, rules.KeyResponseType)
	if err != nil {
		return models.AuthorizationRequest{}, err
	}
	ar := models.AuthorizationRequest{
		GrantType:    grant,
		Client:       client,
		RedirectURI:  redirectURI,
		Scopes:       scopes,
		ResponseType: responseType,
	}
	ar.State, _ = rules.OptionalValueOf[string](bag, rules.KeyState)
	ar.Claims, _ = rules.OptionalValueOf[*models.ClaimsRequest](bag, rules.KeyRequestedClaims)
	ar.ACRValues, _ = rules.OptionalValueOf[*models.ACRValues](bag, rules.KeyACRValues)
	ar.UILocales, _ = rules.OptionalValueOf[string](bag, rules.KeyUILocales)
	ar.AddClaimsToIDToken, _ = rules.OptionalValueOf[bool](bag, rules.KeyAddClaimsToIDToken)
	ar.OfflineAccess, _ = rules.OptionalValueOf[bool](bag, rules.KeyScopeOfflineAccess)
	return ar, nil
}

// withRedirect attaches the request's redirect target to protocol errors.
func withRedirect(err error, ar models.AuthorizationRequest, useFragment bool) error {
	if oe, ok := oautherr.As(err); ok && !oe.IsRedirectable() {
		return oe.WithRedirect(ar.RedirectURI, ar.State, useFragment)
	}
	return err
}
