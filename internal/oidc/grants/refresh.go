package grants

import (
	"context"
	"errors"
	"slices"

	"oidcop/internal/oidc/idtoken"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/oidc/rules"
	"oidcop/internal/platform/logger"
	"oidcop/pkg/platform/audit"
	"oidcop/pkg/platform/sentinel"
	"oidcop/pkg/platform/strings"

	"go.opentelemetry.io/otel/codes"
)

// RefreshTokenGrant redeems refresh tokens and rotates them.
type RefreshTokenGrant struct {
	*issuer
}

func NewRefreshTokenGrant(cfg Config, deps Dependencies) (*RefreshTokenGrant, error) {
	i, err := newIssuer(cfg, deps)
	if err != nil {
		return nil, err
	}
	return &RefreshTokenGrant{issuer: i}, nil
}

func (g *RefreshTokenGrant) Identifier() models.GrantType { return models.GrantRefreshToken }

func (g *RefreshTokenGrant) RespondToAccessTokenRequest(ctx context.Context, req *rules.Request) (*TokenResponse, error) {
	ctx, span := g.tracer.Start(ctx, "grants.RefreshToken.Token")
	defer span.End()

	resp, err := g.redeem(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redemption failed")
		if oe, ok := oautherr.As(err); ok {
			g.deps.Metrics.IncRedemptionFailure(string(models.GrantRefreshToken), oe.Code)
		}
		return nil, err
	}
	return resp, nil
}

func (g *RefreshTokenGrant) redeem(ctx context.Context, req *rules.Request) (*TokenResponse, error) {
	client, err := g.authenticateClient(ctx, req)
	if err != nil {
		return nil, err
	}
	p, err := g.validateOldRefreshToken(ctx, req, client)
	if err != nil {
		return nil, err
	}

	scopes := p.Scopes
	if requested := strings.SplitUnique(req.PostParam("scope"), g.cfg.ScopeDelimiter); len(requested) > 0 {
		if err := checkScopeSubset(requested, p.Scopes); err != nil {
			return nil, err
		}
		scopes = requested
	}

	var requestedClaims *models.ClaimsRequest
	if old, err := g.deps.AccessTokens.FindByID(ctx, p.AccessTokenID); err == nil {
		requestedClaims = old.RequestedClaims
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, oautherr.ServerError("Access token lookup failed").WithCause(err)
	}

	log := logger.From(ctx, g.logger)
	if err := g.deps.AccessTokens.Revoke(ctx, p.AccessTokenID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		log.Warn("revoke rotated access token", logger.Err(err))
	}
	if err := g.deps.RefreshTokens.Revoke(ctx, p.RefreshTokenID); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, oautherr.InvalidGrant("Token has been revoked")
		}
		return nil, oautherr.ServerError("Could not revoke the refresh token").WithCause(err)
	}

	accessToken, bearer, err := g.issueAccessToken(ctx, client.ID, p.UserID, scopes, p.AuthCodeID, requestedClaims)
	if err != nil {
		return nil, err
	}
	refresh, err := g.issueRefreshToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	resp := &TokenResponse{
		AccessToken:  bearer,
		TokenType:    models.TokenTypeBearer,
		ExpiresIn:    g.expiresIn(),
		RefreshToken: refresh,
	}

	if slices.Contains(scopes, models.ScopeOpenID) {
		userClaims, err := g.userClaims(ctx, p.UserID, scopes, g.cfg.AlwaysAddClaimsToIDToken, nil)
		if err != nil {
			return nil, err
		}
		resp.IDToken, err = g.buildIDToken(ctx, idtoken.Params{
			ClientID:    client.ID,
			Subject:     p.UserID,
			AccessToken: bearer,
			Claims:      userClaims,
		}, models.GrantRefreshToken)
		if err != nil {
			return nil, err
		}
	}

	g.deps.Metrics.IncTokenIssued(artifactAccessToken, string(models.GrantRefreshToken))
	g.deps.Metrics.IncTokenIssued(artifactRefreshToken, string(models.GrantRefreshToken))
	g.emit(ctx, audit.EventTokenRefreshed, client.ID, p.UserID, accessToken.ID, "")
	return resp, nil
}

func (g *RefreshTokenGrant) validateOldRefreshToken(ctx context.Context, req *rules.Request, client *models.Client) (models.RefreshTokenPayload, error) {
	var p models.RefreshTokenPayload
	encrypted := req.PostParam("refresh_token")
	if encrypted == "" {
		return p, oautherr.InvalidRequest("refresh_token", "")
	}
	if err := g.open(encrypted, &p); err != nil {
		g.deps.Metrics.IncDecryptFailure(artifactRefreshToken)
		return p, oautherr.InvalidRequest("refresh_token", "Cannot decrypt the refresh token").WithCause(err)
	}
	if p.ClientID != client.ID {
		g.emit(ctx, audit.EventRefreshTokenClientMismatch, client.ID, p.UserID, p.RefreshTokenID,
			"refresh token issued to "+p.ClientID)
		return p, oautherr.InvalidGrant("Token is not linked to client")
	}
	if g.now().Unix() > p.ExpireTime {
		return p, oautherr.InvalidGrant("Token has expired")
	}
	revoked, err := g.deps.RefreshTokens.IsRevoked(ctx, p.RefreshTokenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return p, oautherr.InvalidGrant("Token is unknown")
		}
		return p, oautherr.ServerError("Refresh token lookup failed").WithCause(err)
	}
	if revoked {
		return p, oautherr.InvalidGrant("Token has been revoked")
	}
	return p, nil
}
