package grants

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"maps"
	"net/http"
	"slices"
	"time"

	"oidcop/internal/oidc/idtoken"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/oidc/rules"
	"oidcop/internal/platform/logger"
	"oidcop/pkg/platform/audit"
	"oidcop/pkg/platform/secrets"
	"oidcop/pkg/platform/sentinel"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const identifierBytes = 40

const (
	artifactAuthCode     = "auth_code"
	artifactAccessToken  = "access_token"
	artifactRefreshToken = "refresh_token"
	artifactIDToken      = "id_token"
)

// issuer holds what every grant needs to authenticate clients and mint
// artifacts.
type issuer struct {
	cfg    Config
	deps   Dependencies
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
	newID  func() (string, error)
}

func newIssuer(cfg Config, deps Dependencies) (*issuer, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxIdentifierAttempts < 1 {
		cfg.MaxIdentifierAttempts = 1
	}
	if cfg.ScopeDelimiter == "" {
		cfg.ScopeDelimiter = " "
	}
	i := &issuer{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
		tracer: otel.Tracer("oidcop/internal/oidc/grants"),
		now:    deps.Now,
		newID:  deps.NewIdentifier,
	}
	if i.logger == nil {
		i.logger = zap.NewNop()
	}
	if i.now == nil {
		i.now = time.Now
	}
	if i.newID == nil {
		i.newID = randomIdentifier
	}
	return i, nil
}

func randomIdentifier() (string, error) {
	b := make([]byte, identifierBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (i *issuer) ruleData(useFragment bool, responseTypes ...string) rules.Data {
	return rules.Data{
		DefaultScope:             i.cfg.DefaultScope,
		ScopeDelimiter:           i.cfg.ScopeDelimiter,
		AllowedMethods:           []string{http.MethodGet, http.MethodPost},
		UseFragment:              useFragment,
		ResponseTypes:            responseTypes,
		AlwaysIssueRefreshToken:  i.cfg.AlwaysIssueRefreshToken,
		AlwaysAddClaimsToIDToken: i.cfg.AlwaysAddClaimsToIDToken,
	}
}

// persistUnique generates identifiers until persist succeeds or the attempt
// budget is spent. Only sentinel.ErrConflict consumes an attempt; any other
// error ends the loop.
func (i *issuer) persistUnique(ctx context.Context, artifact string, persist func(id string) error) error {
	for attempt := 1; attempt <= i.cfg.MaxIdentifierAttempts; attempt++ {
		id, err := i.newID()
		if err != nil {
			return oautherr.ServerError("Could not generate an identifier").WithCause(err)
		}
		err = persist(id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			var oe *oautherr.Error
			if errors.As(err, &oe) {
				return err
			}
			return oautherr.ServerError("Could not persist the " + artifact).WithCause(err)
		}
		i.deps.Metrics.IncIdentifierCollision(artifact)
		logger.From(ctx, i.logger).Warn("identifier collision",
			zap.String("artifact", artifact), zap.Int("attempt", attempt))
	}
	return oautherr.ServerError("Could not generate a unique " + artifact + " identifier")
}

func (i *issuer) issueAuthCode(ctx context.Context, clientID, userID string, scopes []string, redirectURI, nonce string) (*models.AuthCode, error) {
	var code *models.AuthCode
	err := i.persistUnique(ctx, artifactAuthCode, func(id string) error {
		now := i.now()
		c, err := models.NewAuthCode(id, clientID, userID, scopes, redirectURI, nonce, now.Add(i.cfg.AuthCodeTTL), now)
		if err != nil {
			return oautherr.ServerError("Could not build the authorization code").WithCause(err)
		}
		if err := i.deps.AuthCodes.PersistNew(ctx, c); err != nil {
			return err
		}
		code = c
		return nil
	})
	return code, err
}

// issueAccessToken persists a new access token and returns it with its bearer rendering.
func (i *issuer) issueAccessToken(ctx context.Context, clientID, userID string, scopes []string, authCodeID string, requested *models.ClaimsRequest) (*models.AccessToken, string, error) {
	var token *models.AccessToken
	err := i.persistUnique(ctx, artifactAccessToken, func(id string) error {
		now := i.now()
		t, err := models.NewAccessToken(id, clientID, userID, scopes, now.Add(i.cfg.AccessTokenTTL), now)
		if err != nil {
			return oautherr.ServerError("Could not build the access token").WithCause(err)
		}
		t.AuthCodeID = authCodeID
		t.RequestedClaims = requested
		if err := i.deps.AccessTokens.PersistNew(ctx, t); err != nil {
			return err
		}
		token = t
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	bearer, err := i.deps.AccessTokenSigner.GenerateAccessToken(token.ID, clientID, userID, scopes, token.ExpiresAt)
	if err != nil {
		return nil, "", oautherr.ServerError("Could not sign the access token").WithCause(err)
	}
	return token, bearer, nil
}

// issueRefreshToken persists a refresh token bound to accessToken and returns
// its sealed payload.
func (i *issuer) issueRefreshToken(ctx context.Context, accessToken *models.AccessToken) (string, error) {
	var token *models.RefreshToken
	err := i.persistUnique(ctx, artifactRefreshToken, func(id string) error {
		now := i.now()
		t, err := models.NewRefreshToken(id, accessToken.ID, now.Add(i.cfg.RefreshTokenTTL), now)
		if err != nil {
			return oautherr.ServerError("Could not build the refresh token").WithCause(err)
		}
		t.AuthCodeID = accessToken.AuthCodeID
		if err := i.deps.RefreshTokens.PersistNew(ctx, t); err != nil {
			return err
		}
		token = t
		return nil
	})
	if err != nil {
		return "", err
	}
	return i.seal(models.RefreshTokenPayload{
		ClientID:       accessToken.ClientID,
		RefreshTokenID: token.ID,
		AccessTokenID:  accessToken.ID,
		Scopes:         accessToken.Scopes,
		UserID:         accessToken.UserID,
		ExpireTime:     token.ExpiresAt.Unix(),
		AuthCodeID:     token.AuthCodeID,
	})
}

func (i *issuer) seal(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", oautherr.ServerError("Could not encode the payload").WithCause(err)
	}
	sealed, err := i.deps.Box.Seal(raw)
	if err != nil {
		return "", oautherr.ServerError("Could not encrypt the payload").WithCause(err)
	}
	return sealed, nil
}

func (i *issuer) open(sealed string, payload any) error {
	raw, err := i.deps.Box.Open(sealed)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, payload)
}

// authenticateClient resolves the client of a token request. Confidential
// clients must present their secret, by basic auth or in the body.
func (i *issuer) authenticateClient(ctx context.Context, req *rules.Request) (*models.Client, error) {
	clientID, secret, hasBasic := req.BasicAuth()
	if !hasBasic || clientID == "" {
		clientID = req.PostParam("client_id")
		secret = req.PostParam("client_secret")
	}
	if clientID == "" {
		return nil, oautherr.InvalidRequest("client_id", "")
	}
	client, err := i.deps.Clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			i.emit(ctx, audit.EventClientAuthFailed, clientID, "", "", "unknown client")
			return nil, oautherr.InvalidClient("Client authentication failed")
		}
		return nil, oautherr.ServerError("Client lookup failed").WithCause(err)
	}
	if !client.Enabled {
		i.emit(ctx, audit.EventClientAuthFailed, clientID, "", "", "client disabled")
		return nil, oautherr.InvalidClient("Client authentication failed")
	}
	if client.IsConfidential() {
		if secret == "" {
			i.emit(ctx, audit.EventClientAuthFailed, clientID, "", "", "missing secret")
			return nil, oautherr.InvalidClient("Client authentication failed")
		}
		if err := secrets.Verify(secret, client.SecretHash); err != nil {
			i.emit(ctx, audit.EventClientAuthFailed, clientID, "", "", "invalid secret")
			return nil, oautherr.InvalidClient("Client authentication failed")
		}
	}
	return client, nil
}

// userClaims releases the claims of userID for scopes, plus the individually
// requested ID token claims. A user without stored attributes yields none.
func (i *issuer) userClaims(ctx context.Context, userID string, scopes []string, withScopeClaims bool, requested *models.ClaimsRequest) (map[string]any, error) {
	user, err := i.deps.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return map[string]any{}, nil
		}
		return nil, oautherr.ServerError("User lookup failed").WithCause(err)
	}
	out := map[string]any{}
	if withScopeClaims {
		released, err := i.deps.Claims.Extract(scopes, user.Attributes)
		if err != nil {
			return nil, oautherr.ServerError("Claim translation failed").WithCause(err)
		}
		maps.Copy(out, released)
	}
	if !requested.IsEmpty() {
		extra, err := i.deps.Claims.ExtractAdditionalIDTokenClaims(requested, user.Attributes)
		if err != nil {
			return nil, oautherr.ServerError("Claim translation failed").WithCause(err)
		}
		maps.Copy(out, extra)
	}
	return out, nil
}

func (i *issuer) buildIDToken(ctx context.Context, p idtoken.Params, grant models.GrantType) (string, error) {
	token, err := i.deps.IDTokens.Build(p)
	if err != nil {
		logger.From(ctx, i.logger).Error("id token signing failed", logger.ClientID(p.ClientID), logger.Err(err))
		return "", oautherr.ServerError("Could not sign the ID token").WithCause(err)
	}
	i.deps.Metrics.IncTokenIssued(artifactIDToken, string(grant))
	return token, nil
}

func (i *issuer) emit(ctx context.Context, action audit.AuditEvent, clientID, userID, subject, reason string) {
	if i.deps.Audit == nil {
		return
	}
	ev := audit.Event{
		Action:   string(action),
		ClientID: clientID,
		UserID:   userID,
		Subject:  subject,
		Reason:   reason,
	}
	if action.Category() == audit.CategorySecurity {
		ev.Severity = audit.SeverityWarning
	}
	if err := i.deps.Audit.Emit(ctx, ev); err != nil {
		logger.From(ctx, i.logger).Warn("audit emit failed", zap.String("action", string(action)), logger.Err(err))
	}
}

// checkScopeSubset rejects any requested scope outside granted.
func checkScopeSubset(requested, granted []string) error {
	for _, s := range requested {
		if !slices.Contains(granted, s) {
			return oautherr.InvalidScope(s)
		}
	}
	return nil
}

func (i *issuer) expiresIn() int64 {
	return int64(i.cfg.AccessTokenTTL / time.Second)
}
