package oidc

import (
	"time"

	"go.uber.org/zap"
	"gopkg.in/square/go-jose.v2"

	jwttoken "oidcop/internal/jwt_token"
	"oidcop/internal/oidc/claims"
	"oidcop/internal/oidc/grants"
	"oidcop/internal/oidc/idtoken"
	"oidcop/internal/oidc/metrics"
	"oidcop/internal/oidc/pkce"
	"oidcop/internal/oidc/ports"
	"oidcop/internal/oidc/rules"
	"oidcop/internal/oidc/server"
	"oidcop/internal/platform/config"
	dErrors "oidcop/pkg/domain-errors"
	"oidcop/pkg/platform/secretbox"
)

// Repositories are the storage ports the provider runs on.
type Repositories struct {
	Clients       ports.ClientRepository
	Scopes        ports.ScopeRepository
	AuthCodes     ports.AuthCodeRepository
	AccessTokens  ports.AccessTokenRepository
	RefreshTokens ports.RefreshTokenRepository
	Users         ports.UserRepository
}

type Options struct {
	Grants  grants.Config
	Box     secretbox.Box
	Signer  *jwttoken.JWTService
	Claims  *claims.TranslatorExtractor
	Session ports.Session
	Audit   ports.AuditPublisher
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

// Provider adapts the grants and the rule chain into the authorization server
// facade. Transport concerns stay out.
type Provider struct {
	*server.Server
	signer    *jwttoken.JWTService
	verifiers *pkce.Registry
}

// GrantsConfig maps service configuration onto grant behaviour.
func GrantsConfig(c config.OIDC) grants.Config {
	return grants.Config{
		AuthCodeTTL:                 c.AuthCodeTTL,
		AccessTokenTTL:              c.AccessTokenTTL,
		RefreshTokenTTL:             c.RefreshTokenTTL,
		MaxIdentifierAttempts:       c.MaxIdentifierAttempts,
		DefaultScope:                c.DefaultScope,
		ScopeDelimiter:              c.ScopeDelimiter,
		RequirePKCEForPublicClients: c.RequirePKCEForPublicClients,
		AlwaysIssueRefreshToken:     c.AlwaysIssueRefreshToken,
		AlwaysAddClaimsToIDToken:    c.AlwaysAddClaimsToIDToken,
	}
}

func NewProvider(repos Repositories, opts Options) (*Provider, error) {
	if opts.Signer == nil || opts.Claims == nil || opts.Session == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "provider requires a signer, a claims extractor and a session")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	verifiers := pkce.NewRegistry()

	manager, err := rules.NewManager(rules.DefaultRules(rules.Dependencies{
		Clients:    repos.Clients,
		Scopes:     repos.Scopes,
		Session:    opts.Session,
		ClaimSets:  opts.Claims,
		Verifiers:  verifiers,
		HintParser: opts.Signer,
		Now:        now,
	}), rules.WithMetrics(opts.Metrics), rules.WithLogger(logger.Named("rules")))
	if err != nil {
		return nil, err
	}

	deps := grants.Dependencies{
		Clients:           repos.Clients,
		Scopes:            repos.Scopes,
		AuthCodes:         repos.AuthCodes,
		AccessTokens:      repos.AccessTokens,
		RefreshTokens:     repos.RefreshTokens,
		Users:             repos.Users,
		Rules:             manager,
		Box:               opts.Box,
		AccessTokenSigner: opts.Signer,
		IDTokens:          idtoken.NewBuilder(opts.Signer, opts.Grants.AccessTokenTTL, now),
		Claims:            opts.Claims,
		Verifiers:         verifiers,
		Audit:             opts.Audit,
		Metrics:           opts.Metrics,
		Logger:            logger.Named("grants"),
		Now:               now,
	}
	authCode, err := grants.NewAuthCodeGrant(opts.Grants, deps)
	if err != nil {
		return nil, err
	}
	implicit, err := grants.NewImplicitGrant(opts.Grants, deps)
	if err != nil {
		return nil, err
	}
	refresh, err := grants.NewRefreshTokenGrant(opts.Grants, deps)
	if err != nil {
		return nil, err
	}

	srv, err := server.New(server.Dependencies{
		AuthorizationGrants: []grants.AuthorizationGrant{authCode, implicit},
		TokenGrants:         []grants.TokenGrant{authCode, refresh},
		Session:             opts.Session,
		Users:               repos.Users,
		AccessTokens:        repos.AccessTokens,
		Tokens:              opts.Signer,
		Claims:              opts.Claims,
		Logger:              logger.Named("server"),
		Now:                 now,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{Server: srv, signer: opts.Signer, verifiers: verifiers}, nil
}

// Metadata is the discovery document for the signer's issuer.
func (p *Provider) Metadata() server.Discovery {
	return p.Discovery(p.signer.Issuer(), p.verifiers.Methods())
}

func (p *Provider) JWKS() jose.JSONWebKeySet {
	return p.signer.JWKS()
}
