// Package server is the authorization server facade. It routes authorization
// requests by response_type and token requests by grant_type, binds the
// authenticated subject to approved requests and serves userinfo claims.
package server

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	jwttoken "oidcop/internal/jwt_token"
	"oidcop/internal/oidc/claims"
	"oidcop/internal/oidc/grants"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/oidc/ports"
	"oidcop/internal/oidc/rules"
	"oidcop/internal/platform/logger"
	dErrors "oidcop/pkg/domain-errors"
	"oidcop/pkg/platform/sentinel"
)

// AccessTokenValidator verifies bearer tokens presented to protected endpoints.
type AccessTokenValidator interface {
	ValidateAccessToken(token string) (*jwttoken.AccessTokenClaims, error)
}

type Dependencies struct {
	AuthorizationGrants []grants.AuthorizationGrant
	TokenGrants         []grants.TokenGrant
	Session             ports.Session
	Users               ports.UserRepository
	AccessTokens        ports.AccessTokenRepository
	Tokens              AccessTokenValidator
	Claims              *claims.TranslatorExtractor
	Logger              *zap.Logger
	Now                 func() time.Time
}

type Server struct {
	byResponseType map[string]grants.AuthorizationGrant
	fallback       grants.AuthorizationGrant
	byGrantType    map[models.GrantType]grants.TokenGrant

	session      ports.Session
	users        ports.UserRepository
	accessTokens ports.AccessTokenRepository
	tokens       AccessTokenValidator
	claims       *claims.TranslatorExtractor
	logger       *zap.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

func New(deps Dependencies) (*Server, error) {
	if len(deps.AuthorizationGrants) == 0 || deps.Session == nil || deps.Users == nil ||
		deps.AccessTokens == nil || deps.Tokens == nil || deps.Claims == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "server requires grants, session, users, access tokens, token validator and claims")
	}
	s := &Server{
		byResponseType: make(map[string]grants.AuthorizationGrant),
		fallback:       deps.AuthorizationGrants[0],
		byGrantType:    make(map[models.GrantType]grants.TokenGrant),
		session:        deps.Session,
		users:          deps.Users,
		accessTokens:   deps.AccessTokens,
		tokens:         deps.Tokens,
		claims:         deps.Claims,
		logger:         deps.Logger,
		tracer:         otel.Tracer("oidcop/internal/oidc/server"),
		now:            deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, g := range deps.AuthorizationGrants {
		for _, rt := range g.ResponseTypes() {
			if _, dup := s.byResponseType[rt]; dup {
				return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "response type %q registered twice", rt)
			}
			s.byResponseType[rt] = g
		}
	}
	for _, g := range deps.TokenGrants {
		if _, dup := s.byGrantType[g.Identifier()]; dup {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "grant type %q registered twice", g.Identifier())
		}
		s.byGrantType[g.Identifier()] = g
	}
	return s, nil
}

// ResponseTypes lists the supported response_type values, sorted.
func (s *Server) ResponseTypes() []string {
	return slices.Sorted(maps.Keys(s.byResponseType))
}

// GrantTypes lists the supported grant_type values, sorted.
func (s *Server) GrantTypes() []string {
	out := make([]string, 0, len(s.byGrantType))
	for gt := range s.byGrantType {
		out = append(out, string(gt))
	}
	slices.Sort(out)
	return out
}

// ValidateAuthorizationRequest runs the rule chain of the grant answering the
// requested response_type. Unknown response types go through the first
// registered grant so client and redirect URI are checked before the
// unsupported_response_type error is redirected back.
func (s *Server) ValidateAuthorizationRequest(ctx context.Context, req *rules.Request) (models.AuthorizationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "server.ValidateAuthorizationRequest")
	defer span.End()

	responseType := req.Param("response_type", nil)
	g, ok := s.byResponseType[responseType]
	if !ok {
		g = s.fallback
	}
	span.SetAttributes(attribute.String("response_type", responseType))
	return g.ValidateAuthorizationRequest(ctx, req)
}

// NeedsLogin reports whether the end user has to authenticate before the
// request can be completed. It is also true after prompt=login or an exceeded
// max_age dropped the previous authentication.
func (s *Server) NeedsLogin(ctx context.Context) bool {
	return !s.session.IsAuthenticated(ctx)
}

// CompleteAuthorizationRequest binds the session subject to ar, stores its
// attributes for later claim release and lets the grant issue the response.
func (s *Server) CompleteAuthorizationRequest(ctx context.Context, ar models.AuthorizationRequest, approved bool) (*grants.RedirectResponse, error) {
	ctx, span := s.tracer.Start(ctx, "server.CompleteAuthorizationRequest")
	defer span.End()

	if ar.Stage() != models.StageValidated {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "authorization request is %s, not validated", ar.Stage())
	}
	subject, ok := s.session.Subject(ctx)
	if !ok || subject == nil {
		return nil, oautherr.LoginRequired("The end user is not authenticated").
			WithRedirect(ar.RedirectURI, ar.State, ar.GrantType == models.GrantImplicit)
	}

	if !ar.ACRValues.Satisfies(subject.ACR) {
		return nil, oautherr.LoginRequired("The authentication does not meet the essential acr values").
			WithRedirect(ar.RedirectURI, ar.State, ar.GrantType == models.GrantImplicit)
	}

	now := s.now()
	user := models.NewUser(subject.ID, subject.Attributes, now)
	if err := s.users.Upsert(ctx, user); err != nil {
		logger.From(ctx, s.logger).Error("user upsert failed", logger.UserID(subject.ID), logger.Err(err))
		return nil, oautherr.ServerError("Could not store the user").WithCause(err).
			WithRedirect(ar.RedirectURI, ar.State, ar.GrantType == models.GrantImplicit)
	}

	g, ok := s.byResponseType[ar.ResponseType]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "no grant for response type %q", ar.ResponseType)
	}
	ar = ar.WithUser(user, subject.AuthInstant, subject.ACR).WithApproval(approved)
	span.SetAttributes(attribute.String("client_id", ar.Client.ID), attribute.Bool("approved", approved))
	return g.CompleteAuthorizationRequest(ctx, ar)
}

// RespondToAccessTokenRequest dispatches on grant_type, which is only read
// from the POST body.
func (s *Server) RespondToAccessTokenRequest(ctx context.Context, req *rules.Request) (*grants.TokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "server.RespondToAccessTokenRequest")
	defer span.End()

	grantType := req.PostParam("grant_type")
	if grantType == "" {
		return nil, oautherr.InvalidRequest("grant_type", "")
	}
	g, ok := s.byGrantType[models.GrantType(grantType)]
	if !ok {
		return nil, oautherr.UnsupportedGrantType()
	}
	span.SetAttributes(attribute.String("grant_type", grantType))
	return g.RespondToAccessTokenRequest(ctx, req)
}

// UserInfo releases the claims of the token's scopes plus the userinfo claims
// requested at authorization time. `sub` is always the token subject.
func (s *Server) UserInfo(ctx context.Context, bearer string) (map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "server.UserInfo")
	defer span.End()

	if bearer == "" {
		return nil, oautherr.InvalidToken("Missing bearer token")
	}
	tc, err := s.tokens.ValidateAccessToken(bearer)
	if err != nil {
		return nil, oautherr.InvalidToken("The access token is invalid").WithCause(err)
	}
	token, err := s.accessTokens.FindByID(ctx, tc.ID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, oautherr.InvalidToken("Unknown access token")
	case err != nil:
		return nil, oautherr.ServerError("Access token lookup failed").WithCause(err)
	case token.Revoked:
		return nil, oautherr.InvalidToken("The access token has been revoked")
	case token.IsExpired(s.now()):
		return nil, oautherr.InvalidToken("The access token has expired")
	case token.UserID == "":
		return nil, oautherr.InvalidToken("The access token has no subject")
	}

	out := map[string]any{}
	user, err := s.users.FindByID(ctx, token.UserID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
	case err != nil:
		return nil, oautherr.ServerError("User lookup failed").WithCause(err)
	default:
		released, err := s.claims.Extract(token.Scopes, user.Attributes)
		if err != nil {
			return nil, oautherr.ServerError("Claim translation failed").WithCause(err)
		}
		maps.Copy(out, released)
		if !token.RequestedClaims.IsEmpty() {
			extra, err := s.claims.ExtractAdditionalUserInfoClaims(token.RequestedClaims, user.Attributes)
			if err != nil {
				return nil, oautherr.ServerError("Claim translation failed").WithCause(err)
			}
			maps.Copy(out, extra)
		}
	}
	out["sub"] = token.UserID
	return out, nil
}

// Discovery is the OpenID Provider metadata document.
type Discovery struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	UserInfoEndpoint                  string   `json:"userinfo_endpoint"`
	JWKSURI                           string   `json:"jwks_uri"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	ResponseModesSupported            []string `json:"response_modes_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	ClaimsSupported                   []string `json:"claims_supported,omitempty"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported,omitempty"`
	ClaimsParameterSupported          bool     `json:"claims_parameter_supported"`
	RequestParameterSupported         bool     `json:"request_parameter_supported"`
}

// Discovery describes this server for relying parties. Endpoint paths are
// joined to issuer.
func (s *Server) Discovery(issuer string, codeChallengeMethods []string) Discovery {
	var (
		scopes    []string
		claimSeen = map[string]bool{}
		claimList []string
	)
	for _, cs := range s.claims.ClaimSets() {
		scopes = append(scopes, cs.Scope)
		for _, c := range cs.Claims {
			if !claimSeen[c] {
				claimSeen[c] = true
				claimList = append(claimList, c)
			}
		}
	}
	scopes = append(scopes, models.ScopeOfflineAccess)
	slices.Sort(scopes)
	slices.Sort(claimList)

	return Discovery{
		Issuer:                            issuer,
		AuthorizationEndpoint:             fmt.Sprintf("%s/authorize", issuer),
		TokenEndpoint:                     fmt.Sprintf("%s/token", issuer),
		UserInfoEndpoint:                  fmt.Sprintf("%s/userinfo", issuer),
		JWKSURI:                           fmt.Sprintf("%s/jwks", issuer),
		ScopesSupported:                   scopes,
		ResponseTypesSupported:            s.ResponseTypes(),
		ResponseModesSupported:            []string{"query", "fragment"},
		GrantTypesSupported:               s.GrantTypes(),
		SubjectTypesSupported:             []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{"RS256"},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_basic", "client_secret_post", "none"},
		ClaimsSupported:                   claimList,
		CodeChallengeMethodsSupported:     codeChallengeMethods,
		ClaimsParameterSupported:          true,
	}
}
