// Package httptransport exposes the authorization server over HTTP with chi.
// Handlers only translate between HTTP and the server facade.
package httptransport

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gopkg.in/square/go-jose.v2"

	"oidcop/internal/oidc/grants"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/oidc/rules"
	"oidcop/internal/oidc/server"
	"oidcop/internal/platform/logger"
	"oidcop/internal/platform/middleware"
)

// Provider is the server facade as seen by the transport.
type Provider interface {
	ValidateAuthorizationRequest(ctx context.Context, req *rules.Request) (models.AuthorizationRequest, error)
	NeedsLogin(ctx context.Context) bool
	CompleteAuthorizationRequest(ctx context.Context, ar models.AuthorizationRequest, approved bool) (*grants.RedirectResponse, error)
	RespondToAccessTokenRequest(ctx context.Context, req *rules.Request) (*grants.TokenResponse, error)
	UserInfo(ctx context.Context, bearer string) (map[string]any, error)
	Metadata() server.Discovery
	JWKS() jose.JSONWebKeySet
}

// Approver decides on a validated request once the user is authenticated.
// The default approves every request.
type Approver func(ctx context.Context, ar models.AuthorizationRequest) bool

type Handler struct {
	provider Provider
	sessions *Sessions
	loginURL string
	approve  Approver
	logger   *zap.Logger
	tokenMW  []func(http.Handler) http.Handler
}

type HandlerOption func(*Handler)

func WithApprover(a Approver) HandlerOption { return func(h *Handler) { h.approve = a } }

func WithLogger(l *zap.Logger) HandlerOption { return func(h *Handler) { h.logger = l } }

// WithTokenMiddleware wraps only the token endpoint, e.g. with a rate limiter.
func WithTokenMiddleware(mw ...func(http.Handler) http.Handler) HandlerOption {
	return func(h *Handler) { h.tokenMW = append(h.tokenMW, mw...) }
}

// NewHandler serves provider. Unauthenticated authorization requests are sent
// to loginURL with the request to resume as `return_to`.
func NewHandler(provider Provider, sessions *Sessions, loginURL string, opts ...HandlerOption) *Handler {
	h := &Handler{
		provider: provider,
		sessions: sessions,
		loginURL: loginURL,
		approve:  func(context.Context, models.AuthorizationRequest) bool { return true },
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the protocol endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/.well-known/openid-configuration", h.handleDiscovery)
	r.Get("/jwks", h.handleJWKS)

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Middleware)
		r.Get("/authorize", h.handleAuthorize)
		r.Post("/authorize", h.handleAuthorize)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.With(h.tokenMW...).Post("/token", h.handleToken)
		r.Get("/userinfo", h.handleUserInfo)
		r.Post("/userinfo", h.handleUserInfo)
	})
}

func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := rules.FromHTTP(r)
	if err != nil {
		h.writeError(w, r, oautherr.InvalidRequest("request", "Malformed request body").WithCause(err))
		return
	}
	ar, err := h.provider.ValidateAuthorizationRequest(ctx, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.provider.NeedsLogin(ctx) {
		h.redirectToLogin(w, r, req)
		return
	}

	approved := h.approve(ctx, ar)
	resp, err := h.provider.CompleteAuthorizationRequest(ctx, ar, approved)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	logger.From(ctx, h.logger).Info("authorization completed",
		logger.ClientID(ar.Client.ID), logger.ResponseType(ar.ResponseType))
	http.Redirect(w, r, resp.URL, http.StatusFound)
}

// redirectToLogin sends the user agent to the login service. prompt and
// max_age are dropped from the request to resume, otherwise it would demand
// a fresh login again after the user just logged in.
func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request, req *rules.Request) {
	params := url.Values{}
	src := req.Query
	if r.Method == http.MethodPost {
		src = req.Form
	}
	for k, v := range src {
		if k == "prompt" || k == "max_age" {
			continue
		}
		params[k] = v
	}
	returnTo := url.URL{Path: r.URL.Path, RawQuery: params.Encode()}

	target, err := url.Parse(h.loginURL)
	if err != nil {
		h.writeError(w, r, oautherr.ServerError("Invalid login URL").WithCause(err))
		return
	}
	q := target.Query()
	q.Set("return_to", returnTo.String())
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := rules.FromHTTP(r)
	if err != nil {
		h.writeError(w, r, oautherr.InvalidRequest("request", "Malformed request body").WithCause(err))
		return
	}
	resp, err := h.provider.RespondToAccessTokenRequest(ctx, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	logger.From(ctx, h.logger).Info("token issued", logger.GrantType(req.PostParam("grant_type")))
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	bearer, _ := middleware.BearerToken(r)
	claims, err := h.provider.UserInfo(r.Context(), bearer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

func (h *Handler) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.Metadata())
}

func (h *Handler) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.JWKS())
}
