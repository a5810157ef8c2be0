package grants

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jwttoken "oidcop/internal/jwt_token"
	"oidcop/internal/oidc/claims"
	"oidcop/internal/oidc/idtoken"
	"oidcop/internal/oidc/metrics"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/pkce"
	"oidcop/internal/oidc/rules"
	"oidcop/internal/oidc/store/accesstoken"
	"oidcop/internal/oidc/store/authcode"
	clientstore "oidcop/internal/oidc/store/client"
	"oidcop/internal/oidc/store/refreshtoken"
	scopestore "oidcop/internal/oidc/store/scope"
	userstore "oidcop/internal/oidc/store/user"
	"oidcop/pkg/platform/audit"
	"oidcop/pkg/platform/audit/publisher"
	auditmemory "oidcop/pkg/platform/audit/store/memory"
	"oidcop/pkg/platform/secretbox"
	"oidcop/pkg/platform/secrets"
)

const (
	publicClientID       = "rp-public"
	confidentialClientID = "rp-conf"
	clientSecret         = "s3cret-value"
	redirectURI          = "https://rp.example/cb"
	testIssuer           = "https://op.example.test"

	codeVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	codeChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

type session struct {
	authenticated bool
	authInstant   time.Time
}

func (s *session) Subject(context.Context) (*models.Subject, bool) {
	if !s.authenticated {
		return nil, false
	}
	return &models.Subject{ID: "alice", AuthInstant: s.authInstant}, true
}

func (s *session) IsAuthenticated(context.Context) bool { return s.authenticated }

func (s *session) AuthInstant(context.Context) (time.Time, bool) {
	return s.authInstant, s.authenticated
}

func (s *session) Reauthenticate(context.Context) error {
	s.authenticated = false
	return nil
}

// harness wires every grant to in-memory stores and a movable clock.
type harness struct {
	t       *testing.T
	clock   time.Time
	cfg     Config
	session *session

	clients       *clientstore.InMemoryStore
	authCodes     *authcode.InMemoryStore
	accessTokens  *accesstoken.InMemoryStore
	refreshTokens *refreshtoken.InMemoryStore
	users         *userstore.InMemoryStore
	auditLog      *auditmemory.InMemoryStore
	jwt           *jwttoken.JWTService
	metrics       *metrics.Metrics
	deps          Dependencies
}

func newHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()
	h := &harness{
		t:             t,
		clock:         time.Now().Truncate(time.Second),
		cfg:           DefaultConfig(),
		session:       &session{authenticated: true},
		authCodes:     authcode.NewInMemory(),
		accessTokens:  accesstoken.NewInMemory(),
		refreshTokens: refreshtoken.NewInMemory(),
		users:         userstore.NewInMemory(),
		auditLog:      auditmemory.NewInMemoryStore(),
		metrics:       metrics.New(prometheus.NewRegistry()),
	}
	h.session.authInstant = h.clock
	for _, m := range mutate {
		m(&h.cfg)
	}
	now := func() time.Time { return h.clock }

	key, err := jwttoken.GenerateKey(2048)
	require.NoError(t, err)
	h.jwt = jwttoken.NewJWTService(key, "test-kid", testIssuer, jwttoken.WithNow(now))

	hash, err := secrets.Hash(clientSecret)
	require.NoError(t, err)
	public, err := models.NewClient(publicClientID, "Public", "", []string{redirectURI},
		[]string{"openid", "email", "profile", "offline_access"}, false, h.clock)
	require.NoError(t, err)
	confidential, err := models.NewClient(confidentialClientID, "Confidential", hash, []string{redirectURI},
		[]string{"openid", "email", "offline_access"}, true, h.clock)
	require.NoError(t, err)
	h.clients = clientstore.NewInMemory(public, confidential)

	extractor, err := claims.New("uid")
	require.NoError(t, err)
	scopes := scopestore.NewInMemory()
	verifiers := pkce.NewRegistry()

	manager, err := rules.NewManager(rules.DefaultRules(rules.Dependencies{
		Clients:    h.clients,
		Scopes:     scopes,
		Session:    h.session,
		ClaimSets:  extractor,
		Verifiers:  verifiers,
		HintParser: h.jwt,
		Now:        now,
	}), rules.WithMetrics(h.metrics))
	require.NoError(t, err)

	box, err := secretbox.New("jwe", make32(t))
	require.NoError(t, err)

	require.NoError(t, h.users.Upsert(context.Background(), models.NewUser("alice", map[string][]string{
		"uid":  {"alice"},
		"mail": {"alice@example.org"},
		"cn":   {"Alice Liddell"},
	}, h.clock)))

	pub := publisher.NewPublisher(h.auditLog, publisher.WithClock(now))
	t.Cleanup(pub.Close)

	h.deps = Dependencies{
		Clients:           h.clients,
		Scopes:            scopes,
		AuthCodes:         h.authCodes,
		AccessTokens:      h.accessTokens,
		RefreshTokens:     h.refreshTokens,
		Users:             h.users,
		Rules:             manager,
		Box:               box,
		AccessTokenSigner: h.jwt,
		IDTokens:          idtoken.NewBuilder(h.jwt, h.cfg.AccessTokenTTL, now),
		Claims:            extractor,
		Verifiers:         verifiers,
		Audit:             pub,
		Metrics:           h.metrics,
		Now:               now,
	}
	return h
}

func make32(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func (h *harness) advance(d time.Duration) { h.clock = h.clock.Add(d) }

func (h *harness) authCodeGrant() *AuthCodeGrant {
	g, err := NewAuthCodeGrant(h.cfg, h.deps)
	require.NoError(h.t, err)
	return g
}

func (h *harness) implicitGrant() *ImplicitGrant {
	g, err := NewImplicitGrant(h.cfg, h.deps)
	require.NoError(h.t, err)
	return g
}

func (h *harness) refreshGrant() *RefreshTokenGrant {
	g, err := NewRefreshTokenGrant(h.cfg, h.deps)
	require.NoError(h.t, err)
	return g
}

func (h *harness) user() *models.User {
	u, err := h.users.FindByID(context.Background(), "alice")
	require.NoError(h.t, err)
	return u
}

// approve completes a validated request for alice.
func (h *harness) approve(g AuthorizationGrant, ar models.AuthorizationRequest, approved bool) (*RedirectResponse, error) {
	return g.CompleteAuthorizationRequest(context.Background(), ar.WithUser(h.user(), h.clock, "").WithApproval(approved))
}

func authorizeRequest(params map[string]string) *rules.Request {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return rules.NewRequest(http.MethodGet, q, nil)
}

func tokenRequest(params map[string]string) *rules.Request {
	f := url.Values{}
	for k, v := range params {
		f.Set(k, v)
	}
	return rules.NewRequest(http.MethodPost, nil, f)
}

// issueCode runs the code flow up to the redirect and returns the code.
func (h *harness) issueCode(clientID, scope string, extra map[string]string) string {
	h.t.Helper()
	params := map[string]string{
		"client_id":     clientID,
		"redirect_uri":  redirectURI,
		"response_type": "code",
		"scope":         scope,
		"state":         "xyz",
	}
	for k, v := range extra {
		params[k] = v
	}
	g := h.authCodeGrant()
	ar, err := g.ValidateAuthorizationRequest(context.Background(), authorizeRequest(params))
	require.NoError(h.t, err)
	resp, err := h.approve(g, ar, true)
	require.NoError(h.t, err)

	u, err := url.Parse(resp.URL)
	require.NoError(h.t, err)
	require.Equal(h.t, "xyz", u.Query().Get("state"))
	code := u.Query().Get("code")
	require.NotEmpty(h.t, code)
	return code
}

func (h *harness) auditActions() []string {
	events, err := h.auditLog.ListAll(context.Background())
	require.NoError(h.t, err)
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

func (h *harness) auditEvents(action audit.AuditEvent) []audit.Event {
	events, err := h.auditLog.ListAll(context.Background())
	require.NoError(h.t, err)
	var out []audit.Event
	for _, e := range events {
		if e.Action == string(action) {
			out = append(out, e)
		}
	}
	return out
}
