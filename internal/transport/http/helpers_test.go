package httptransport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jwttoken "oidcop/internal/jwt_token"
	"oidcop/internal/oidc"
	"oidcop/internal/oidc/claims"
	"oidcop/internal/oidc/grants"
	oidcmetrics "oidcop/internal/oidc/metrics"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/store/accesstoken"
	"oidcop/internal/oidc/store/authcode"
	clientstore "oidcop/internal/oidc/store/client"
	"oidcop/internal/oidc/store/refreshtoken"
	scopestore "oidcop/internal/oidc/store/scope"
	userstore "oidcop/internal/oidc/store/user"
	"oidcop/internal/platform/metrics"
	"oidcop/pkg/platform/secretbox"
	"oidcop/pkg/platform/secrets"
)

const (
	publicClientID       = "rp-public"
	confidentialClientID = "rp-conf"
	clientSecret         = "s3cret-value"
	callbackURL          = "https://rp.example/cb"
)

// testServer runs the full router on a real listener so the issuer matches
// the URL relying-party libraries discover.
type testServer struct {
	*httptest.Server
	sessions *Sessions
	users    *userstore.InMemoryStore
	// storeErr is what the "store" health check reports.
	storeErr atomic.Pointer[error]
}

func newTestServer(t *testing.T, opts ...HandlerOption) *testServer {
	t.Helper()
	ts := httptest.NewUnstartedServer(nil)
	issuer := "http://" + ts.Listener.Addr().String()

	key, err := jwttoken.GenerateKey(2048)
	require.NoError(t, err)
	signer := jwttoken.NewJWTService(key, "e2e-kid", issuer)

	boxKey := make([]byte, 32)
	for i := range boxKey {
		boxKey[i] = byte(255 - i)
	}
	box, err := secretbox.New("jwe", boxKey)
	require.NoError(t, err)

	hash, err := secrets.Hash(clientSecret)
	require.NoError(t, err)
	public, err := models.NewClient(publicClientID, "Public RP", "", []string{callbackURL},
		[]string{"openid", "email", "profile", "offline_access"}, false, time.Now())
	require.NoError(t, err)
	confidential, err := models.NewClient(confidentialClientID, "Confidential RP", hash, []string{callbackURL},
		[]string{"openid", "email"}, true, time.Now())
	require.NoError(t, err)

	extractor, err := claims.New("uid")
	require.NoError(t, err)

	sessions := NewSessions(box)
	users := userstore.NewInMemory()
	reg := prometheus.NewRegistry()

	provider, err := oidc.NewProvider(oidc.Repositories{
		Clients:       clientstore.NewInMemory(public, confidential),
		Scopes:        scopestore.NewInMemory(),
		AuthCodes:     authcode.NewInMemory(),
		AccessTokens:  accesstoken.NewInMemory(),
		RefreshTokens: refreshtoken.NewInMemory(),
		Users:         users,
	}, oidc.Options{
		Grants:  grants.DefaultConfig(),
		Box:     box,
		Signer:  signer,
		Claims:  extractor,
		Session: sessions,
		Metrics: oidcmetrics.New(reg),
	})
	require.NoError(t, err)

	s := &testServer{Server: ts, sessions: sessions, users: users}
	health := map[string]HealthCheck{
		"store": func(context.Context) error {
			if err := s.storeErr.Load(); err != nil {
				return *err
			}
			return nil
		},
	}
	ts.Config.Handler = NewRouter(NewHandler(provider, sessions, "https://login.example/sso", opts...), RouterConfig{
		Metrics:  metrics.NewHTTP(reg),
		Gatherer: reg,
		Health:   health,
	})
	ts.Start()
	t.Cleanup(ts.Close)
	return s
}

// client does not follow redirects and presents a session for alice.
func (s *testServer) client(t *testing.T, authenticated bool) *http.Client {
	t.Helper()
	jar := &staticJar{}
	if authenticated {
		c, err := s.sessions.Cookie(models.Subject{
			ID: "alice",
			Attributes: map[string][]string{
				"uid":  {"alice"},
				"mail": {"alice@example.org"},
				"cn":   {"Alice Liddell"},
			},
		})
		require.NoError(t, err)
		jar.cookie = c
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type staticJar struct{ cookie *http.Cookie }

func (j *staticJar) SetCookies(*url.URL, []*http.Cookie) {}

func (j *staticJar) Cookies(*url.URL) []*http.Cookie {
	if j.cookie == nil {
		return nil
	}
	return []*http.Cookie{j.cookie}
}
