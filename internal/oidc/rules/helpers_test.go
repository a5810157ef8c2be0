package rules

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"oidcop/internal/oidc/models"
	"oidcop/pkg/platform/sentinel"
)

type fakeSession struct {
	authenticated bool
	authInstant   time.Time
	reauthCalls   int
}

func (f *fakeSession) Subject(context.Context) (*models.Subject, bool) {
	if !f.authenticated {
		return nil, false
	}
	return &models.Subject{ID: "alice", AuthInstant: f.authInstant}, true
}

func (f *fakeSession) IsAuthenticated(context.Context) bool { return f.authenticated }

func (f *fakeSession) AuthInstant(context.Context) (time.Time, bool) {
	return f.authInstant, f.authenticated
}

func (f *fakeSession) Reauthenticate(context.Context) error {
	f.reauthCalls++
	f.authenticated = false
	return nil
}

type stubScopes map[string]models.Scope

func (s stubScopes) FindByIdentifier(_ context.Context, id string) (*models.Scope, error) {
	sc, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("scope %s: %w", id, sentinel.ErrNotFound)
	}
	return &sc, nil
}

func (s stubScopes) FinalizeScopes(_ context.Context, scopes []models.Scope, _ models.GrantType, _ *models.Client, _ string) ([]models.Scope, error) {
	return scopes, nil
}

func defaultScopes() stubScopes {
	out := stubScopes{}
	for _, id := range []string{"openid", "profile", "email", "offline_access"} {
		out[id] = models.Scope{Identifier: id}
	}
	return out
}

func getRequest(params map[string]string) *Request {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return NewRequest(http.MethodGet, q, nil)
}

func testClient() *models.Client {
	return &models.Client{
		ID:           "client-1",
		RedirectURIs: []string{"https://rp.example.com/cb", "https://rp.example.com/alt"},
		Scopes:       []string{"openid", "email"},
		Enabled:      true,
	}
}

// bagWith builds a bag holding the results of the rules a test pretends already ran.
func bagWith(results ...*Result) *ResultBag {
	bag := NewResultBag()
	for _, r := range results {
		bag.Add(r)
	}
	return bag
}

func errNotFound(id string) error {
	return fmt.Errorf("client %s: %w", id, sentinel.ErrNotFound)
}
