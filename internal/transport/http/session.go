package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"oidcop/internal/oidc/models"
	"oidcop/pkg/platform/secretbox"
)

const (
	defaultSessionCookie = "oidcop_session"
	sessionType          = "session"
)

// sessionCookie is the sealed hand-off from the login service: an
// authenticated subject and its attributes.
type sessionCookie struct {
	Type        string              `json:"typ"`
	Subject     string              `json:"sub"`
	Attributes  map[string][]string `json:"attrs,omitempty"`
	AuthInstant int64               `json:"auth_instant"`
	ACR         string              `json:"acr,omitempty"`
	Expires     int64               `json:"exp"`
}

// Sessions reads the authenticated subject from a sealed cookie and serves it
// to the core through the request context.
type Sessions struct {
	box    secretbox.Box
	name   string
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

type SessionOption func(*Sessions)

func WithCookieName(name string) SessionOption { return func(s *Sessions) { s.name = name } }

func WithSessionTTL(ttl time.Duration) SessionOption { return func(s *Sessions) { s.ttl = ttl } }

// WithSecureCookie sets the Secure attribute, required outside local development.
func WithSecureCookie(secure bool) SessionOption { return func(s *Sessions) { s.secure = secure } }

func WithSessionClock(now func() time.Time) SessionOption { return func(s *Sessions) { s.now = now } }

func NewSessions(box secretbox.Box, opts ...SessionOption) *Sessions {
	s := &Sessions{box: box, name: defaultSessionCookie, ttl: 8 * time.Hour, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sessionState is the per-request view of the cookie.
type sessionState struct {
	subject *models.Subject
	w       http.ResponseWriter
}

type sessionKey struct{}

// Middleware decodes the session cookie once per request. A missing, expired
// or tampered cookie leaves the request unauthenticated.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := &sessionState{w: w}
		if c, err := r.Cookie(s.name); err == nil {
			st.subject, _ = s.Decode(c.Value)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, st)))
	})
}

// Cookie seals subject into a session cookie.
func (s *Sessions) Cookie(subject models.Subject) (*http.Cookie, error) {
	if subject.ID == "" {
		return nil, errors.New("session subject cannot be empty")
	}
	authInstant := subject.AuthInstant
	if authInstant.IsZero() {
		authInstant = s.now()
	}
	expires := s.now().Add(s.ttl)
	raw, err := json.Marshal(sessionCookie{
		Type:        sessionType,
		Subject:     subject.ID,
		Attributes:  subject.Attributes,
		AuthInstant: authInstant.Unix(),
		ACR:         subject.ACR,
		Expires:     expires.Unix(),
	})
	if err != nil {
		return nil, err
	}
	sealed, err := s.box.Seal(raw)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     s.name,
		Value:    sealed,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Decode opens a session cookie value.
func (s *Sessions) Decode(value string) (*models.Subject, error) {
	raw, err := s.box.Open(value)
	if err != nil {
		return nil, err
	}
	var c sessionCookie
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.Type != sessionType || c.Subject == "" {
		return nil, errors.New("not a session cookie")
	}
	if s.now().Unix() > c.Expires {
		return nil, errors.New("session expired")
	}
	return &models.Subject{
		ID:          c.Subject,
		Attributes:  c.Attributes,
		AuthInstant: time.Unix(c.AuthInstant, 0),
		ACR:         c.ACR,
	}, nil
}

func state(ctx context.Context) *sessionState {
	st, _ := ctx.Value(sessionKey{}).(*sessionState)
	return st
}

func (s *Sessions) Subject(ctx context.Context) (*models.Subject, bool) {
	st := state(ctx)
	if st == nil || st.subject == nil {
		return nil, false
	}
	return st.subject, true
}

func (s *Sessions) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.Subject(ctx)
	return ok
}

func (s *Sessions) AuthInstant(ctx context.Context) (time.Time, bool) {
	sub, ok := s.Subject(ctx)
	if !ok {
		return time.Time{}, false
	}
	return sub.AuthInstant, true
}

// Reauthenticate forgets the subject for the rest of the request and expires
// the cookie, so the login service runs again.
func (s *Sessions) Reauthenticate(ctx context.Context) error {
	st := state(ctx)
	if st == nil {
		return nil
	}
	st.subject = nil
	http.SetCookie(st.w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
