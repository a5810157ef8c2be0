package rules

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/oidc/ports"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PromptNone    = "none"
	PromptLogin   = "login"
	PromptConsent = "consent"
)

// PromptRule handles `prompt`. Re-authentication is requested from the
// session; the login itself happens elsewhere.
type PromptRule struct {
	base
	session ports.Session
}

func NewPromptRule(session ports.Session) *PromptRule {
	return &PromptRule{session: session}
}

func (*PromptRule) Key() Key { return KeyPrompt }

func (r *PromptRule) CheckRule(ctx context.Context, req *Request, bag *ResultBag, data Data) (*Result, error) {
	prompt := strings.Fields(req.Param("prompt", data.AllowedMethods))
	if len(prompt) == 0 {
		return nil, nil
	}
	authenticated := r.session.IsAuthenticated(ctx)

	if slices.Contains(prompt, PromptNone) {
		if len(prompt) > 1 {
			return nil, redirectable(oautherr.InvalidRequest("prompt", "Prompt none cannot be combined with other values"), bag, data)
		}
		if !authenticated {
			return nil, redirectable(oautherr.LoginRequired("End-User is not authenticated"), bag, data)
		}
	}
	if slices.Contains(prompt, PromptLogin) && authenticated {
		if err := r.session.Reauthenticate(ctx); err != nil {
			return nil, redirectable(oautherr.ServerError("Re-authentication failed").WithCause(err), bag, data)
		}
	}
	return NewResult(KeyPrompt, prompt), nil
}

// MaxAgeRule enforces `max_age` against the session's authentication instant.
type MaxAgeRule struct {
	base
	session ports.Session
	now     func() time.Time
}

func NewMaxAgeRule(session ports.Session, now func() time.Time) *MaxAgeRule {
	if now == nil {
		now = time.Now
	}
	return &MaxAgeRule{session: session, now: now}
}

func (*MaxAgeRule) Key() Key { return KeyMaxAge }

func (r *MaxAgeRule) CheckRule(ctx context.Context, req *Request, bag *ResultBag, data Data) (*Result, error) {
	raw := req.Param("max_age", data.AllowedMethods)
	if raw == "" {
		return nil, nil
	}
	maxAge, err := strconv.Atoi(raw)
	if err != nil || maxAge < 0 {
		return nil, redirectable(oautherr.InvalidRequest("max_age", "max_age must be a non-negative integer"), bag, data)
	}
	if !r.session.IsAuthenticated(ctx) {
		return nil, nil
	}
	authInstant, ok := r.session.AuthInstant(ctx)
	if !ok || authInstant.Add(time.Duration(maxAge)*time.Second).Before(r.now()) {
		if err := r.session.Reauthenticate(ctx); err != nil {
			return nil, redirectable(oautherr.ServerError("Re-authentication failed").WithCause(err), bag, data)
		}
		return nil, nil
	}
	return NewResult(KeyMaxAge, authInstant), nil
}

// IDTokenHintParser verifies ID tokens previously issued by this provider.
type IDTokenHintParser interface {
	ParseIDTokenHint(token string) (*jwt.RegisteredClaims, error)
}

// IDTokenHintRule checks an optional `id_token_hint` and records its subject.
type IDTokenHintRule struct {
	base
	parser IDTokenHintParser
}

func NewIDTokenHintRule(parser IDTokenHintParser) *IDTokenHintRule {
	return &IDTokenHintRule{parser: parser}
}

func (*IDTokenHintRule) Key() Key { return KeyIDTokenHint }

func (r *IDTokenHintRule) CheckRule(_ context.Context, req *Request, bag *ResultBag, data Data) (*Result, error) {
	hint := req.Param("id_token_hint", data.AllowedMethods)
	if hint == "" {
		return nil, nil
	}
	claims, err := r.parser.ParseIDTokenHint(hint)
	if err != nil {
		return nil, redirectable(oautherr.InvalidRequest("id_token_hint", "").WithCause(err), bag, data)
	}
	return NewResult(KeyIDTokenHint, claims.Subject), nil
}
