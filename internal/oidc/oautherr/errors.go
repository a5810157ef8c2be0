// Package oautherr implements the OAuth 2.0 / OpenID Connect error taxonomy.
//
// An *Error knows its wire code, HTTP status and, once the redirect URI of the
// request has been validated, where and how it may be sent back to the client.
package oautherr

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidClient           = "invalid_client"
	CodeInvalidGrant            = "invalid_grant"
	CodeInvalidScope            = "invalid_scope"
	CodeUnsupportedGrantType    = "unsupported_grant_type"
	CodeUnsupportedResponseType = "unsupported_response_type"
	CodeAccessDenied            = "access_denied"
	CodeServerError             = "server_error"
	CodeLoginRequired           = "login_required"
	CodeInteractionRequired     = "interaction_required"
	CodeRequestNotSupported     = "request_not_supported"
	CodeInvalidToken            = "invalid_token"
)

// Error is an OAuth protocol error. Values are treated as immutable; the With*
// methods return modified copies.
type Error struct {
	Code        string
	Description string
	Hint        string
	ErrorURI    string
	HTTPStatus  int

	RedirectURI string
	State       string
	UseFragment bool

	Cause error
}

func (e *Error) Error() string {
	msg := e.Code + ": " + e.Description
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) clone() *Error {
	cp := *e
	return &cp
}

func (e *Error) WithHint(hint string) *Error {
	cp := e.clone()
	cp.Hint = hint
	return cp
}

func (e *Error) WithCause(err error) *Error {
	cp := e.clone()
	cp.Cause = err
	return cp
}

// WithRedirect attaches the validated redirect target to the error.
func (e *Error) WithRedirect(redirectURI, state string, useFragment bool) *Error {
	cp := e.clone()
	cp.RedirectURI = redirectURI
	cp.State = state
	cp.UseFragment = useFragment
	return cp
}

// IsRedirectable reports whether the error can be delivered to the client by redirect.
func (e *Error) IsRedirectable() bool {
	return e.RedirectURI != ""
}

// Payload is the JSON body for the token endpoint and for non-redirectable errors.
func (e *Error) Payload() map[string]string {
	p := map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	}
	if e.Hint != "" {
		p["hint"] = e.Hint
	}
	if e.ErrorURI != "" {
		p["error_uri"] = e.ErrorURI
	}
	return p
}

// RedirectURL renders the error onto the redirect URI, in the fragment when
// UseFragment is set and in the query otherwise.
func (e *Error) RedirectURL() (string, error) {
	if !e.IsRedirectable() {
		return "", errors.New("error has no redirect uri")
	}
	params := url.Values{}
	for k, v := range e.Payload() {
		params.Set(k, v)
	}
	if e.State != "" {
		params.Set("state", e.State)
	}
	return AppendParams(e.RedirectURI, params, e.UseFragment)
}

// AppendParams adds params to the query or the fragment of base.
func AppendParams(base string, params url.Values, useFragment bool) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse redirect uri: %w", err)
	}
	if useFragment {
		frag := params.Encode()
		if u.Fragment != "" {
			frag = u.Fragment + "&" + frag
		}
		u.Fragment = ""
		u.RawFragment = ""
		return strings.TrimSuffix(u.String(), "#") + "#" + frag, nil
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}
