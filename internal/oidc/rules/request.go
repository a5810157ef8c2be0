package rules

import (
	"net/http"
	"net/url"
	"slices"
)

// Request is the parameter view of an inbound authorization or token request.
type Request struct {
	Method string
	Query  url.Values
	Form   url.Values

	basicUser     string
	basicPassword string
	hasBasicAuth  bool
}

// NewRequest builds a request from already parsed parameters.
func NewRequest(method string, query, form url.Values) *Request {
	if query == nil {
		query = url.Values{}
	}
	if form == nil {
		form = url.Values{}
	}
	return &Request{Method: method, Query: query, Form: form}
}

// FromHTTP parses r's query, body and basic-auth credentials.
func FromHTTP(r *http.Request) (*Request, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	req := NewRequest(r.Method, r.URL.Query(), r.PostForm)
	if user, pass, ok := r.BasicAuth(); ok {
		req = req.WithBasicAuth(user, pass)
	}
	return req, nil
}

// WithBasicAuth returns a copy carrying HTTP basic credentials.
func (r *Request) WithBasicAuth(user, password string) *Request {
	cp := *r
	cp.basicUser = user
	cp.basicPassword = password
	cp.hasBasicAuth = true
	return &cp
}

func (r *Request) BasicAuth() (user, password string, ok bool) {
	return r.basicUser, r.basicPassword, r.hasBasicAuth
}

// Param reads name from the query for GET and from the body for POST. Methods
// not in allowed yield an empty value.
func (r *Request) Param(name string, allowed []string) string {
	if len(allowed) > 0 && !slices.Contains(allowed, r.Method) {
		return ""
	}
	switch r.Method {
	case http.MethodGet:
		return r.Query.Get(name)
	case http.MethodPost:
		return r.Form.Get(name)
	}
	return ""
}

// PostParam reads a token-endpoint body parameter.
func (r *Request) PostParam(name string) string {
	return r.Param(name, []string{http.MethodPost})
}
