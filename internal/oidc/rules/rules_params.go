package rules

import (
	"context"
	"slices"

	"oidcop/internal/oidc/oautherr"
)

// StateRule passes the client's correlation value through untouched.
type StateRule struct{ base }

func (StateRule) Key() Key { return KeyState }

func (StateRule) CheckRule(_ context.Context, req *Request, _ *ResultBag, data Data) (*Result, error) {
	return NewResult(KeyState, req.Param("state", data.AllowedMethods)), nil
}

type UILocalesRule struct{ base }

func (UILocalesRule) Key() Key { return KeyUILocales }

func (UILocalesRule) CheckRule(_ context.Context, req *Request, _ *ResultBag, data Data) (*Result, error) {
	return NewResult(KeyUILocales, req.Param("ui_locales", data.AllowedMethods)), nil
}

// RequestParameterRule rejects request objects, which this server does not resolve.
type RequestParameterRule struct{ base }

func (RequestParameterRule) Key() Key { return KeyRequestParameter }

func (RequestParameterRule) CheckRule(_ context.Context, req *Request, bag *ResultBag, data Data) (*Result, error) {
	if req.Param("request", data.AllowedMethods) == "" {
		return nil, nil
	}
	return nil, redirectable(oautherr.RequestNotSupported("Request object parameter is not supported"), bag, data)
}

type ResponseTypeRule struct{ base }

func (ResponseTypeRule) Key() Key { return KeyResponseType }

func (ResponseTypeRule) CheckRule(_ context.Context, req *Request, bag *ResultBag, data Data) (*Result, error) {
	rt := req.Param("response_type", data.AllowedMethods)
	if rt == "" {
		return nil, redirectable(oautherr.InvalidRequest("response_type", ""), bag, data)
	}
	if len(data.ResponseTypes) > 0 && !slices.Contains(data.ResponseTypes, rt) {
		return nil, redirectable(oautherr.UnsupportedResponseType(rt), bag, data)
	}
	return NewResult(KeyResponseType, rt), nil
}

// RequiredNonceRule applies to flows that return ID tokens straight from the
// authorization endpoint.
type RequiredNonceRule struct{ base }

func (RequiredNonceRule) Key() Key { return KeyRequiredNonce }

func (RequiredNonceRule) CheckRule(_ context.Context, req *Request, bag *ResultBag, data Data) (*Result, error) {
	nonce := req.Param("nonce", data.AllowedMethods)
	if nonce == "" {
		return nil, redirectable(oautherr.InvalidRequest("nonce", "Nonce is required for this response type"), bag, data)
	}
	return NewResult(KeyRequiredNonce, nonce), nil
}
