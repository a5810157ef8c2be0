package rules

import (
	"context"
	"strings"

	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/oidc/pkce"
)

type CodeChallengeRule struct{ base }

func (CodeChallengeRule) Key() Key { return KeyCodeChallenge }

func (CodeChallengeRule) CheckRule(_ context.Context, req *Request, bag *ResultBag, data Data) (*Result, error) {
	challenge := req.Param("code_challenge", data.AllowedMethods)
	if challenge == "" {
		return nil, redirectable(oautherr.InvalidRequest("code_challenge", "Code challenge must be provided for public clients"), bag, data)
	}
	if !pkce.ValidFormat(challenge) {
		return nil, redirectable(oautherr.InvalidRequest("code_challenge",
			"Code challenge must follow the specifications of RFC-7636"), bag, data)
	}
	return NewResult(KeyCodeChallenge, challenge), nil
}

// CodeChallengeMethodRule defaults to plain and accepts only registered verifiers.
type CodeChallengeMethodRule struct {
	base
	verifiers *pkce.Registry
}

func NewCodeChallengeMethodRule(verifiers *pkce.Registry) *CodeChallengeMethodRule {
	return &CodeChallengeMethodRule{verifiers: verifiers}
}

func (*CodeChallengeMethodRule) Key() Key { return KeyCodeChallengeMethod }

func (r *CodeChallengeMethodRule) CheckRule(_ context.Context, req *Request, bag *ResultBag, data Data) (*Result, error) {
	method := req.Param("code_challenge_method", data.AllowedMethods)
	if method == "" {
		method = pkce.MethodPlain
	}
	if _, ok := r.verifiers.Get(method); !ok {
		return nil, redirectable(oautherr.InvalidRequest("code_challenge_method",
			"Code challenge method must be one of "+strings.Join(r.verifiers.Methods(), ", ")), bag, data)
	}
	return NewResult(KeyCodeChallengeMethod, method), nil
}
