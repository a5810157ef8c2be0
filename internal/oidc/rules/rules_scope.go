package rules

import (
	"context"
	"errors"

	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/oidc/ports"
	dErrors "oidcop/pkg/domain-errors"
	"oidcop/pkg/platform/sentinel"
	"oidcop/pkg/platform/strings"
)

// ScopeRule resolves the requested scopes through the scope repository.
type ScopeRule struct {
	base
	scopes ports.ScopeRepository
}

func NewScopeRule(scopes ports.ScopeRepository) *ScopeRule {
	return &ScopeRule{scopes: scopes}
}

func (*ScopeRule) Key() Key { return KeyScope }

func (r *ScopeRule) CheckRule(ctx context.Context, req *Request, bag *ResultBag, data Data) (*Result, error) {
	if data.ScopeDelimiter == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "scope delimiter cannot be empty")
	}
	raw := req.Param("scope", data.AllowedMethods)
	if raw == "" {
		raw = data.DefaultScope
	}
	ids := strings.SplitUnique(raw, data.ScopeDelimiter)
	if len(ids) == 0 {
		return nil, redirectable(oautherr.InvalidRequest("scope", ""), bag, data)
	}

	resolved := make([]models.Scope, 0, len(ids))
	for _, id := range ids {
		scope, err := r.scopes.FindByIdentifier(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, redirectable(oautherr.InvalidScope(id), bag, data)
			}
			return nil, redirectable(oautherr.ServerError("Scope lookup failed").WithCause(err), bag, data)
		}
		resolved = append(resolved, *scope)
	}
	return NewResult(KeyScope, resolved), nil
}

// RequiredOpenIDScopeRule rejects plain OAuth 2.0 requests.
type RequiredOpenIDScopeRule struct{}

func (RequiredOpenIDScopeRule) Key() Key { return KeyRequiredOpenIDScope }

func (RequiredOpenIDScopeRule) Dependencies() []Key { return []Key{KeyScope} }

func (RequiredOpenIDScopeRule) CheckRule(_ context.Context, _ *Request, bag *ResultBag, data Data) (*Result, error) {
	scopes, err := ValueOf[[]models.Scope](bag, KeyScope)
	if err != nil {
		return nil, err
	}
	if !models.HasScope(scopes, models.ScopeOpenID) {
		return nil, redirectable(oautherr.InvalidRequest("scope", ""), bag, data)
	}
	return nil, nil
}

// ScopeOfflineAccessRule decides whether a refresh token will be issued.
type ScopeOfflineAccessRule struct{}

func (ScopeOfflineAccessRule) Key() Key { return KeyScopeOfflineAccess }

func (ScopeOfflineAccessRule) Dependencies() []Key { return []Key{KeyClientID, KeyScope} }

func (ScopeOfflineAccessRule) CheckRule(_ context.Context, _ *Request, bag *ResultBag, data Data) (*Result, error) {
	if data.AlwaysIssueRefreshToken {
		return NewResult(KeyScopeOfflineAccess, true), nil
	}
	client, err := ValueOf[*models.Client](bag, KeyClientID)
	if err != nil {
		return nil, err
	}
	scopes, err := ValueOf[[]models.Scope](bag, KeyScope)
	if err != nil {
		return nil, err
	}
	if !models.HasScope(scopes, models.ScopeOfflineAccess) {
		return NewResult(KeyScopeOfflineAccess, false), nil
	}
	if !client.HasScope(models.ScopeOfflineAccess) {
		return nil, redirectable(oautherr.InvalidRequest("scope", "Client is not allowed to request offline_access"), bag, data)
	}
	return NewResult(KeyScopeOfflineAccess, true), nil
}
