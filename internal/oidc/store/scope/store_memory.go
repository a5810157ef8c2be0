// Package scope holds the scope registry.
package scope

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"oidcop/internal/oidc/models"
	dErrors "oidcop/pkg/domain-errors"
	"oidcop/pkg/platform/sentinel"
)

// InMemoryStore is seeded with the protected OIDC scopes and offline_access.
// Deployments add their own scopes with Register.
type InMemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]models.Scope
}

func NewInMemory() *InMemoryStore {
	s := &InMemoryStore{scopes: make(map[string]models.Scope)}
	for _, id := range models.ProtectedScopes() {
		s.scopes[id] = models.Scope{Identifier: id}
	}
	s.scopes[models.ScopeOfflineAccess] = models.Scope{
		Identifier:  models.ScopeOfflineAccess,
		Description: "Keep access while you are away",
	}
	return s
}

// Register adds or replaces a scope. Protected scopes cannot be redefined.
func (s *InMemoryStore) Register(scopes ...models.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range scopes {
		if sc.Identifier == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "scope identifier cannot be empty")
		}
		if models.IsProtectedScope(sc.Identifier) {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "scope %q is protected and cannot be redefined", sc.Identifier)
		}
		s.scopes[sc.Identifier] = sc
	}
	return nil
}

func (s *InMemoryStore) FindByIdentifier(_ context.Context, id string) (*models.Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scopes[id]
	if !ok {
		return nil, fmt.Errorf("scope %q not found: %w", id, sentinel.ErrNotFound)
	}
	sc.Claims = slices.Clone(sc.Claims)
	return &sc, nil
}

// FinalizeScopes keeps only the scopes registered for the client.
func (s *InMemoryStore) FinalizeScopes(_ context.Context, scopes []models.Scope, _ models.GrantType, client *models.Client, _ string) ([]models.Scope, error) {
	out := make([]models.Scope, 0, len(scopes))
	for _, sc := range scopes {
		if client.HasScope(sc.Identifier) {
			out = append(out, sc)
		}
	}
	return out, nil
}
