// Package refreshtoken persists refresh token records. Handed-out refresh
// tokens are encrypted payloads that reference these records by ID.
package refreshtoken

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"oidcop/internal/oidc/models"
	"oidcop/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]models.State
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]models.State)}
}

func (s *InMemoryStore) PersistNew(_ context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token.ID]; ok {
		return fmt.Errorf("refresh token %s: %w", token.ID, sentinel.ErrConflict)
	}
	s.tokens[token.ID] = token.State()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.tokens[id]
	if !ok {
		return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
	}
	return models.RefreshTokenFromState(state)
}

func (s *InMemoryStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	token, err := s.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return token.Revoked, nil
}

// Revoke rotates the token out. A second revoke reports ErrAlreadyUsed so two
// concurrent refreshes with the same token cannot both succeed.
func (s *InMemoryStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.tokens[id]
	if !ok {
		return fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
	}
	if used, _ := state["is_revoked"].(bool); used {
		return fmt.Errorf("refresh token %s: %w", id, sentinel.ErrAlreadyUsed)
	}
	s.tokens[id] = revoked(state)
	return nil
}

func (s *InMemoryStore) RevokeByAuthCodeID(_ context.Context, authCodeID string) error {
	if authCodeID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, state := range s.tokens {
		if state["auth_code_id"] == authCodeID {
			s.tokens[id] = revoked(state)
		}
	}
	return nil
}

// revoked returns a revoked copy. Stored states are never mutated in place.
func revoked(state models.State) models.State {
	next := maps.Clone(state)
	next["is_revoked"] = true
	return next
}
