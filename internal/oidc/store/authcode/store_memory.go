// Package authcode persists authorization code records.
package authcode

import (
	"context"
	"fmt"
	"sync"

	"oidcop/internal/oidc/models"
	"oidcop/pkg/platform/sentinel"
)

// InMemoryStore keeps codes as entity state, the same shape any other driver
// would persist, for tests and single-node development.
type InMemoryStore struct {
	mu    sync.RWMutex
	codes map[string]models.State
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{codes: make(map[string]models.State)}
}

func (s *InMemoryStore) PersistNew(_ context.Context, code *models.AuthCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[code.ID]; ok {
		return fmt.Errorf("auth code %s: %w", code.ID, sentinel.ErrConflict)
	}
	s.codes[code.ID] = code.State()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.AuthCode, error) {
	s.mu.RLock()
	state, ok := s.codes[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("auth code not found: %w", sentinel.ErrNotFound)
	}
	return models.AuthCodeFromState(state)
}

func (s *InMemoryStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	code, err := s.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return code.Revoked, nil
}

// Revoke marks the code as used. The check and the write happen under one
// lock so only the first of two concurrent redemptions wins.
func (s *InMemoryStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.codes[id]
	if !ok {
		return fmt.Errorf("auth code not found: %w", sentinel.ErrNotFound)
	}
	code, err := models.AuthCodeFromState(state)
	if err != nil {
		return err
	}
	if code.Revoked {
		return fmt.Errorf("auth code %s: %w", id, sentinel.ErrAlreadyUsed)
	}
	code.Revoke()
	s.codes[id] = code.State()
	return nil
}
