// Package user keeps the attribute sets of authenticated subjects.
package user

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"oidcop/internal/oidc/models"
	"oidcop/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]*models.User)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	return clone(u), nil
}

// Upsert replaces the attributes. The first CreatedAt is kept.
func (s *InMemoryStore) Upsert(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := clone(u)
	if prev, ok := s.users[u.ID]; ok {
		cp.CreatedAt = prev.CreatedAt
	}
	s.users[u.ID] = cp
	return nil
}

func clone(u *models.User) *models.User {
	cp := *u
	cp.Attributes = make(map[string][]string, len(u.Attributes))
	for k, v := range u.Attributes {
		cp.Attributes[k] = slices.Clone(v)
	}
	return &cp
}
