// Package client resolves registered relying parties.
package client

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"oidcop/internal/oidc/models"
	"oidcop/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	clients map[string]*models.Client
}

func NewInMemory(clients ...*models.Client) *InMemoryStore {
	s := &InMemoryStore{clients: make(map[string]*models.Client, len(clients))}
	for _, c := range clients {
		s.clients[c.ID] = c
	}
	return s
}

// Save creates or replaces a client registration.
func (s *InMemoryStore) Save(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = clone(c)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
	}
	return clone(c), nil
}

func clone(c *models.Client) *models.Client {
	cp := *c
	cp.RedirectURIs = slices.Clone(c.RedirectURIs)
	cp.Scopes = slices.Clone(c.Scopes)
	return &cp
}
