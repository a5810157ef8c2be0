package client

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/ports"
)

// Cached fronts a ClientRepository with a short-lived in-process cache.
// Concurrent misses for the same ID share one lookup. Errors are not cached.
type Cached struct {
	next  ports.ClientRepository
	cache *gocache.Cache
	sf    singleflight.Group
}

func NewCached(next ports.ClientRepository, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *Cached) FindByID(ctx context.Context, id string) (*models.Client, error) {
	if v, ok := c.cache.Get(id); ok {
		return clone(v.(*models.Client)), nil
	}
	v, err, _ := c.sf.Do(id, func() (any, error) {
		found, err := c.next.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(id, found)
		return found, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.(*models.Client)), nil
}

// Invalidate drops id so the next lookup reaches the underlying store.
func (c *Cached) Invalidate(id string) {
	c.cache.Delete(id)
}
