// Package memory caches patient search outcomes in process.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.MatchCache = (*Cache)(nil)

// Cache is a TTL cache backed by go-cache. A zero TTL never expires.
type Cache struct {
	items *gocache.Cache
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	expiry := ttl
	if expiry <= 0 {
		expiry = gocache.NoExpiration
	}
	cleanup := 10 * time.Minute
	if ttl > 0 && ttl < cleanup {
		cleanup = ttl
	}
	return &Cache{items: gocache.New(expiry, cleanup)}
}

// Get returns the cached outcome for key.
func (c *Cache) Get(_ context.Context, key string) (*domain.SearchHit, bool, error) {
	v, ok := c.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	hit, _ := v.(*domain.SearchHit)
	if hit == nil {
		return nil, true, nil
	}
	clone := *hit
	return &clone, true, nil
}

// Set caches hit, or a "no match" when hit is nil.
func (c *Cache) Set(_ context.Context, key string, hit *domain.SearchHit) error {
	var stored *domain.SearchHit
	if hit != nil {
		clone := *hit
		stored = &clone
	}
	c.items.SetDefault(key, stored)
	return nil
}

// Len returns the number of cached entries, expired ones included until
// the next cleanup.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}
