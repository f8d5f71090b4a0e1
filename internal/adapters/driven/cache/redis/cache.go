// Package redis caches patient search outcomes in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// Ensure Cache implements the interface.
var _ driven.MatchCache = (*Cache)(nil)

const keyPrefix = "ccdarank:match:"

// Cache stores one JSON entry per demographics key.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

type entry struct {
	Hit *domain.SearchHit `json:"hit"`
}

// New connects to addr and checks the connection.
func New(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: no redis address", domain.ErrInvalidConfig)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	logger.Debug("redis match cache at %s", addr)
	return &Cache{client: client, ttl: ttl}, nil
}

// Close closes the connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Get returns the cached outcome for key.
func (c *Cache) Get(ctx context.Context, key string) (*domain.SearchHit, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading match cache: %w", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("decoding match cache entry: %w", err)
	}
	return e.Hit, true, nil
}

// Set caches hit, or a "no match" when hit is nil.
func (c *Cache) Set(ctx context.Context, key string, hit *domain.SearchHit) error {
	data, err := json.Marshal(entry{Hit: hit})
	if err != nil {
		return fmt.Errorf("encoding match cache entry: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing match cache: %w", err)
	}
	return nil
}
