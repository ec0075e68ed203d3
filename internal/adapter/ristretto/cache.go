// Package ristretto implements the cache port using dgraph-io/ristretto as an
// in-process cache.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache wraps a ristretto cache. Every entry costs 1, so maxItems bounds the
// number of cached values.
type Cache[V any] struct {
	c *ristretto.Cache[string, V]
}

// New creates a ristretto-backed cache holding at most maxItems values.
func New[V any](maxItems int64) (*Cache[V], error) {
	if maxItems <= 0 {
		maxItems = 1
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache[V]{c: c}, nil
}

// Get retrieves a value from the cache.
func (c *Cache[V]) Get(_ context.Context, key string) (V, bool, error) {
	val, found := c.c.Get(key)
	return val, found, nil
}

// Set stores a value with the given TTL. The value is visible to Get once Set
// returns.
func (c *Cache[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	c.c.SetWithTTL(key, value, 1, ttl)
	c.c.Wait()
	return nil
}

// Delete removes a value from the cache.
func (c *Cache[V]) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Close shuts down the cache and releases resources.
func (c *Cache[V]) Close() {
	c.c.Close()
}
