package memory

import (
	"context"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
)

// Cache implements ports.CacheService with a size-bounded LRU.
type Cache struct {
	lru *ccache.Cache[[]byte]
}

// NewCache returns a cache holding at most maxItems entries.
func NewCache(maxItems int64) *Cache {
	if maxItems <= 0 {
		maxItems = 10000
	}
	return &Cache{
		lru: ccache.New(ccache.Configure[[]byte]().MaxSize(maxItems).ItemsToPrune(uint32(maxItems/20 + 1))),
	}
}

// Get returns the value, or domain.ErrNotFound if missing or expired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	item := c.lru.Get(key)
	if item == nil || item.Expired() {
		return nil, domain.ErrNotFound
	}
	return item.Value(), nil
}

// Set stores value for ttlSeconds. Non-positive TTLs keep the entry for a day.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	c.lru.Set(key, value, ttl)
	return nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.lru.Delete(key)
	return nil
}

// Close stops the cache's background worker.
func (c *Cache) Close() {
	c.lru.Stop()
}
