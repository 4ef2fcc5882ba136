package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a minimal cache abstraction. The only implementation is in-memory;
// the interface keeps call sites ready for a shared backend.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPrefix(ctx context.Context, prefix string)
}

const (
	defaultExpiration = 5 * time.Minute
	cleanupInterval   = 10 * time.Minute
)

// InMemoryCache is a Cache backed by patrickmn/go-cache.
type InMemoryCache struct {
	store *gocache.Cache
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{store: gocache.New(defaultExpiration, cleanupInterval)}
}

func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	return c.store.Get(key)
}

func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) {
	c.store.Delete(key)
}

func (c *InMemoryCache) DeleteByPrefix(ctx context.Context, prefix string) {
	for key := range c.store.Items() {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			c.store.Delete(key)
		}
	}
}
