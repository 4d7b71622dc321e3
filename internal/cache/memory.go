package cache

import (
	"time"

	"github.com/ppiankov/rootcheck/internal/model"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-memory verdict caching with expiry
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves an unexpired verdict
func (c *MemoryCache) Get(key string) (model.Verdict, bool) {
	if val, found := c.cache.Get(key); found {
		if v, ok := val.(model.Verdict); ok {
			return v, true
		}
	}
	return model.Verdict{}, false
}

// Set stores a verdict; ttl 0 uses the cache default
func (c *MemoryCache) Set(key string, verdict model.Verdict, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, verdict, ttl)
}

// Delete removes a verdict
func (c *MemoryCache) Delete(key string) {
	c.cache.Delete(key)
}

// Clear removes all verdicts
func (c *MemoryCache) Clear() {
	c.cache.Flush()
}
