package probe

import (
	"sync"
	"time"
)

// Cache is a per-key time-bounded memoization layer in front of expensive
// probes. Entries are process-local and never persisted.
type Cache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// NewCache builds an empty cache using the supplied clock (nil for time.Now).
func NewCache(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{now: now, entries: make(map[string]cacheEntry)}
}

// Cached returns the live value for key when younger than ttl, otherwise
// invokes fn and stores its result.
func Cached[T any](c *Cache, key string, ttl time.Duration, fn func() T) T {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Before(entry.expiresAt) {
		if value, ok := entry.value.(T); ok {
			c.mu.Unlock()
			return value
		}
	}
	c.mu.Unlock()

	value := fn()

	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return value
}

// Invalidate drops one key so the next lookup re-executes its probe.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
