package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shopforge/taxbridge/pkg/cache"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryCache implements cache.Cache using in-memory storage. Used in
// tests and single-process deployments without Redis.
type MemoryCache struct {
	entries map[string]*memoryEntry
	mu      sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{entries: make(map[string]*memoryEntry)}

	// Start cleanup goroutine
	go c.cleanup()

	return c
}

// Get retrieves a value from cache. Expired or missing keys return
// cache.ErrCacheMiss.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, cache.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return nil, cache.ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores a value in cache with TTL. A zero TTL keeps the entry until
// it is deleted.
func (c *MemoryCache) Set(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = entry
	return nil
}

// Delete removes a value from cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// cleanup removes expired entries from cache.
func (c *MemoryCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, entry := range c.entries {
			if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}

// Ensure MemoryCache implements cache.Cache
var _ cache.Cache = (*MemoryCache)(nil)
