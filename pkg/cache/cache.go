// Package cache defines the key-value cache used by tax plugins for
// response and tax-code caching.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is not present in the cache.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a byte-oriented key-value store with per-entry TTL. Values are
// JSON blobs owned by the caller; a zero TTL means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
