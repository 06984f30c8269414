package providers

import (
	"context"
	"time"
)

// CacheProvider is the shared second-level cache for derived artifacts such
// as correspondence tables and geocoding results.
type CacheProvider interface {
	// Get retrieves a value from cache. A missing key yields an error.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration; ttl <= 0 means no expiry
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}
