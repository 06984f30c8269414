package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
)

const memoryCleanupInterval = 10 * time.Minute

// MemoryAdapter implements CacheProvider in process memory. It stands in for
// Redis on single-instance deployments so geocoding results are still reused.
type MemoryAdapter struct {
	store *gocache.Cache
}

// NewMemoryAdapter creates an empty in-process cache.
func NewMemoryAdapter() providers.CacheProvider {
	return &MemoryAdapter{store: gocache.New(gocache.NoExpiration, memoryCleanupInterval)}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := a.store.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}
	data := v.([]byte)
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Set stores a copy of value; a non-positive ttl keeps the key forever.
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	data := make([]byte, len(value))
	copy(data, value)
	a.store.Set(key, data, ttl)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.store.Delete(key)
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(_ context.Context, key string) (bool, error) {
	_, ok := a.store.Get(key)
	return ok, nil
}
