package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

const memoryCleanupInterval = 10 * time.Minute

// MemoryAdapter implements CacheProvider in process memory. It stands in for
// Redis when Redis is not configured or not reachable.
type MemoryAdapter struct {
	store *gocache.Cache

	// counterMu serialises window creation in Increment.
	counterMu sync.Mutex
}

// NewMemoryAdapter creates an in-memory cache adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{store: gocache.New(gocache.NoExpiration, memoryCleanupInterval)}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := a.store.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	data, _ := value.([]byte)
	return append([]byte(nil), data...), nil
}

// Set stores a copy of value. A non-positive expiration keeps it until deleted.
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	expiration := gocache.NoExpiration
	if expirationSeconds > 0 {
		expiration = time.Duration(expirationSeconds) * time.Second
	}
	a.store.Set(key, append([]byte(nil), value...), expiration)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.store.Delete(key)
	return nil
}

// Increment bumps a counter that expires with its window.
func (a *MemoryAdapter) Increment(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	a.counterMu.Lock()
	defer a.counterMu.Unlock()

	if _, expiresAt, ok := a.store.GetWithExpiration(key); ok {
		count, err := a.store.IncrementInt64(key, 1)
		if err == nil {
			return count, time.Until(expiresAt), nil
		}
		// A byte value under the same key; start a fresh counter over it.
	}
	a.store.Set(key, int64(1), window)
	return 1, window, nil
}
