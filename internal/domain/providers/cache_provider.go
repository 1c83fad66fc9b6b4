package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider is the shared byte cache behind the photo proxy, the response
// cache and the submission rate limit.
type CacheProvider interface {
	// Get returns ErrCacheMiss for absent keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value; expirationSeconds <= 0 keeps it until deleted.
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	Delete(ctx context.Context, key string) error

	// Increment bumps a fixed-window counter. The window starts with the first
	// increment; the result is the new count and the time left in the window.
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}
