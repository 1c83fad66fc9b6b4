package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

// RedisAdapter is the CacheProvider shared by every API instance.
type RedisAdapter struct {
	client redis.Cmdable
}

// NewRedisAdapter wraps a go-redis client, usually clients/redis.Client.Client().
func NewRedisAdapter(client redis.Cmdable) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// Get retrieves a value from cache
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := a.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, providers.ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Set stores a value. Redis treats a zero expiration as no expiry.
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	var ttl time.Duration
	if expirationSeconds > 0 {
		ttl = time.Duration(expirationSeconds) * time.Second
	}
	if err := a.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes a value from cache
func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Increment runs INCR, EXPIRE NX and PTTL in one transaction so concurrent
// instances share a single window per key.
func (a *RedisAdapter) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr %s: %w", key, err)
	}

	remaining := pttl.Val()
	if remaining <= 0 {
		remaining = window
	}
	return incr.Val(), remaining, nil
}
