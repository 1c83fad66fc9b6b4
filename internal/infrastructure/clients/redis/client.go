package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/symptomchecker/backend/pkg/config"
)

const (
	dialTimeout = 3 * time.Second
	ioTimeout   = 2 * time.Second
)

// Client owns the connection pool shared by the response cache, the
// submission rate limit and session event pub/sub.
type Client struct {
	client *redis.Client
}

// NewClient connects and pings once. The API treats an error as "run without
// Redis" rather than a fatal condition.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", cfg.RedisAddr(), err)
	}

	return &Client{client: client}, nil
}

// Wrap adopts an already configured go-redis client without pinging it.
func Wrap(client *redis.Client) *Client {
	return &Client{client: client}
}

// Client returns the underlying go-redis client
func (c *Client) Client() *redis.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Ping backs the /health redis probe.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
