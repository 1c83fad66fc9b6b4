package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/symptomchecker/backend/pkg/config"
	"github.com/zatekoja/symptomchecker/backend/pkg/retry"
)

const (
	pingTimeout     = 5 * time.Second
	connMaxLifetime = 5 * time.Minute
)

// Client owns the connection pool behind analysis history.
type Client struct {
	db *sql.DB
}

// NewClient opens the pool and waits for the server with exponential backoff,
// bounded by ctx and policy. History is optional, so callers log the error
// and carry on without it.
func NewClient(ctx context.Context, cfg *config.DatabaseConfig, policy retry.Config) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(max(1, maxOpen/4))
	db.SetConnMaxLifetime(connMaxLifetime)

	ping := func(int) error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	}
	onRetry := func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("next_delay", nextDelay).
			Str("host", cfg.Host).
			Msg("postgres not ready, retrying")
	}
	if err := retry.DoWithLog(ctx, policy, "postgres", ping, onRetry); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres %s:%d unreachable: %w", cfg.Host, cfg.Port, err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Int("max_open_conns", maxOpen).Msg("connected to postgres")
	return &Client{db: db}, nil
}

// DB returns the pool for the goqu adapters.
func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}

// Ping backs the /health postgres probe.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
