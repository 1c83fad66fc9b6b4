package retry

import (
	"context"
	"fmt"
	"time"
)

// Backoff selects how the delay grows between attempts.
type Backoff int

const (
	// BackoffExponential multiplies the previous delay by BackoffFactor.
	BackoffExponential Backoff = iota
	// BackoffLinear waits InitialDelay * attempt before the next attempt.
	BackoffLinear
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds retry configuration
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Backoff         Backoff
	BackoffFactor   float64
	MaxTotalTimeout time.Duration

	// Retryable decides whether an error is worth another attempt.
	// A nil Retryable retries every error.
	Retryable func(err error) bool

	// Sleep replaces the real timer, mostly in tests.
	Sleep SleepFunc
}

// DefaultConfig returns a default retry configuration with 1 minute max timeout
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     10,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		Backoff:         BackoffExponential,
		BackoffFactor:   2.0,
		MaxTotalTimeout: 60 * time.Second, // 1 minute max
	}
}

// LinearConfig retries up to extraAttempts more times, waiting base, 2*base, ...
func LinearConfig(extraAttempts int, base time.Duration) Config {
	return Config{
		MaxAttempts:  extraAttempts + 1,
		InitialDelay: base,
		Backoff:      BackoffLinear,
	}
}

// NonRetryable wraps an error so Do returns it without further attempts.
type NonRetryable struct {
	Err error
}

func (e *NonRetryable) Error() string { return e.Err.Error() }
func (e *NonRetryable) Unwrap() error { return e.Err }

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("max retry attempts (%d) exceeded: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Delay returns the wait before the attempt that follows the given (1-based) attempt.
func (cfg Config) Delay(attempt int) time.Duration {
	var delay time.Duration
	switch cfg.Backoff {
	case BackoffLinear:
		delay = cfg.InitialDelay * time.Duration(attempt)
	default:
		delay = cfg.InitialDelay
		factor := cfg.BackoffFactor
		if factor <= 0 {
			factor = 1
		}
		for i := 1; i < attempt; i++ {
			delay = time.Duration(float64(delay) * factor)
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				break
			}
		}
	}
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

// Do executes fn until it succeeds, returns a non-retryable error, or runs out of attempts.
func Do(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	return DoWithLog(ctx, cfg, "", fn, nil)
}

// DoWithLog executes the function with retry and logs each failed attempt that will be retried
func DoWithLog(ctx context.Context, cfg Config, serviceName string, fn func(attempt int) error, logFn func(attempt int, err error, nextDelay time.Duration)) error {
	if cfg.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxTotalTimeout)
		defer cancel()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return prefix(serviceName, fmt.Errorf("retry aborted after %d attempts: %w (last error: %v)", attempt-1, err, lastErr))
			}
			return prefix(serviceName, fmt.Errorf("retry aborted: %w", err))
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if nr, ok := err.(*NonRetryable); ok {
			return nr.Err
		}
		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := cfg.Delay(attempt)
		if logFn != nil {
			logFn(attempt, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return prefix(serviceName, fmt.Errorf("retry aborted after %d attempts: %w (last error: %v)", attempt, err, lastErr))
		}
	}

	return &ExhaustedError{Attempts: cfg.MaxAttempts, Err: lastErr}
}

// Sleep is the default SleepFunc backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func prefix(serviceName string, err error) error {
	if serviceName == "" {
		return err
	}
	return fmt.Errorf("%s: %w", serviceName, err)
}
