package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRPM   = 60
	defaultBurst = 5
)

// New returns a limiter allowing rpm requests per minute with the given burst.
// rpm of zero uses the default; a negative rpm disables limiting and returns nil.
func New(rpm, burst int) *rate.Limiter {
	if rpm < 0 {
		return nil
	}
	if rpm == 0 {
		rpm = defaultRPM
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
}

// Wait blocks until the limiter admits one request and reports how long it waited.
// A nil limiter never blocks.
func Wait(ctx context.Context, limiter *rate.Limiter) (time.Duration, error) {
	if limiter == nil {
		return 0, ctx.Err()
	}
	start := time.Now()
	err := limiter.Wait(ctx)
	return time.Since(start), err
}
