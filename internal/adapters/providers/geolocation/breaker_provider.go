package geolocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// BreakerProvider guards a GeolocationProvider with a circuit breaker. While
// the breaker is open calls fail immediately with an error matching both
// providers.ErrProviderUnavailable and gobreaker.ErrOpenState.
type BreakerProvider struct {
	next    providers.GeolocationProvider
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps next with a circuit breaker that opens after five
// consecutive failures and probes again after thirty seconds.
func NewBreakerProvider(name string, next providers.GeolocationProvider) *BreakerProvider {
	return NewBreakerProviderWithSettings(next, gobreaker.Settings{
		Name:    name,
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("geolocation circuit breaker state changed")
		},
	})
}

// NewBreakerProviderWithSettings wraps next with a breaker built from settings.
func NewBreakerProviderWithSettings(next providers.GeolocationProvider, settings gobreaker.Settings) *BreakerProvider {
	return &BreakerProvider{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Geocode delegates to the wrapped provider. An address without a match is a
// successful call as far as the breaker is concerned.
func (b *BreakerProvider) Geocode(ctx context.Context, address string) (*providers.Coordinates, error) {
	noMatch := false
	result, err := b.breaker.Execute(func() (interface{}, error) {
		coords, err := b.next.Geocode(ctx, address)
		if errors.Is(err, providers.ErrNoGeocodeMatch) {
			noMatch = true
			return nil, nil
		}
		return coords, err
	})
	if err != nil {
		return nil, refused(err)
	}
	if noMatch {
		return nil, providers.ErrNoGeocodeMatch
	}
	coords, _ := result.(*providers.Coordinates)
	return coords, nil
}

// NearbySearch delegates to the wrapped provider.
func (b *BreakerProvider) NearbySearch(ctx context.Context, query providers.NearbyQuery) ([]*providers.Place, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.NearbySearch(ctx, query)
	})
	if err != nil {
		return nil, refused(err)
	}
	places, _ := result.([]*providers.Place)
	return places, nil
}

// State reports the breaker state.
func (b *BreakerProvider) State() gobreaker.State {
	return b.breaker.State()
}

// Check fails while the breaker is open. It backs the /health maps probe and
// never calls the maps service.
func (b *BreakerProvider) Check(context.Context) error {
	if state := b.breaker.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("%w: circuit %s", providers.ErrProviderUnavailable, state)
	}
	return nil
}

func refused(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", providers.ErrProviderUnavailable, err)
	}
	return err
}
