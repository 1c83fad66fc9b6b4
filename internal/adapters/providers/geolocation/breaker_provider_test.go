package geolocation

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

type failingProvider struct {
	calls      int
	geocodeErr error
}

func (f *failingProvider) Geocode(context.Context, string) (*providers.Coordinates, error) {
	f.calls++
	return nil, f.geocodeErr
}

func (f *failingProvider) NearbySearch(context.Context, providers.NearbyQuery) ([]*providers.Place, error) {
	f.calls++
	return nil, errors.New("OVER_QUERY_LIMIT")
}

func TestBreakerProvider_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &failingProvider{}
	provider := NewBreakerProvider("places-test", next)

	for i := 0; i < breakerFailureThreshold; i++ {
		_, err := provider.NearbySearch(context.Background(), providers.NearbyQuery{})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, provider.State())

	_, err := provider.NearbySearch(context.Background(), providers.NearbyQuery{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, providers.ErrProviderUnavailable)
	assert.Equal(t, breakerFailureThreshold, next.calls)
	assert.ErrorIs(t, provider.Check(context.Background()), providers.ErrProviderUnavailable)
}

func TestBreakerProvider_NoMatchIsNotAFailure(t *testing.T) {
	next := &failingProvider{geocodeErr: providers.ErrNoGeocodeMatch}
	provider := NewBreakerProvider("geocode-test", next)

	for i := 0; i < breakerFailureThreshold+2; i++ {
		_, err := provider.Geocode(context.Background(), "Nowhere")
		assert.ErrorIs(t, err, providers.ErrNoGeocodeMatch)
	}
	assert.Equal(t, gobreaker.StateClosed, provider.State())
	assert.NoError(t, provider.Check(context.Background()))
}

func TestBreakerProvider_PassesResultsThrough(t *testing.T) {
	provider := NewBreakerProvider("mock", NewMockGeolocationProvider())

	coords, err := provider.Geocode(context.Background(), "Central Lagos")
	require.NoError(t, err)
	assert.InDelta(t, 6.5244, coords.Latitude, 1e-9)

	places, err := provider.NearbySearch(context.Background(), providers.NearbyQuery{Center: *coords})
	require.NoError(t, err)
	assert.Len(t, places, 3)
}
