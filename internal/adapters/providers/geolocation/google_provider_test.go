package geolocation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *mapCache) Increment(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("not supported")
}

func TestGoogleProvider_Geocode(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/geocode/json", r.URL.Path)
		assert.Equal(t, "Ikeja, Lagos", r.URL.Query().Get("address"))
		assert.Equal(t, "maps-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Ikeja","geometry":{"location":{"lat":6.6018,"lng":3.3515}}}]}`))
	}))
	defer server.Close()

	provider := NewGoogleGeolocationProviderWithOptions("maps-key", newMapCache(), server.URL, server.Client())

	coords, err := provider.Geocode(context.Background(), " Ikeja, Lagos ")
	require.NoError(t, err)
	assert.Equal(t, providers.Coordinates{Latitude: 6.6018, Longitude: 3.3515}, *coords)

	again, err := provider.Geocode(context.Background(), "ikeja, lagos")
	require.NoError(t, err)
	assert.Equal(t, *coords, *again)
	assert.Equal(t, 1, calls)
}

func TestGoogleProvider_Geocode_ZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer server.Close()

	_, err := NewGoogleGeolocationProviderWithOptions("maps-key", nil, server.URL, nil).Geocode(context.Background(), "Nowhere, XYZ")

	assert.ErrorIs(t, err, providers.ErrNoGeocodeMatch)
}

func TestGoogleProvider_Geocode_Denied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`))
	}))
	defer server.Close()

	_, err := NewGoogleGeolocationProviderWithOptions("maps-key", nil, server.URL, nil).Geocode(context.Background(), "Lagos")

	require.Error(t, err)
	assert.False(t, errors.Is(err, providers.ErrNoGeocodeMatch))
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestGoogleProvider_MissingKey(t *testing.T) {
	_, err := NewGoogleGeolocationProviderWithOptions("", nil, "http://127.0.0.1:1", nil).Geocode(context.Background(), "Lagos")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestGoogleProvider_NearbySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/place/nearbysearch/json", r.URL.Path)
		assert.Equal(t, "6.524400,3.379200", q.Get("location"))
		assert.Equal(t, "5000", q.Get("radius"))
		assert.Equal(t, "hospital", q.Get("type"))
		assert.Equal(t, "Cardiologist hospitals", q.Get("keyword"))
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"place_id":"p1","name":"Heart Centre","vicinity":"12 Allen Ave","rating":4.6,"user_ratings_total":210,
			 "geometry":{"location":{"lat":6.6,"lng":3.35}},"opening_hours":{"open_now":true},
			 "photos":[{"photo_reference":"ref-1"}]},
			{"place_id":"p2","name":"Clinic"}
		]}`))
	}))
	defer server.Close()

	places, err := NewGoogleGeolocationProviderWithOptions("maps-key", nil, server.URL, nil).NearbySearch(context.Background(), providers.NearbyQuery{
		Center:       providers.Coordinates{Latitude: 6.5244, Longitude: 3.3792},
		RadiusMeters: 5000,
		PlaceType:    "hospital",
		Keyword:      "Cardiologist hospitals",
	})

	require.NoError(t, err)
	require.Len(t, places, 2)
	first := places[0]
	assert.Equal(t, "p1", first.ID)
	assert.Equal(t, "12 Allen Ave", first.Address)
	assert.Equal(t, 4.6, first.Rating)
	assert.Equal(t, 210, first.UserRatingsTotal)
	require.NotNil(t, first.OpenNow)
	assert.True(t, *first.OpenNow)
	assert.Equal(t, "ref-1", first.PhotoReference)
	require.NotNil(t, first.Coordinates)
	assert.Nil(t, places[1].Coordinates)
	assert.Nil(t, places[1].OpenNow)
}

func TestGoogleProvider_NearbySearch_ZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer server.Close()

	places, err := NewGoogleGeolocationProviderWithOptions("maps-key", nil, server.URL, nil).NearbySearch(context.Background(), providers.NearbyQuery{})

	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestGoogleProvider_HTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewGoogleGeolocationProviderWithOptions("maps-key", nil, server.URL, nil).NearbySearch(context.Background(), providers.NearbyQuery{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
