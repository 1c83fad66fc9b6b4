package geolocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

// MockGeolocationProvider is an offline provider used when no maps key is configured.
type MockGeolocationProvider struct{}

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() *MockGeolocationProvider {
	return &MockGeolocationProvider{}
}

var mockCities = map[string]providers.Coordinates{
	"lagos":       {Latitude: 6.5244, Longitude: 3.3792},
	"abuja":       {Latitude: 9.0765, Longitude: 7.3986},
	"new york":    {Latitude: 40.7128, Longitude: -74.0060},
	"london":      {Latitude: 51.5074, Longitude: -0.1278},
	"los angeles": {Latitude: 34.0522, Longitude: -118.2437},
}

// Geocode matches the address against a handful of known city names.
func (m *MockGeolocationProvider) Geocode(ctx context.Context, address string) (*providers.Coordinates, error) {
	lower := strings.ToLower(address)
	for city, coords := range mockCities {
		if strings.Contains(lower, city) {
			c := coords
			return &c, nil
		}
	}
	return nil, providers.ErrNoGeocodeMatch
}

// NearbySearch returns three fixed hospitals around the center.
func (m *MockGeolocationProvider) NearbySearch(ctx context.Context, query providers.NearbyQuery) ([]*providers.Place, error) {
	open := true
	places := make([]*providers.Place, 0, 3)
	for i, rating := range []float64{4.2, 4.7, 3.9} {
		offset := 0.01 * float64(i+1)
		places = append(places, &providers.Place{
			ID:               fmt.Sprintf("mock-%d", i+1),
			Name:             fmt.Sprintf("Mock %s %d", placeLabel(query), i+1),
			Address:          fmt.Sprintf("%d Healthcare Blvd", 100*(i+1)),
			Coordinates:      &providers.Coordinates{Latitude: query.Center.Latitude + offset, Longitude: query.Center.Longitude - offset},
			Rating:           rating,
			UserRatingsTotal: 50 * (i + 1),
			OpenNow:          &open,
		})
	}
	return places, nil
}

func placeLabel(query providers.NearbyQuery) string {
	if query.Keyword != "" {
		return query.Keyword
	}
	return "hospital"
}
