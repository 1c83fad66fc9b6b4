package providers

import (
	"context"
	"errors"
)

var (
	// ErrNoGeocodeMatch is returned when an address resolves to no coordinates.
	ErrNoGeocodeMatch = errors.New("no geocoding match for address")

	// ErrProviderUnavailable marks calls refused without reaching the maps
	// service, for example while a circuit breaker is open.
	ErrProviderUnavailable = errors.New("geolocation provider unavailable")
)

// GeolocationProvider defines the interface for geocoding and place search services
type GeolocationProvider interface {
	// Geocode converts an address to its best-match coordinates
	Geocode(ctx context.Context, address string) (*Coordinates, error)

	// NearbySearch finds places around a point. An empty result is not an error.
	NearbySearch(ctx context.Context, query NearbyQuery) ([]*Place, error)
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NearbyQuery describes a radius search around a center point.
type NearbyQuery struct {
	Center       Coordinates
	RadiusMeters int
	PlaceType    string
	Keyword      string
}

// Place represents a place returned by a provider search
type Place struct {
	ID               string
	Name             string
	Address          string
	Coordinates      *Coordinates
	Rating           float64
	UserRatingsTotal int
	OpenNow          *bool
	PhotoReference   string
}
