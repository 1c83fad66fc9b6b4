package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

const (
	// DefaultMapsBaseURL is the root of the Google Maps web service APIs.
	DefaultMapsBaseURL = "https://maps.googleapis.com/maps/api"

	geocodePath            = "/geocode/json"
	nearbySearchPath       = "/place/nearbysearch/json"
	defaultGeocodeCacheTTL = 60 * 60 * 24 * 30
	defaultHTTPTimeout     = 8 * time.Second
)

// GoogleGeolocationProvider implements the GeolocationProvider using Google Maps APIs.
type GoogleGeolocationProvider struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
}

// NewGoogleGeolocationProvider creates a new Google geolocation provider.
func NewGoogleGeolocationProvider(apiKey string, cache providers.CacheProvider) *GoogleGeolocationProvider {
	return NewGoogleGeolocationProviderWithOptions(apiKey, cache, DefaultMapsBaseURL, nil)
}

// NewGoogleGeolocationProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleGeolocationProviderWithOptions(apiKey string, cache providers.CacheProvider, baseURL string, httpClient *http.Client) *GoogleGeolocationProvider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultMapsBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GoogleGeolocationProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		cache:      cache,
		baseURL:    baseURL,
	}
}

// Geocode converts an address to the coordinates of its best match.
func (g *GoogleGeolocationProvider) Geocode(ctx context.Context, address string) (*providers.Coordinates, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, fmt.Errorf("address is required")
	}

	cacheKey := "geo:v1:geocode:" + hashKey(strings.ToLower(trimmed))
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var coords providers.Coordinates
			if err := json.Unmarshal(cached, &coords); err == nil && (coords.Latitude != 0 || coords.Longitude != 0) {
				return &coords, nil
			}
		}
	}

	var payload googleGeocodeResponse
	if err := g.get(ctx, geocodePath, url.Values{"address": []string{trimmed}}, &payload); err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, providers.ErrNoGeocodeMatch
	default:
		return nil, statusError("geocode", payload.Status, payload.ErrorMessage)
	}
	if len(payload.Results) == 0 {
		return nil, providers.ErrNoGeocodeMatch
	}

	location := payload.Results[0].Geometry.Location
	coords := providers.Coordinates{Latitude: location.Lat, Longitude: location.Lng}

	if g.cache != nil {
		if data, err := json.Marshal(coords); err == nil {
			_ = g.cache.Set(ctx, cacheKey, data, defaultGeocodeCacheTTL)
		}
	}

	return &coords, nil
}

// NearbySearch finds places of a type around a point.
func (g *GoogleGeolocationProvider) NearbySearch(ctx context.Context, query providers.NearbyQuery) ([]*providers.Place, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", query.Center.Latitude, query.Center.Longitude))
	params.Set("radius", fmt.Sprintf("%d", query.RadiusMeters))
	if query.PlaceType != "" {
		params.Set("type", query.PlaceType)
	}
	if query.Keyword != "" {
		params.Set("keyword", query.Keyword)
	}

	var payload googleNearbySearchResponse
	if err := g.get(ctx, nearbySearchPath, params, &payload); err != nil {
		return nil, fmt.Errorf("nearby search request failed: %w", err)
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []*providers.Place{}, nil
	default:
		return nil, statusError("nearby search", payload.Status, payload.ErrorMessage)
	}

	places := make([]*providers.Place, 0, len(payload.Results))
	for _, result := range payload.Results {
		places = append(places, result.toPlace())
	}
	return places, nil
}

func (g *GoogleGeolocationProvider) get(ctx context.Context, path string, params url.Values, out any) error {
	if g.apiKey == "" {
		return fmt.Errorf("google maps api key is required")
	}

	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", g.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = strings.ReplaceAll(urlErr.URL, g.apiKey, "REDACTED")
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(operation, status, message string) error {
	if message != "" {
		return fmt.Errorf("%s failed: %s - %s", operation, status, message)
	}
	return fmt.Errorf("%s failed: %s", operation, status)
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress string         `json:"formatted_address"`
	Geometry         googleGeometry `json:"geometry"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleNearbySearchResponse struct {
	Status       string               `json:"status"`
	ErrorMessage string               `json:"error_message,omitempty"`
	Results      []googleNearbyResult `json:"results"`
}

type googleNearbyResult struct {
	PlaceID          string          `json:"place_id"`
	Name             string          `json:"name"`
	Vicinity         string          `json:"vicinity"`
	Rating           float64         `json:"rating"`
	UserRatingsTotal int             `json:"user_ratings_total"`
	Geometry         *googleGeometry `json:"geometry"`
	OpeningHours     *struct {
		OpenNow *bool `json:"open_now"`
	} `json:"opening_hours"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
}

func (r googleNearbyResult) toPlace() *providers.Place {
	place := &providers.Place{
		ID:               r.PlaceID,
		Name:             r.Name,
		Address:          r.Vicinity,
		Rating:           r.Rating,
		UserRatingsTotal: r.UserRatingsTotal,
	}
	if r.Geometry != nil {
		place.Coordinates = &providers.Coordinates{Latitude: r.Geometry.Location.Lat, Longitude: r.Geometry.Location.Lng}
	}
	if r.OpeningHours != nil {
		place.OpenNow = r.OpeningHours.OpenNow
	}
	if len(r.Photos) > 0 {
		place.PhotoReference = r.Photos[0].PhotoReference
	}
	return place
}
