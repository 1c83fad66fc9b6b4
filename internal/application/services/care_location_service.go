package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/symptomchecker/backend/pkg/errors"
)

// Search parameters for the two lookup strategies.
const (
	CarePlaceType         = "hospital"
	DeviceSearchRadius    = 5000
	DeviceResultLimit     = 4
	AddressSearchRadius   = 10000
	AddressResultLimit    = 6
	DefaultDeviceTimeout  = 10 * time.Second
	deviceLocationLabel   = "your location"
	defaultSearchKeyword  = "hospitals"
	searchKeywordTemplate = "%s hospitals"
)

var positionErrorTypes = map[providers.PositionOutcome]apperrors.ErrorType{
	providers.PositionPermissionDenied: apperrors.ErrorTypeLocationPermissionDenied,
	providers.PositionUnavailable:      apperrors.ErrorTypeLocationUnavailable,
	providers.PositionTimedOut:         apperrors.ErrorTypeLocationTimeout,
}

// CareLocationService finds care providers near the user.
type CareLocationService struct {
	geo           providers.GeolocationProvider
	deviceTimeout time.Duration
}

// NewCareLocationService creates a new care location service.
func NewCareLocationService(geo providers.GeolocationProvider, deviceTimeout time.Duration) *CareLocationService {
	if deviceTimeout <= 0 {
		deviceTimeout = DefaultDeviceTimeout
	}
	return &CareLocationService{geo: geo, deviceTimeout: deviceTimeout}
}

// FromDevicePosition searches around the device position. The result is never
// empty: failures come back as one explanatory candidate.
func (s *CareLocationService) FromDevicePosition(ctx context.Context, positioner providers.PositionProvider, specialist string) []entities.CareCandidate {
	position := s.awaitPosition(ctx, positioner)
	if position.Outcome != providers.PositionAcquired {
		observability.LoggerFromContext(ctx).Info().
			Str("outcome", position.Outcome.String()).
			Msg("device position not available")
		return FallbackCareCandidates(positionErrorTypes[position.Outcome], "")
	}
	return s.search(ctx, position.Coordinates, DeviceSearchRadius, DeviceResultLimit, specialist, deviceLocationLabel)
}

// FromAddress geocodes a typed address and searches around it. Blank input is
// the only error; every other failure is an explanatory candidate.
func (s *CareLocationService) FromAddress(ctx context.Context, address, specialist string) ([]entities.CareCandidate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperrors.NewValidationError("address is required")
	}
	if s.geo == nil {
		return FallbackCareCandidates(apperrors.ErrorTypeExternal, "location search is not configured"), nil
	}

	center, err := s.geo.Geocode(ctx, address)
	if err != nil {
		if errors.Is(err, providers.ErrNoGeocodeMatch) {
			return FallbackCareCandidates(apperrors.ErrorTypeLocationNotFound, address), nil
		}
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("geocoding failed")
		return FallbackCareCandidates(apperrors.ErrorTypeExternal, "unable to look up that address"), nil
	}
	if center == nil {
		return FallbackCareCandidates(apperrors.ErrorTypeLocationNotFound, address), nil
	}

	return s.search(ctx, *center, AddressSearchRadius, AddressResultLimit, specialist, address), nil
}

// awaitPosition bounds the position request by the device timeout.
func (s *CareLocationService) awaitPosition(ctx context.Context, positioner providers.PositionProvider) providers.PositionResult {
	if positioner == nil {
		return providers.PositionResult{Outcome: providers.PositionUnavailable}
	}

	ctx, cancel := context.WithTimeout(ctx, s.deviceTimeout)
	defer cancel()

	done := make(chan providers.PositionResult, 1)
	go func() {
		done <- positioner.CurrentPosition(ctx)
	}()

	select {
	case result := <-done:
		return result
	case <-ctx.Done():
		return providers.PositionResult{Outcome: providers.PositionTimedOut}
	}
}

func (s *CareLocationService) search(ctx context.Context, center providers.Coordinates, radius, limit int, specialist, near string) []entities.CareCandidate {
	if s.geo == nil {
		return FallbackCareCandidates(apperrors.ErrorTypeExternal, "location search is not configured")
	}

	places, err := s.geo.NearbySearch(ctx, providers.NearbyQuery{
		Center:       center,
		RadiusMeters: radius,
		PlaceType:    CarePlaceType,
		Keyword:      SearchKeyword(specialist),
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Int("radius", radius).Msg("nearby care search failed")
		return FallbackCareCandidates(apperrors.ErrorTypeExternal, "unable to search for nearby hospitals")
	}
	if len(places) == 0 {
		return FallbackCareCandidates(apperrors.ErrorTypeNotFound, near)
	}

	ranked := RankPlaces(places)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	candidates := make([]entities.CareCandidate, 0, len(ranked))
	for _, place := range ranked {
		candidates = append(candidates, toCareCandidate(place))
	}
	return candidates
}

// SearchKeyword derives the provider search keyword from a specialist hint.
func SearchKeyword(specialist string) string {
	specialist = strings.TrimSpace(specialist)
	if specialist == "" {
		return defaultSearchKeyword
	}
	return fmt.Sprintf(searchKeywordTemplate, specialist)
}

// RankPlaces orders places by rating, then by number of ratings, both descending.
func RankPlaces(places []*providers.Place) []*providers.Place {
	ranked := make([]*providers.Place, 0, len(places))
	for _, p := range places {
		if p != nil {
			ranked = append(ranked, p)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		return ranked[i].UserRatingsTotal > ranked[j].UserRatingsTotal
	})
	return ranked
}

func toCareCandidate(place *providers.Place) entities.CareCandidate {
	candidate := entities.CareCandidate{
		Name:             place.Name,
		Address:          place.Address,
		Rating:           place.Rating,
		UserRatingsTotal: place.UserRatingsTotal,
		OpenNow:          place.OpenNow,
		ImageRef:         place.PhotoReference,
		ProviderID:       place.ID,
	}
	if place.Coordinates != nil {
		candidate.Location = &entities.GeoPoint{Lat: place.Coordinates.Latitude, Lng: place.Coordinates.Longitude}
	}
	return candidate
}
