package geolocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

// Geolocation error codes a client can report instead of coordinates.
const (
	GeoErrorPermissionDenied    = "permission_denied"
	GeoErrorPositionUnavailable = "position_unavailable"
	GeoErrorTimeout             = "timeout"
)

var reportedOutcomes = map[string]providers.PositionOutcome{
	GeoErrorPermissionDenied:    providers.PositionPermissionDenied,
	GeoErrorPositionUnavailable: providers.PositionUnavailable,
	GeoErrorTimeout:             providers.PositionTimedOut,
}

// ReportedPosition is a PositionProvider for a position obtained elsewhere,
// such as by a browser or passed on the command line.
type ReportedPosition struct {
	result providers.PositionResult
}

// NewReportedPosition builds a position from either coordinates or a
// geolocation error code. Exactly one of them must be given.
func NewReportedPosition(lat, lng *float64, geoError string) (*ReportedPosition, error) {
	geoError = strings.ToLower(strings.TrimSpace(geoError))

	if geoError != "" {
		outcome, ok := reportedOutcomes[geoError]
		if !ok {
			return nil, fmt.Errorf("unknown geolocation error %q", geoError)
		}
		return &ReportedPosition{result: providers.PositionResult{Outcome: outcome}}, nil
	}

	if lat == nil || lng == nil {
		return nil, fmt.Errorf("lat and lng are required")
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return nil, fmt.Errorf("coordinates out of range")
	}
	return &ReportedPosition{result: providers.PositionResult{
		Outcome:     providers.PositionAcquired,
		Coordinates: providers.Coordinates{Latitude: *lat, Longitude: *lng},
	}}, nil
}

// CurrentPosition returns the reported position.
func (p *ReportedPosition) CurrentPosition(ctx context.Context) providers.PositionResult {
	if ctx.Err() != nil {
		return providers.PositionResult{Outcome: providers.PositionTimedOut}
	}
	return p.result
}
