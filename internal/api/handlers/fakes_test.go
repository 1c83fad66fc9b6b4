package handlers_test

import (
	"context"
	"strings"
	"sync"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/symptomchecker/backend/pkg/errors"
)

type stubAnalysisService struct {
	mu         sync.Mutex
	calls      int
	lastUserID string
	history    []*entities.AnalysisRecord
	historyErr error
	lastLimit  int
}

func (s *stubAnalysisService) Analyze(_ context.Context, userID, symptoms string) ([]entities.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastUserID = userID
	return []entities.Prediction{{Disease: "Influenza", Confidence: 80, Severity: 2, Specialist: entities.DefaultSpecialist}}, nil
}

func (s *stubAnalysisService) History(_ context.Context, userID string, limit int) ([]*entities.AnalysisRecord, error) {
	s.lastLimit = limit
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history, nil
}

// routedModel answers suggestion prompts and interaction prompts differently.
type routedModel struct {
	suggestions  string
	interactions string
}

func (m *routedModel) Name() string { return "fake" }

func (m *routedModel) Generate(_ context.Context, req *entities.ModelRequest) (string, error) {
	if strings.HasPrefix(req.Instruction, "Suggest") {
		return m.suggestions, nil
	}
	return m.interactions, nil
}

type stubLocator struct {
	position providers.PositionResult
	address  string
}

func (l *stubLocator) FromDevicePosition(ctx context.Context, positioner providers.PositionProvider, specialist string) []entities.CareCandidate {
	l.position = positioner.CurrentPosition(ctx)
	return []entities.CareCandidate{{Name: "City Hospital", Rating: 4.5}}
}

func (l *stubLocator) FromAddress(_ context.Context, address, specialist string) ([]entities.CareCandidate, error) {
	l.address = strings.TrimSpace(address)
	if l.address == "" {
		return nil, apperrors.NewValidationError("address is required")
	}
	return []entities.CareCandidate{{Name: "General Hospital"}, {Name: "Mercy Clinic"}}, nil
}

type stubGeocoder struct {
	coords *providers.Coordinates
	err    error
}

func (g *stubGeocoder) Geocode(context.Context, string) (*providers.Coordinates, error) {
	return g.coords, g.err
}

func (g *stubGeocoder) NearbySearch(context.Context, providers.NearbyQuery) ([]*providers.Place, error) {
	return nil, nil
}
