package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
)

// scriptedModel answers Generate calls from a fixed script, one step per call.
type scriptedModel struct {
	mu       sync.Mutex
	steps    []modelStep
	requests []*entities.ModelRequest
}

type modelStep struct {
	text string
	err  error
}

func newScriptedModel(steps ...modelStep) *scriptedModel {
	return &scriptedModel{steps: steps}
}

func answer(text string) modelStep { return modelStep{text: text} }

func status(code int) modelStep {
	return modelStep{err: &providers.ModelServiceError{Provider: "fake", StatusCode: code, Message: "overloaded"}}
}

func failure(err error) modelStep { return modelStep{err: err} }

func (m *scriptedModel) Name() string { return "fake" }

func (m *scriptedModel) Generate(_ context.Context, req *entities.ModelRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.steps) == 0 {
		return "", &providers.ModelServiceError{Provider: "fake", StatusCode: 500, Message: "script exhausted"}
	}
	step := m.steps[0]
	if len(m.steps) > 1 {
		m.steps = m.steps[1:]
	}
	return step.text, step.err
}

func (m *scriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// recordingSleep captures retry delays without waiting.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) Sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func (r *recordingSleep) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// MockAnalysisRepository is a testify mock of repositories.AnalysisRepository.
type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Append(ctx context.Context, record *entities.AnalysisRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAnalysisRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.AnalysisRecord, error) {
	args := m.Called(ctx, userID, limit)
	records, _ := args.Get(0).([]*entities.AnalysisRecord)
	return records, args.Error(1)
}

// MockGeolocationProvider is a testify mock of providers.GeolocationProvider.
type MockGeolocationProvider struct {
	mock.Mock
}

func (m *MockGeolocationProvider) Geocode(ctx context.Context, address string) (*providers.Coordinates, error) {
	args := m.Called(ctx, address)
	coords, _ := args.Get(0).(*providers.Coordinates)
	return coords, args.Error(1)
}

func (m *MockGeolocationProvider) NearbySearch(ctx context.Context, query providers.NearbyQuery) ([]*providers.Place, error) {
	args := m.Called(ctx, query)
	places, _ := args.Get(0).([]*providers.Place)
	return places, args.Error(1)
}

// fixedPosition always reports the same outcome.
type fixedPosition providers.PositionResult

func (p fixedPosition) CurrentPosition(context.Context) providers.PositionResult {
	return providers.PositionResult(p)
}

// stalledPosition blocks until its context is done.
type stalledPosition struct{}

func (stalledPosition) CurrentPosition(ctx context.Context) providers.PositionResult {
	<-ctx.Done()
	return providers.PositionResult{Outcome: providers.PositionUnavailable}
}
