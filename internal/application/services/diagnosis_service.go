package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/repositories"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/symptomchecker/backend/pkg/errors"
)

const (
	historyAppendTimeout = 5 * time.Second
	defaultHistoryLimit  = 20
	maxHistoryLimit      = 100
)

// DiagnosisService turns free-text symptoms into candidate conditions.
type DiagnosisService struct {
	caller  *ModelCaller
	prompts *PromptBuilder
	history repositories.AnalysisRepository
	now     func() time.Time

	pending sync.WaitGroup
}

// NewDiagnosisService creates a new diagnosis service. history may be nil.
func NewDiagnosisService(caller *ModelCaller, prompts *PromptBuilder, history repositories.AnalysisRepository) *DiagnosisService {
	return &DiagnosisService{
		caller:  caller,
		prompts: prompts,
		history: history,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Analyze returns between one and three predictions for the symptoms. Failures
// of the model service come back as a single explanatory prediction; the only
// error is a validation error for blank input.
func (s *DiagnosisService) Analyze(ctx context.Context, userID, symptoms string) ([]entities.Prediction, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return nil, apperrors.NewValidationError("symptoms are required")
	}

	logger := observability.LoggerFromContext(ctx)

	result, err := s.caller.Call(ctx, s.prompts.Diagnosis(symptoms), PredictionsField)
	if err != nil {
		errType := apperrors.TypeOf(err)
		logger.Error().Err(err).Str("error_type", string(errType)).Msg("symptom analysis failed")
		return []entities.Prediction{UnavailablePrediction(errType, symptoms, apperrors.Message(err))}, nil
	}

	predictions := NormalizePredictions(result.Items, symptoms)
	if len(predictions) == 0 {
		logger.Info().Int("raw_items", len(result.Items)).Msg("no usable predictions, returning general concern")
		predictions = []entities.Prediction{GeneralConcernPrediction(symptoms)}
	}

	s.appendHistory(ctx, userID, symptoms, predictions)
	return predictions, nil
}

// History returns the most recent analyses of a user.
func (s *DiagnosisService) History(ctx context.Context, userID string, limit int) ([]*entities.AnalysisRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}
	if s.history == nil {
		return nil, apperrors.NewConfigurationError("analysis history is not enabled")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.history.ListByUser(ctx, userID, limit)
}

// Wait blocks until pending history appends have finished.
func (s *DiagnosisService) Wait() {
	s.pending.Wait()
}

// appendHistory stores the analysis without holding up the caller. Failures are logged only.
func (s *DiagnosisService) appendHistory(ctx context.Context, userID, symptoms string, predictions []entities.Prediction) {
	if s.history == nil || strings.TrimSpace(userID) == "" {
		return
	}

	record := &entities.AnalysisRecord{
		ID:          uuid.New().String(),
		UserID:      userID,
		Symptoms:    symptoms,
		Predictions: append([]entities.Prediction(nil), predictions...),
		CreatedAt:   s.now(),
	}

	appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyAppendTimeout)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		if err := s.history.Append(appendCtx, record); err != nil {
			observability.LoggerFromContext(appendCtx).Error().
				Err(err).
				Str("user_id", userID).
				Str("analysis_id", record.ID).
				Msg("failed to save analysis history")
		}
	}()
}
