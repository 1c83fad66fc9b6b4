package services

import (
	"context"
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/providers"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/symptomchecker/backend/pkg/errors"
)

// MedicationService suggests medication schedules and checks them for interactions.
type MedicationService struct {
	caller   *ModelCaller
	prompts  *PromptBuilder
	sessions *SessionStore
	events   providers.EventBus
}

// NewMedicationService creates a new medication service. sessions may be nil
// when only the stateless operations are used.
func NewMedicationService(caller *ModelCaller, prompts *PromptBuilder, sessions *SessionStore) *MedicationService {
	return &MedicationService{caller: caller, prompts: prompts, sessions: sessions}
}

// WithEventBus publishes every session change to bus.
func (s *MedicationService) WithEventBus(bus providers.EventBus) *MedicationService {
	s.events = bus
	return s
}

// Suggest returns a medication schedule for a condition. A failed request
// yields a single placeholder entry explaining the failure.
func (s *MedicationService) Suggest(ctx context.Context, disease string) ([]entities.Medication, error) {
	disease = strings.TrimSpace(disease)
	if disease == "" {
		return nil, apperrors.NewValidationError("disease is required")
	}

	result, err := s.caller.Call(ctx, s.prompts.MedicationSuggestions(disease), MedicationsField)
	if err != nil {
		errType := apperrors.TypeOf(err)
		observability.LoggerFromContext(ctx).Error().Err(err).Str("error_type", string(errType)).Msg("medication suggestion failed")
		return UnavailableMedications(errType, apperrors.Message(err)), nil
	}

	meds := NormalizeMedications(result.Items)
	if len(meds) == 0 {
		return UnavailableMedications(apperrors.ErrorTypeSchemaMismatch, "no medications were suggested"), nil
	}
	return meds, nil
}

// CheckInteractions analyses a medication list. It returns nil for lists with
// fewer than two entries, and an explanatory report when the check fails.
func (s *MedicationService) CheckInteractions(ctx context.Context, meds []entities.Medication) *entities.InteractionReport {
	if len(meds) < entities.MinMedicationsForInteractionCheck {
		return nil
	}

	result, err := s.caller.Call(ctx, s.prompts.InteractionCheck(meds), InteractionsField)
	if err != nil {
		errType := apperrors.TypeOf(err)
		observability.LoggerFromContext(ctx).Error().Err(err).Str("error_type", string(errType)).Msg("interaction check failed")
		return UnavailableInteractionReport(errType, apperrors.Message(err))
	}
	return NormalizeInteractionReport(result.Document, result.Items)
}

// StartSession creates a medication session seeded with suggestions for disease.
func (s *MedicationService) StartSession(ctx context.Context, disease string) (*MedicationSession, error) {
	if s.sessions == nil {
		return nil, apperrors.NewConfigurationError("medication sessions are not enabled")
	}

	meds, err := s.Suggest(ctx, disease)
	if err != nil {
		return nil, err
	}
	// Placeholder entries are not real medications and must not be analysed.
	if len(meds) == 1 && meds[0].Name == MedicationsUnavailable {
		meds = nil
	}

	if len(meds) > entities.MaxMedicationsPerCheck {
		meds = meds[:entities.MaxMedicationsPerCheck]
	}

	session := NewMedicationSession(s, strings.TrimSpace(disease))
	session.bus = s.events
	if _, err := session.Replace(meds); err != nil {
		return nil, err
	}
	s.sessions.Put(session)
	return session, nil
}

// Session looks up an active session.
func (s *MedicationService) Session(id string) (*MedicationSession, error) {
	if s.sessions == nil {
		return nil, apperrors.NewConfigurationError("medication sessions are not enabled")
	}
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("medication session not found")
	}
	return session, nil
}
