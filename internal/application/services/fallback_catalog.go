package services

import (
	"fmt"
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/symptomchecker/backend/pkg/errors"
)

// Fallback titles shown in place of real results.
const (
	AnalysisUnavailableTitle = "Analysis Unavailable"
	GeneralConcernTitle      = "General Health Concern"
	MedicationsUnavailable   = "Medication suggestions unavailable"
)

const (
	generalConcernConfidence = 60.0
	unavailableConfidence    = 0.0
)

// modelGuidance is the follow-up advice for each way a model call can fail.
// It is shared by the diagnosis, medication and interaction pipelines.
var modelGuidance = map[apperrors.ErrorType]string{
	apperrors.ErrorTypeConfiguration:     "The analysis service is not set up yet. Please contact the site administrator.",
	apperrors.ErrorTypeTransient:         "The analysis service is busy right now. Please try again in a few minutes.",
	apperrors.ErrorTypeMalformedResponse: "The analysis service sent an answer we could not use. Please try again.",
	apperrors.ErrorTypeParseFailure:      "The analysis service sent an answer we could not read. Please try again.",
	apperrors.ErrorTypeSchemaMismatch:    "The analysis service sent an incomplete answer. Please try again.",
	apperrors.ErrorTypeExternal:          "Please try again later or consult a healthcare professional.",
}

const defaultModelGuidance = "Please try again later or consult a healthcare professional."

func guidanceFor(errType apperrors.ErrorType) string {
	if g, ok := modelGuidance[errType]; ok {
		return g
	}
	return defaultModelGuidance
}

func errorSentence(reason, guidance string) string {
	reason = strings.TrimRight(strings.TrimSpace(reason), ".")
	if reason == "" {
		return guidance
	}
	return fmt.Sprintf("We encountered an error: %s. %s", reason, guidance)
}

// GeneralConcernPrediction is returned when the model answered but named no condition.
func GeneralConcernPrediction(symptoms string) entities.Prediction {
	return entities.Prediction{
		Disease:     GeneralConcernTitle,
		Confidence:  generalConcernConfidence,
		Description: "Your symptoms could not be matched to a specific condition. A general practitioner can help find the cause.",
		Recovery: []string{
			"Schedule an appointment with a general practitioner",
			"Keep a diary of when your symptoms occur",
			"Get adequate rest",
			"Stay hydrated",
		},
		MatchedSymptoms: SplitSymptoms(symptoms),
		Severity:        entities.SeverityModerate,
		Specialist:      entities.DefaultSpecialist,
	}
}

// UnavailablePrediction describes a failed analysis as a renderable prediction.
func UnavailablePrediction(errType apperrors.ErrorType, symptoms, reason string) entities.Prediction {
	return entities.Prediction{
		Disease:     AnalysisUnavailableTitle,
		Confidence:  unavailableConfidence,
		Description: errorSentence(reason, guidanceFor(errType)),
		Recovery: []string{
			"Try the analysis again in a few minutes",
			"Consult with a healthcare professional if symptoms persist or worsen",
		},
		MatchedSymptoms: SplitSymptoms(symptoms),
		Severity:        entities.SeverityModerate,
		Specialist:      entities.DefaultSpecialist,
	}
}

// UnavailableMedications describes a failed suggestion request as a one-entry schedule.
func UnavailableMedications(errType apperrors.ErrorType, reason string) []entities.Medication {
	return []entities.Medication{{
		Name:   MedicationsUnavailable,
		Dosage: errorSentence(reason, guidanceFor(errType)),
	}}
}

// UnavailableInteractionReport describes a failed interaction check. Safe stays unset.
func UnavailableInteractionReport(errType apperrors.ErrorType, reason string) *entities.InteractionReport {
	return &entities.InteractionReport{
		Interactions:    []entities.Interaction{},
		Recommendations: errorSentence(reason, guidanceFor(errType)+" Check with a pharmacist before combining these medications."),
	}
}

type careCopy struct {
	name    string
	address func(detail string) string
}

func fixed(text string) func(string) string {
	return func(string) string { return text }
}

// careFallbacks covers every way a nearby care lookup can come back empty.
var careFallbacks = map[apperrors.ErrorType]careCopy{
	apperrors.ErrorTypeLocationPermissionDenied: {
		name:    "Location Access Required",
		address: fixed("Allow location access in your browser or device settings and try again, or search by address below."),
	},
	apperrors.ErrorTypeLocationUnavailable: {
		name:    "Location Unavailable",
		address: fixed("Your position could not be determined. Check your GPS signal or internet connection, or search by address below."),
	},
	apperrors.ErrorTypeLocationTimeout: {
		name:    "Location Request Timed Out",
		address: fixed("Finding your position took too long. Try again, or search by address below."),
	},
	apperrors.ErrorTypeLocationNotFound: {
		name:    "Location Not Found",
		address: fixed("Location not found. Please try with a more specific address or city name."),
	},
	apperrors.ErrorTypeNotFound: {
		name: "No Hospitals Found",
		address: func(near string) string {
			return fmt.Sprintf("No hospitals found near %s. Try expanding the search area or a different location.", near)
		},
	},
	apperrors.ErrorTypeExternal: {
		name: "Search Error",
		address: func(detail string) string {
			return errorSentence(detail, "Please try again later.")
		},
	},
}

// FallbackCareCandidates returns the single explanatory candidate for errType.
func FallbackCareCandidates(errType apperrors.ErrorType, detail string) []entities.CareCandidate {
	entry, ok := careFallbacks[errType]
	if !ok {
		entry = careFallbacks[apperrors.ErrorTypeExternal]
	}
	return []entities.CareCandidate{{
		Name:    entry.name,
		Address: entry.address(detail),
	}}
}
