package services

import (
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
)

const maxSuggestedMedications = 5

// DefaultRecommendations is used when an interaction answer has none.
const DefaultRecommendations = "Review these medications with your pharmacist or doctor."

var medicationRules = []fieldRule[entities.Medication]{
	{key: "name", apply: func(v any, _ string, m *entities.Medication) { m.Name = trimmedString(v) }},
	{key: "dosage", apply: func(v any, _ string, m *entities.Medication) { m.Dosage = trimmedString(v) }},
	{key: "time", apply: func(v any, _ string, m *entities.Medication) { m.Time = trimmedString(v) }},
}

var interactionRules = []fieldRule[entities.Interaction]{
	{key: "medications", apply: func(v any, _ string, i *entities.Interaction) {
		i.Medications = stringList(v)
		if i.Medications == nil {
			i.Medications = []string{}
		}
	}},
	{key: "interaction", apply: func(v any, _ string, i *entities.Interaction) { i.Interaction = trimmedString(v) }},
	{key: "severity", apply: func(v any, _ string, i *entities.Interaction) {
		switch s := strings.ToLower(trimmedString(v)); s {
		case entities.InteractionSeverityLow, entities.InteractionSeverityModerate, entities.InteractionSeverityHigh:
			i.Severity = s
		default:
			i.Severity = entities.InteractionSeverityModerate
		}
	}},
}

// NormalizeMedications keeps named medication records, in order.
func NormalizeMedications(items []any) []entities.Medication {
	meds := make([]entities.Medication, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var med entities.Medication
		applyRules(medicationRules, record, "", &med)
		if med.Name == "" {
			continue
		}
		meds = append(meds, med)
		if len(meds) == maxSuggestedMedications {
			break
		}
	}
	return meds
}

// NormalizeInteractionReport builds a report from a parsed interaction answer.
func NormalizeInteractionReport(doc map[string]any, items []any) *entities.InteractionReport {
	report := &entities.InteractionReport{
		Interactions:    make([]entities.Interaction, 0, len(items)),
		Recommendations: stringOr(doc["recommendations"], DefaultRecommendations),
	}
	if safe, ok := doc["safe"].(bool); ok {
		report.Safe = &safe
	}

	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var interaction entities.Interaction
		applyRules(interactionRules, record, "", &interaction)
		if interaction.Interaction == "" {
			continue
		}
		report.Interactions = append(report.Interactions, interaction)
	}
	return report
}
