package services

import (
	"fmt"
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
)

// Top-level collection fields each answer must expose.
const (
	PredictionsField  = "predictions"
	MedicationsField  = "medications"
	InteractionsField = "interactions"
)

const (
	defaultTemperature     = 0.4
	defaultMaxOutputTokens = 3000
)

const diagnosisInstruction = `You are a medical triage assistant. Based on the symptoms below, list up to 3 possible conditions, most likely first.

Symptoms: %s

Respond with JSON only, shaped as {"predictions": [...]}. Each prediction has:
- disease: name of the condition
- confidence: likelihood from 0 to 100
- description: two or three plain-language sentences about the condition
- recovery: 3 to 5 practical self-care or treatment steps
- matchedSymptoms: which of the reported symptoms point to this condition
- severity: 1 (mild), 2 (moderate) or 3 (severe)
- specialist: the kind of doctor to see

Do not include any text outside the JSON object.`

const medicationInstruction = `Suggest a typical daily medication schedule for a patient diagnosed with %s.

Respond with JSON only, shaped as {"medications": [{"name": "...", "dosage": "...", "time": "..."}]}.
Use common generic names, a usual adult dosage, and a time of day such as "8:00 AM".
List at most 5 medications.`

const interactionInstruction = `Check the following medications for interactions when taken together: %s.

Respond with JSON only, shaped as {"safe": true|false, "interactions": [...], "recommendations": "..."}.
Each interaction has:
- medications: the names involved
- interaction: what happens when they are combined
- severity: "low", "moderate" or "high"
Use an empty interactions list when there are none. Keep recommendations short and practical.`

// PromptBuilder assembles structured model requests. It holds no state beyond
// generation settings, so the same input always yields the same request.
type PromptBuilder struct {
	temperature     float64
	maxOutputTokens int
}

// NewPromptBuilder creates a prompt builder. Non-positive settings fall back to defaults.
func NewPromptBuilder(temperature float64, maxOutputTokens int) *PromptBuilder {
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	if maxOutputTokens <= 0 {
		maxOutputTokens = defaultMaxOutputTokens
	}
	return &PromptBuilder{temperature: temperature, maxOutputTokens: maxOutputTokens}
}

// Diagnosis builds the request for candidate conditions matching free-text symptoms.
func (b *PromptBuilder) Diagnosis(symptoms string) *entities.ModelRequest {
	return b.request(fmt.Sprintf(diagnosisInstruction, strings.TrimSpace(symptoms)), diagnosisSchema())
}

// MedicationSuggestions builds the request for a medication schedule for a condition.
func (b *PromptBuilder) MedicationSuggestions(disease string) *entities.ModelRequest {
	return b.request(fmt.Sprintf(medicationInstruction, strings.TrimSpace(disease)), medicationSchema())
}

// InteractionCheck builds the request for checking a medication list for interactions.
func (b *PromptBuilder) InteractionCheck(meds []entities.Medication) *entities.ModelRequest {
	return b.request(fmt.Sprintf(interactionInstruction, RenderMedicationList(meds)), interactionSchema())
}

func (b *PromptBuilder) request(instruction string, schema *entities.ResponseSchema) *entities.ModelRequest {
	return &entities.ModelRequest{
		Instruction:     instruction,
		Schema:          schema,
		Temperature:     b.temperature,
		MaxOutputTokens: b.maxOutputTokens,
	}
}

// RenderMedicationList renders meds as "name (dosage)" joined by "; ".
func RenderMedicationList(meds []entities.Medication) string {
	parts := make([]string, 0, len(meds))
	for _, med := range meds {
		dosage := strings.TrimSpace(med.Dosage)
		if dosage == "" {
			dosage = "dose unknown"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", strings.TrimSpace(med.Name), dosage))
	}
	return strings.Join(parts, "; ")
}

func stringSchema() *entities.ResponseSchema {
	return &entities.ResponseSchema{Type: entities.SchemaString}
}

func stringListSchema() *entities.ResponseSchema {
	return &entities.ResponseSchema{Type: entities.SchemaArray, Items: stringSchema()}
}

func diagnosisSchema() *entities.ResponseSchema {
	return &entities.ResponseSchema{
		Type: entities.SchemaObject,
		Properties: map[string]*entities.ResponseSchema{
			PredictionsField: {
				Type: entities.SchemaArray,
				Items: &entities.ResponseSchema{
					Type: entities.SchemaObject,
					Properties: map[string]*entities.ResponseSchema{
						"disease":         stringSchema(),
						"confidence":      {Type: entities.SchemaNumber},
						"description":     stringSchema(),
						"recovery":        stringListSchema(),
						"matchedSymptoms": stringListSchema(),
						"severity":        {Type: entities.SchemaInteger},
						"specialist":      stringSchema(),
					},
					Required: []string{"disease", "confidence", "description", "recovery", "matchedSymptoms", "severity", "specialist"},
				},
			},
		},
		Required: []string{PredictionsField},
	}
}

func medicationSchema() *entities.ResponseSchema {
	return &entities.ResponseSchema{
		Type: entities.SchemaObject,
		Properties: map[string]*entities.ResponseSchema{
			MedicationsField: {
				Type: entities.SchemaArray,
				Items: &entities.ResponseSchema{
					Type: entities.SchemaObject,
					Properties: map[string]*entities.ResponseSchema{
						"name":   stringSchema(),
						"dosage": stringSchema(),
						"time":   stringSchema(),
					},
					Required: []string{"name", "dosage", "time"},
				},
			},
		},
		Required: []string{MedicationsField},
	}
}

func interactionSchema() *entities.ResponseSchema {
	return &entities.ResponseSchema{
		Type: entities.SchemaObject,
		Properties: map[string]*entities.ResponseSchema{
			"safe": {Type: entities.SchemaBoolean},
			InteractionsField: {
				Type: entities.SchemaArray,
				Items: &entities.ResponseSchema{
					Type: entities.SchemaObject,
					Properties: map[string]*entities.ResponseSchema{
						"medications": stringListSchema(),
						"interaction": stringSchema(),
						"severity": {
							Type: entities.SchemaString,
							Enum: []string{entities.InteractionSeverityLow, entities.InteractionSeverityModerate, entities.InteractionSeverityHigh},
						},
					},
					Required: []string{"medications", "interaction", "severity"},
				},
			},
			"recommendations": stringSchema(),
		},
		Required: []string{"safe", InteractionsField, "recommendations"},
	}
}
