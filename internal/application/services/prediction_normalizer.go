package services

import (
	"math"
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
)

// Defaults substituted for missing or invalid prediction fields.
const (
	DefaultConfidence   = 50.0
	DefaultDescription  = "No description available. Please consult a healthcare professional."
	DefaultSeverity     = entities.SeverityModerate
	maxMatchedSymptoms  = 3
	maxSymptomEchoRunes = 50
)

// DefaultRecovery is the checklist used when a prediction has no recovery steps.
var DefaultRecovery = []string{
	"Consult with a healthcare professional",
	"Monitor your symptoms",
	"Get adequate rest",
	"Stay hydrated",
}

// fieldRule normalizes one field of a loosely typed record into target.
// source is the user input that produced the record, for defaults derived from it.
type fieldRule[T any] struct {
	key   string
	apply func(value any, source string, target *T)
}

func applyRules[T any](rules []fieldRule[T], record map[string]any, source string, target *T) {
	for _, rule := range rules {
		rule.apply(record[rule.key], source, target)
	}
}

var predictionRules = []fieldRule[entities.Prediction]{
	{key: "disease", apply: func(v any, _ string, p *entities.Prediction) {
		p.Disease = trimmedString(v)
	}},
	{key: "confidence", apply: func(v any, _ string, p *entities.Prediction) {
		p.Confidence = DefaultConfidence
		if n, ok := finiteNumber(v); ok {
			p.Confidence = math.Min(100, math.Max(0, n))
		}
	}},
	{key: "description", apply: func(v any, _ string, p *entities.Prediction) {
		p.Description = stringOr(v, DefaultDescription)
	}},
	{key: "recovery", apply: func(v any, _ string, p *entities.Prediction) {
		p.Recovery = stringListOr(v, DefaultRecovery)
	}},
	{key: "matchedSymptoms", apply: func(v any, symptoms string, p *entities.Prediction) {
		if list := stringList(v); len(list) > 0 {
			p.MatchedSymptoms = list
			return
		}
		p.MatchedSymptoms = SplitSymptoms(symptoms)
	}},
	{key: "severity", apply: func(v any, _ string, p *entities.Prediction) {
		p.Severity = DefaultSeverity
		if n, ok := finiteNumber(v); ok {
			if r := int(math.Round(n)); r >= entities.SeverityLow && r <= entities.SeverityHigh {
				p.Severity = r
			}
		}
	}},
	{key: "specialist", apply: func(v any, _ string, p *entities.Prediction) {
		p.Specialist = stringOr(v, entities.DefaultSpecialist)
	}},
}

// NormalizePredictions turns parsed prediction records into fully populated
// predictions. Records without a disease name are dropped, the rest keep their
// order, and at most MaxPredictions are returned.
func NormalizePredictions(items []any, symptoms string) []entities.Prediction {
	predictions := make([]entities.Prediction, 0, entities.MaxPredictions)
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok || trimmedString(record["disease"]) == "" {
			continue
		}

		var p entities.Prediction
		applyRules(predictionRules, record, symptoms, &p)
		predictions = append(predictions, p)

		if len(predictions) == entities.MaxPredictions {
			break
		}
	}
	return predictions
}

// SplitSymptoms returns up to three comma or period separated phrases of text.
// Text with no phrases, such as "...", is returned whole, cut to
// maxSymptomEchoRunes.
func SplitSymptoms(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '.' })
	symptoms := make([]string, 0, maxMatchedSymptoms)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		symptoms = append(symptoms, part)
		if len(symptoms) == maxMatchedSymptoms {
			break
		}
	}
	if len(symptoms) == 0 {
		if whole := []rune(strings.TrimSpace(text)); len(whole) > 0 {
			if len(whole) > maxSymptomEchoRunes {
				whole = whole[:maxSymptomEchoRunes]
			}
			symptoms = append(symptoms, string(whole))
		}
	}
	return symptoms
}

func trimmedString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func stringOr(v any, fallback string) string {
	if s := trimmedString(v); s != "" {
		return s
	}
	return fallback
}

func finiteNumber(v any) (float64, bool) {
	n, ok := v.(float64)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// stringList keeps the non-empty strings of a JSON array.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := trimmedString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringListOr(v any, fallback []string) []string {
	if list := stringList(v); len(list) > 0 {
		return list
	}
	return append([]string(nil), fallback...)
}
