package evaluation

import (
	"fmt"
	"strings"

	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
)

// GuardrailConfig bounds what a single analysis may return.
type GuardrailConfig struct {
	MaxPredictions int
	MinSeverity    int
	MaxSeverity    int
}

// Guardrails checks analysis output against the result contract.
type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MaxPredictions <= 0 {
		config.MaxPredictions = entities.MaxPredictions
	}
	if config.MinSeverity <= 0 {
		config.MinSeverity = entities.SeverityLow
	}
	if config.MaxSeverity <= 0 {
		config.MaxSeverity = entities.SeverityHigh
	}
	return &Guardrails{config: config}
}

// Check returns one message per broken rule. An empty result means the
// predictions are safe to show.
func (g *Guardrails) Check(predictions []entities.Prediction) []string {
	var violations []string
	if len(predictions) == 0 {
		return []string{"no predictions returned"}
	}
	if len(predictions) > g.config.MaxPredictions {
		violations = append(violations, fmt.Sprintf("%d predictions exceeds limit of %d", len(predictions), g.config.MaxPredictions))
	}

	for i, p := range predictions {
		label := fmt.Sprintf("prediction %d", i+1)
		if strings.TrimSpace(p.Disease) == "" {
			violations = append(violations, label+": missing disease")
		}
		if p.Confidence < 0 || p.Confidence > 100 {
			violations = append(violations, fmt.Sprintf("%s: confidence %.1f out of range", label, p.Confidence))
		}
		if p.Severity < g.config.MinSeverity || p.Severity > g.config.MaxSeverity {
			violations = append(violations, fmt.Sprintf("%s: severity %d out of range", label, p.Severity))
		}
		if strings.TrimSpace(p.Description) == "" {
			violations = append(violations, label+": missing description")
		}
		if len(p.Recovery) == 0 {
			violations = append(violations, label+": missing recovery steps")
		}
		if strings.TrimSpace(p.Specialist) == "" {
			violations = append(violations, label+": missing specialist")
		}
	}
	return violations
}
