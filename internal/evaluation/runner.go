package evaluation

import (
	"context"
	"time"

	"github.com/zatekoja/symptomchecker/backend/internal/application/services"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
)

// evalK matches the size of an analysis result set.
const evalK = entities.MaxPredictions

// Analyzer is the diagnosis pipeline under evaluation.
type Analyzer interface {
	Analyze(ctx context.Context, userID, symptoms string) ([]entities.Prediction, error)
}

// Runner runs evaluation across a set of golden cases.
type Runner struct {
	analyzer   Analyzer
	guardrails *Guardrails
}

func NewRunner(analyzer Analyzer, guardrails *Guardrails) *Runner {
	if guardrails == nil {
		guardrails = NewGuardrails(GuardrailConfig{})
	}
	return &Runner{analyzer: analyzer, guardrails: guardrails}
}

// Run analyzes every case in order. It stops early only when ctx is done.
func (r *Runner) Run(ctx context.Context, cases []GoldenCase) (*Summary, error) {
	logger := observability.LoggerFromContext(ctx)
	summary := &Summary{
		ByCategory: make(map[Category]*CategorySummary),
		Results:    make([]CaseResult, 0, len(cases)),
	}
	specialistCases, specialistHits := 0, 0

	for _, gc := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		predictions, err := r.analyzer.Analyze(ctx, "", gc.Symptoms)
		duration := time.Since(start)
		if err != nil {
			logger.Warn().Err(err).Str("case", gc.ID).Msg("golden case rejected")
			continue
		}

		result := r.score(gc, predictions, duration)
		if gc.ExpectedSpecialist != "" {
			specialistCases++
			if result.SpecialistMatch {
				specialistHits++
			}
		}
		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary)
	if specialistCases > 0 {
		summary.SpecialistAccuracy = float64(specialistHits) / float64(specialistCases)
	}
	return summary, nil
}

func (r *Runner) score(gc GoldenCase, predictions []entities.Prediction, duration time.Duration) CaseResult {
	predicted := make([]string, len(predictions))
	for i, p := range predictions {
		predicted[i] = p.Disease
	}

	result := CaseResult{
		CaseID:     gc.ID,
		Category:   gc.Category,
		Predicted:  predicted,
		RecallAt3:  RecallAtK(gc.ExpectedDiseases, predicted, evalK),
		MRRAt3:     MRRAtK(gc.ExpectedDiseases, predicted, evalK),
		Fallback:   isFallback(predictions),
		Violations: r.guardrails.Check(predictions),
		Latency:    duration,
	}
	if gc.ExpectedSpecialist != "" && len(predictions) > 0 {
		result.SpecialistMatch = normalizeLabel(predictions[0].Specialist) == normalizeLabel(gc.ExpectedSpecialist)
	}
	return result
}

func isFallback(predictions []entities.Prediction) bool {
	if len(predictions) != 1 {
		return false
	}
	switch predictions[0].Disease {
	case services.AnalysisUnavailableTitle, services.GeneralConcernTitle:
		return true
	}
	return false
}

func (r *Runner) updateSummary(s *Summary, res CaseResult) {
	s.TotalCases++
	s.Results = append(s.Results, res)
	s.AvgRecallAt3 += res.RecallAt3
	s.AvgMRRAt3 += res.MRRAt3
	s.AvgLatency += res.Latency
	s.GuardrailViolations += len(res.Violations)
	if res.Fallback {
		s.FallbackCount++
	}

	if _, ok := s.ByCategory[res.Category]; !ok {
		s.ByCategory[res.Category] = &CategorySummary{}
	}
	cs := s.ByCategory[res.Category]
	cs.Count++
	cs.AvgRecallAt3 += res.RecallAt3
	cs.AvgMRRAt3 += res.MRRAt3
}

func (r *Runner) finalizeSummary(s *Summary) {
	if s.TotalCases > 0 {
		n := float64(s.TotalCases)
		s.AvgRecallAt3 /= n
		s.AvgMRRAt3 /= n
		s.AvgLatency /= time.Duration(s.TotalCases)
	}

	for _, cs := range s.ByCategory {
		if cs.Count > 0 {
			n := float64(cs.Count)
			cs.AvgRecallAt3 /= n
			cs.AvgMRRAt3 /= n
		}
	}
}
