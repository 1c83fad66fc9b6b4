package evaluation

import "time"

// Category groups golden cases by body system.
type Category string

const (
	CategoryRespiratory      Category = "respiratory"      // e.g., "cough, fever, sore throat"
	CategoryGastrointestinal Category = "gastrointestinal" // e.g., "nausea, diarrhoea"
	CategoryCardiovascular   Category = "cardiovascular"   // e.g., "chest pain, palpitations"
	CategoryNeurological     Category = "neurological"     // e.g., "headache, light sensitivity"
	CategoryDermatological   Category = "dermatological"   // e.g., "itchy rash"
	CategoryGeneral          Category = "general"
)

// ValidCategories returns all valid category values.
func ValidCategories() []Category {
	return []Category{
		CategoryRespiratory,
		CategoryGastrointestinal,
		CategoryCardiovascular,
		CategoryNeurological,
		CategoryDermatological,
		CategoryGeneral,
	}
}

// IsValid checks if the category value is one of the defined constants.
func (c Category) IsValid() bool {
	for _, v := range ValidCategories() {
		if c == v {
			return true
		}
	}
	return false
}

// GoldenCase is a labeled symptom description with the conditions a good
// analysis should name.
type GoldenCase struct {
	ID                 string   `json:"id" yaml:"id"`
	Symptoms           string   `json:"symptoms" yaml:"symptoms"`
	Category           Category `json:"category" yaml:"category"`
	ExpectedDiseases   []string `json:"expected_diseases" yaml:"expected_diseases"`
	ExpectedSpecialist string   `json:"expected_specialist,omitempty" yaml:"expected_specialist,omitempty"`
	Difficulty         string   `json:"difficulty" yaml:"difficulty"` // easy, medium, hard
}

// CaseResult holds the evaluation outcome for a single case.
type CaseResult struct {
	CaseID          string        `json:"case_id"`
	Category        Category      `json:"category"`
	Predicted       []string      `json:"predicted"`
	RecallAt3       float64       `json:"recall_at_3"`
	MRRAt3          float64       `json:"mrr_at_3"`
	SpecialistMatch bool          `json:"specialist_match"`
	Fallback        bool          `json:"fallback"`
	Violations      []string      `json:"violations,omitempty"`
	Latency         time.Duration `json:"latency_ns"`
}

// Summary holds aggregate metrics across all golden cases.
type Summary struct {
	TotalCases          int                           `json:"total_cases"`
	AvgRecallAt3        float64                       `json:"avg_recall_at_3"`
	AvgMRRAt3           float64                       `json:"avg_mrr_at_3"`
	SpecialistAccuracy  float64                       `json:"specialist_accuracy"`
	FallbackCount       int                           `json:"fallback_count"`
	GuardrailViolations int                           `json:"guardrail_violations"`
	AvgLatency          time.Duration                 `json:"avg_latency_ns"`
	ByCategory          map[Category]*CategorySummary `json:"by_category"`
	Results             []CaseResult                  `json:"results"`
}

// CategorySummary holds metrics grouped by category.
type CategorySummary struct {
	Count        int     `json:"count"`
	AvgRecallAt3 float64 `json:"avg_recall_at_3"`
	AvgMRRAt3    float64 `json:"avg_mrr_at_3"`
}
