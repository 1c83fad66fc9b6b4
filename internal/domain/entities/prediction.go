package entities

// DefaultSpecialist is the referral used when the model does not name one.
const DefaultSpecialist = "General Practitioner"

// Severity levels for a prediction.
const (
	SeverityLow      = 1
	SeverityModerate = 2
	SeverityHigh     = 3
)

// MaxPredictions caps a single analysis result set.
const MaxPredictions = 3

// Prediction is one candidate diagnosis. Every field is populated before a
// Prediction leaves the application layer.
type Prediction struct {
	Disease         string   `json:"disease"`
	Confidence      float64  `json:"confidence"`
	Description     string   `json:"description"`
	Recovery        []string `json:"recovery"`
	MatchedSymptoms []string `json:"matchedSymptoms"`
	Severity        int      `json:"severity"`
	Specialist      string   `json:"specialist"`
}
