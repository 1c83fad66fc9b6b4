package entities

// Medication is one entry of a medication schedule.
type Medication struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage,omitempty"`
	Time   string `json:"time,omitempty"`
}

// Interaction severities.
const (
	InteractionSeverityLow      = "low"
	InteractionSeverityModerate = "moderate"
	InteractionSeverityHigh     = "high"
)

// Interaction describes a reaction between two or more medications.
type Interaction struct {
	Medications []string `json:"medications"`
	Interaction string   `json:"interaction"`
	Severity    string   `json:"severity"`
}

// InteractionReport is the result of checking a medication list.
// Safe is nil when the check could not be completed.
type InteractionReport struct {
	Safe            *bool         `json:"safe,omitempty"`
	Interactions    []Interaction `json:"interactions"`
	Recommendations string        `json:"recommendations"`
}

const (
	// MinMedicationsForInteractionCheck is the list size below which no report exists.
	MinMedicationsForInteractionCheck = 2
	// MaxMedicationsPerCheck bounds a list sent for analysis, in one request or one session.
	MaxMedicationsPerCheck = 20
)
