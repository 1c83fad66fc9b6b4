package entities

import "time"

// SymptomReport is the free text a user submitted for analysis.
type SymptomReport struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// AnalysisRecord is what gets appended to a user's analysis history.
type AnalysisRecord struct {
	ID          string       `json:"id" db:"id"`
	UserID      string       `json:"user_id" db:"user_id"`
	Symptoms    string       `json:"symptoms" db:"symptoms"`
	Predictions []Prediction `json:"predictions" db:"predictions"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}
