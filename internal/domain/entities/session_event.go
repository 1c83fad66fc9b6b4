package entities

import "time"

// SessionEventType names a change to a medication session.
type SessionEventType string

const (
	// SessionEventMedicationsChanged follows every add, remove or replace.
	SessionEventMedicationsChanged SessionEventType = "medications_changed"
	// SessionEventReportReady follows an interaction analysis that was still current when it finished.
	SessionEventReportReady SessionEventType = "report_ready"
)

// SessionEvent carries the state of a medication session after a change.
type SessionEvent struct {
	ID          string             `json:"id"`
	SessionID   string             `json:"session_id"`
	Type        SessionEventType   `json:"type"`
	Revision    uint64             `json:"revision"`
	Medications []Medication       `json:"medications"`
	Report      *InteractionReport `json:"report"`
	Analyzing   bool               `json:"analyzing"`
	Timestamp   time.Time          `json:"timestamp"`
}
