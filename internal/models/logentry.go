package models

import "time"

// LogEntry records whether a medication was taken on a given day.
// OccurrenceID is a weak back-reference: the occurrence may be deleted while a
// taken entry survives as history.
type LogEntry struct {
	ID           string     `json:"id"`
	MedicationID string     `json:"medication_id"`
	OccurrenceID string     `json:"occurrence_id,omitempty"`
	Day          string     `json:"day"` // YYYY-MM-DD
	Taken        bool       `json:"taken"`
	TakenAt      *time.Time `json:"taken_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
