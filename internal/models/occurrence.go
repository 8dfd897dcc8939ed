package models

import (
	"fmt"
	"time"
)

type OccurrenceSource string

const (
	OccurrenceSourceScheduled OccurrenceSource = "scheduled"
	OccurrenceSourceManual    OccurrenceSource = "manual"
)

// Occurrence is one scheduled or manually added intake of a medication.
type Occurrence struct {
	ID           string           `json:"id"`
	MedicationID string           `json:"medication_id"`
	Day          string           `json:"day"`  // YYYY-MM-DD
	Time         string           `json:"time"` // HH:MM
	Source       OccurrenceSource `json:"source"`
	CreatedAt    time.Time        `json:"created_at"`
}

func (o Occurrence) IsScheduled() bool {
	return o.Source == OccurrenceSourceScheduled
}

// ScheduledAt combines the occurrence day and time-of-day in loc.
func (o Occurrence) ScheduledAt(loc *time.Location) (time.Time, error) {
	at, err := time.ParseInLocation("2006-01-02 15:04", o.Day+" "+o.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scheduled time for occurrence %s: %w", o.ID, err)
	}
	return at, nil
}
