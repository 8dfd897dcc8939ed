package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MedicationKind string

const (
	MedicationKindScheduled  MedicationKind = "scheduled"
	MedicationKindOccasional MedicationKind = "occasional"
)

type RepeatUnit string

const (
	RepeatUnitDay   RepeatUnit = "day"
	RepeatUnitMonth RepeatUnit = "month"
)

// Medication is the root record. Occurrences and log entries reference it by ID.
type Medication struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Dosage      string          `json:"dosage,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	Kind        MedicationKind  `json:"kind"`
	Active      bool            `json:"active"`
	RepeatUnit  RepeatUnit      `json:"repeat_unit"`
	Interval    int             `json:"interval"`
	StartDate   string          `json:"start_date,omitempty"` // YYYY-MM-DD, empty until first activation
	EndDate     string          `json:"end_date,omitempty"`   // YYYY-MM-DD, inclusive
	SkippedDays []string        `json:"skipped_days,omitempty"`
	TimeOfDay   string          `json:"time_of_day,omitempty"` // HH:MM
	DoseAmount  decimal.Decimal `json:"dose_amount"`
	Stock       decimal.Decimal `json:"stock"`
	TrackStock  bool            `json:"track_stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
}

// EffectiveInterval returns the interval clamped to at least 1.
func (m Medication) EffectiveInterval() int {
	if m.Interval < 1 {
		return 1
	}
	return m.Interval
}

// EffectiveDoseAmount returns the per-intake amount, defaulting to one unit.
func (m Medication) EffectiveDoseAmount() decimal.Decimal {
	if m.DoseAmount.IsPositive() {
		return m.DoseAmount
	}
	return decimal.NewFromInt(1)
}

func (m Medication) IsScheduled() bool {
	return m.Kind == MedicationKindScheduled
}

// IsSkipped reports whether day is in the medication's skip list.
func (m Medication) IsSkipped(day string) bool {
	for _, d := range m.SkippedDays {
		if d == day {
			return true
		}
	}
	return false
}

// IsDailyForever reports the plain "every day, no end date" cadence.
func (m Medication) IsDailyForever() bool {
	return m.Kind == MedicationKindScheduled &&
		m.RepeatUnit == RepeatUnitDay &&
		m.EffectiveInterval() == 1 &&
		m.EndDate == ""
}
