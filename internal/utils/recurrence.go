package utils

import (
	"time"

	"github.com/julianstephens/dosekeep/internal/models"
)

// IsDue reports whether med is due on day. It is the only place due-ness is
// derived; the scheduler, reconciler and projections all call it.
//
// Malformed or missing dates make the medication not due rather than failing.
func IsDue(med models.Medication, day time.Time) bool {
	if med.StartDate == "" {
		return false
	}
	anchor, err := ParseDay(med.StartDate)
	if err != nil {
		return false
	}
	day = Day(day)
	if day.Before(anchor) {
		return false
	}

	if med.Kind == models.MedicationKindOccasional {
		return day.Equal(anchor)
	}
	if med.Kind != models.MedicationKindScheduled {
		return false
	}

	if med.IsSkipped(DayKey(day)) {
		return false
	}
	if med.EndDate != "" {
		end, err := ParseDay(med.EndDate)
		if err == nil && day.After(end) {
			return false
		}
	}

	interval := med.EffectiveInterval()
	switch med.RepeatUnit {
	case models.RepeatUnitMonth:
		deltaMonths := (day.Year()*12 + int(day.Month())) - (anchor.Year()*12 + int(anchor.Month()))
		if deltaMonths < 0 || deltaMonths%interval != 0 {
			return false
		}
		return day.Day() == DueDayInMonth(anchor.Day(), day.Year(), day.Month())
	default:
		return DaysBetween(anchor, day)%interval == 0
	}
}

// DueDayInMonth clamps an anchor day-of-month to the last valid day of the
// target month (anchor 31 in April gives 30).
func DueDayInMonth(anchorDay int, year int, month time.Month) int {
	last := DaysInMonth(year, month)
	if anchorDay > last {
		return last
	}
	if anchorDay < 1 {
		return 1
	}
	return anchorDay
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextDueDay returns the first due day on or after from, scanning at most
// maxDays days.
func NextDueDay(med models.Medication, from time.Time, maxDays int) (time.Time, bool) {
	day := Day(from)
	for i := 0; i <= maxDays; i++ {
		if IsDue(med, day) {
			return day, true
		}
		day = AddDays(day, 1)
	}
	return time.Time{}, false
}
