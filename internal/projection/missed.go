package projection

import (
	"sort"
	"time"

	"github.com/julianstephens/dosekeep/internal/constants"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// Options tunes missed-dose accounting.
type Options struct {
	// LookbackDays is the size of the window ending the day before the
	// reference day. Values below 1 are treated as 1.
	LookbackDays int
	// ExcludeDailyForever leaves plain "every day, no end date" medications
	// out of the count.
	ExcludeDailyForever bool
}

func DefaultOptions() Options {
	return Options{
		LookbackDays:        constants.DefaultLookbackDays,
		ExcludeDailyForever: constants.DefaultExcludeDailyFromMissed,
	}
}

// OptionsFromSettings builds Options from persisted settings.
func OptionsFromSettings(settings models.Settings) Options {
	return Options{
		LookbackDays:        settings.LookbackDays,
		ExcludeDailyForever: settings.ExcludeDailyFromMissed,
	}
}

// Pending is a medication with an outstanding missed dose.
type Pending struct {
	MedicationID string `json:"medication_id"`
	Day          string `json:"day"` // latest missed day
}

// PendingCount returns how many distinct medications have an outstanding
// missed dose as of ref.
func PendingCount(meds []models.Medication, logs []models.LogEntry, ref time.Time, opts Options) int {
	return len(PendingMedications(meds, logs, ref, opts))
}

// PendingMedications lists the medications counted by PendingCount with the
// latest missed day of each, ordered by day then medication ID.
//
// For each eligible medication the latest untaken entry in
// [ref-(lookback-1), ref) is the candidate; a taken entry after it and on or
// before ref absorbs it.
func PendingMedications(meds []models.Medication, logs []models.LogEntry, ref time.Time, opts Options) []Pending {
	lookback := opts.LookbackDays
	if lookback < 1 {
		lookback = 1
	}
	ref = utils.Day(ref)
	refKey := utils.DayKey(ref)
	windowStart := utils.DayKey(utils.AddDays(ref, -(lookback - 1)))

	eligible := make(map[string]bool)
	for _, med := range meds {
		if IsEligible(med, opts.ExcludeDailyForever) {
			eligible[med.ID] = true
		}
	}

	latestMissed := make(map[string]string)
	for _, entry := range logs {
		if !eligible[entry.MedicationID] || entry.Taken {
			continue
		}
		if entry.Day < windowStart || entry.Day >= refKey {
			continue
		}
		if entry.Day > latestMissed[entry.MedicationID] {
			latestMissed[entry.MedicationID] = entry.Day
		}
	}

	for _, entry := range logs {
		if !entry.Taken {
			continue
		}
		missed, ok := latestMissed[entry.MedicationID]
		if !ok {
			continue
		}
		if entry.Day > missed && entry.Day <= refKey {
			delete(latestMissed, entry.MedicationID)
		}
	}

	pending := make([]Pending, 0, len(latestMissed))
	for medID, day := range latestMissed {
		pending = append(pending, Pending{MedicationID: medID, Day: day})
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Day != pending[j].Day {
			return pending[i].Day < pending[j].Day
		}
		return pending[i].MedicationID < pending[j].MedicationID
	})
	return pending
}

// IsEligible reports whether med takes part in missed-dose accounting: it must
// be scheduled and anchored, not a plain daily-forever cadence (when
// excludeDailyForever is set), and, if it has an end date, be due at least
// once strictly between its anchor and that end date.
func IsEligible(med models.Medication, excludeDailyForever bool) bool {
	if med.DeletedAt != nil || !med.IsScheduled() || med.StartDate == "" {
		return false
	}
	anchor, err := utils.ParseDay(med.StartDate)
	if err != nil {
		return false
	}
	if excludeDailyForever && med.IsDailyForever() {
		return false
	}
	if med.EndDate == "" {
		return true
	}

	end, err := utils.ParseDay(med.EndDate)
	if err != nil {
		return false
	}
	day := utils.AddDays(anchor, 1)
	for i := 0; i < constants.EligibilityScanMaxDays && day.Before(end); i++ {
		if utils.IsDue(med, day) {
			return true
		}
		day = utils.AddDays(day, 1)
	}
	return false
}
