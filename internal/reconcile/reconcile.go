// Package reconcile keeps log entries in step with due days and occurrences.
// It only ever inserts missing entries (and links legacy ones); it never
// rewrites an existing entry's taken state.
package reconcile

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// NewID generates log entry IDs. Tests replace it.
var NewID = func() string { return uuid.New().String() }

type medDay struct {
	medicationID string
	day          string
}

// EnsureLogs returns a new untaken entry for every active medication that is
// due on day and has no entry of any kind for that day yet.
func EnsureLogs(meds []models.Medication, existing []models.LogEntry, day time.Time, now time.Time) []models.LogEntry {
	key := utils.DayKey(utils.Day(day))

	have := make(map[string]bool)
	for _, entry := range existing {
		if entry.Day == key {
			have[entry.MedicationID] = true
		}
	}

	var created []models.LogEntry
	for _, med := range meds {
		if !med.Active || med.DeletedAt != nil || have[med.ID] {
			continue
		}
		if !utils.IsDue(med, day) {
			continue
		}
		created = append(created, newEntry(med.ID, "", key, now))
		have[med.ID] = true
	}
	return created
}

// EnsureLogsForOccurrences makes sure every occurrence has an entry keyed by
// (occurrence ID, day). Before inserting, an entry of the same medication and
// day is adopted instead when it has no occurrence ID (pre-occurrence data) or
// is untaken and points at an occurrence missing from occs. Adopted entries
// come back in links with only OccurrenceID and UpdatedAt changed. Taken
// candidates are adopted first, then the oldest.
//
// occs must hold every occurrence on the days of existing. Untaken entries
// always sit on their occurrence's day, so one whose occurrence is missing
// is left over from a deleted occurrence.
func EnsureLogsForOccurrences(occs []models.Occurrence, existing []models.LogEntry, now time.Time) (inserts []models.LogEntry, links []models.LogEntry) {
	live := make(map[string]bool, len(occs))
	for _, occ := range occs {
		live[occ.ID] = true
	}

	linked := make(map[medDay]bool)
	orphans := make(map[medDay][]models.LogEntry)
	for _, entry := range existing {
		stale := entry.OccurrenceID != "" && !entry.Taken && !live[entry.OccurrenceID]
		if entry.OccurrenceID != "" && !stale {
			linked[medDay{entry.OccurrenceID, entry.Day}] = true
			continue
		}
		k := medDay{entry.MedicationID, entry.Day}
		orphans[k] = append(orphans[k], entry)
	}
	for _, candidates := range orphans {
		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if a.Taken != b.Taken {
				return a.Taken
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		})
	}

	for _, occ := range occs {
		if linked[medDay{occ.ID, occ.Day}] {
			continue
		}

		k := medDay{occ.MedicationID, occ.Day}
		if candidates := orphans[k]; len(candidates) > 0 {
			adopted := candidates[0]
			orphans[k] = candidates[1:]
			adopted.OccurrenceID = occ.ID
			adopted.UpdatedAt = now
			links = append(links, adopted)
			linked[medDay{occ.ID, occ.Day}] = true
			continue
		}

		inserts = append(inserts, newEntry(occ.MedicationID, occ.ID, occ.Day, now))
		linked[medDay{occ.ID, occ.Day}] = true
	}
	return inserts, links
}

// SetTaken applies the taken/not-taken toggle.
//
// Confirming today's dose records override, or the current time when no
// override is given. Confirming a dose for any other day records override if
// given and leaves the time unspecified otherwise. Un-taking clears the time.
func SetTaken(entry models.LogEntry, taken bool, override *time.Time, now time.Time, loc *time.Location) models.LogEntry {
	entry.Taken = taken
	entry.UpdatedAt = now

	if !taken {
		entry.TakenAt = nil
		return entry
	}

	switch {
	case override != nil:
		at := *override
		entry.TakenAt = &at
	case entry.Day == utils.DayKey(utils.Day(now.In(loc))):
		at := now
		entry.TakenAt = &at
	default:
		entry.TakenAt = nil
	}
	return entry
}

func newEntry(medicationID, occurrenceID, day string, now time.Time) models.LogEntry {
	return models.LogEntry{
		ID:           NewID(),
		MedicationID: medicationID,
		OccurrenceID: occurrenceID,
		Day:          day,
		Taken:        false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
