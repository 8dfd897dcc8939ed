package scheduler

import (
	"fmt"
	"time"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/storage"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// MoveAndReflow moves one occurrence to newDay.
//
// For a scheduled medication {anchor, unit, interval} describe an infinite
// stream of due days. Moving one point re-seeds the stream instead of patching
// a single element:
//
//	moved occurrence  -> day = newDay
//	medication anchor -> newDay
//	occurrences after newDay -> regenerated from the new anchor
//
// Occurrences before newDay, and any linked to a taken log entry, stay as they
// are. Other untaken scheduled occurrences already on newDay are merged into
// the moved one. Untaken log entries linked to the moved occurrence follow it;
// those of merged or regenerated occurrences are relinked or dropped the way
// RegenerateFuture does it.
//
// Occasional medications only get the field updates.
func (s *Scheduler) MoveAndReflow(snap Snapshot, occurrenceID string, newDay time.Time, horizonDays int) (storage.Changeset, error) {
	var cs storage.Changeset

	var moved models.Occurrence
	found := false
	for _, occ := range snap.Occurrences {
		if occ.ID == occurrenceID {
			moved, found = occ, true
			break
		}
	}
	if !found || moved.MedicationID != snap.Medication.ID {
		return cs, fmt.Errorf("occurrence %s: %w", occurrenceID, errors.ErrNotFound)
	}

	newDay = utils.Day(newDay)
	newKey := utils.DayKey(newDay)
	now := s.now()

	moved.Day = newKey
	cs.UpdateOccurrences = append(cs.UpdateOccurrences, moved)

	med := snap.Medication
	med.StartDate = newKey
	med.UpdatedAt = now
	cs.UpdateMedications = append(cs.UpdateMedications, med)

	logs := make([]models.LogEntry, 0, len(snap.Logs))
	for _, entry := range snap.Logs {
		if entry.OccurrenceID == occurrenceID && !entry.Taken && entry.Day != newKey {
			entry.Day = newKey
			entry.UpdatedAt = now
			cs.UpdateLogs = append(cs.UpdateLogs, entry)
		}
		logs = append(logs, entry)
	}

	if !med.IsScheduled() {
		return cs, nil
	}

	taken := takenOccurrenceIDs(logs)
	occs := make([]models.Occurrence, 0, len(snap.Occurrences))
	for _, occ := range snap.Occurrences {
		switch {
		case occ.ID == occurrenceID:
			occs = append(occs, moved)
		case occ.Day == newKey && occ.IsScheduled() && !taken[occ.ID]:
			cs.DeleteOccurrences = append(cs.DeleteOccurrences, occ.ID)
		default:
			occs = append(occs, occ)
		}
	}

	regen, remaining := s.regenerate(Snapshot{Medication: med, Occurrences: occs, Logs: logs}, utils.AddDays(newDay, 1), horizonDays)
	cs.Merge(regen)
	settleLogs(&cs, logs, remaining, now)
	return cs, nil
}
