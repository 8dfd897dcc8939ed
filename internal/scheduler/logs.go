package scheduler

import (
	"time"

	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/storage"
)

// settleLogs handles the untaken log entries linked to occurrences that cs
// deletes. An entry is relinked to the occurrence that covers its day after
// cs is applied, unless that occurrence already has an entry; otherwise it is
// dropped. remaining is every occurrence of the medication left once cs
// commits. Taken entries are never touched.
func settleLogs(cs *storage.Changeset, logs []models.LogEntry, remaining []models.Occurrence, now time.Time) {
	if len(cs.DeleteOccurrences) == 0 {
		return
	}
	deleted := make(map[string]bool, len(cs.DeleteOccurrences))
	for _, id := range cs.DeleteOccurrences {
		deleted[id] = true
	}

	cover := make(map[string]string)
	for _, occ := range remaining {
		if deleted[occ.ID] || !occ.IsScheduled() {
			continue
		}
		if _, ok := cover[occ.Day]; !ok {
			cover[occ.Day] = occ.ID
		}
	}

	claimed := make(map[string]bool)
	for _, entry := range logs {
		if entry.OccurrenceID != "" && !deleted[entry.OccurrenceID] {
			claimed[entry.OccurrenceID] = true
		}
	}

	for _, entry := range logs {
		if entry.Taken || !deleted[entry.OccurrenceID] {
			continue
		}
		if occID, ok := cover[entry.Day]; ok && !claimed[occID] {
			entry.OccurrenceID = occID
			entry.UpdatedAt = now
			cs.UpdateLogs = append(cs.UpdateLogs, entry)
			claimed[occID] = true
			continue
		}
		cs.DeleteLogs = append(cs.DeleteLogs, entry.ID)
	}
}
