package scheduler

import (
	"sort"
	"time"

	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/storage"
)

// dedupeRank orders duplicate occurrences of one day: an occurrence with a
// taken log entry wins, then the earliest created, then the lowest ID.
type dedupeRank struct {
	taken     bool
	createdAt time.Time
	id        string
}

func (a dedupeRank) before(b dedupeRank) bool {
	if a.taken != b.taken {
		return a.taken
	}
	if !a.createdAt.Equal(b.createdAt) {
		return a.createdAt.Before(b.createdAt)
	}
	return a.id < b.id
}

type dayKey struct {
	medicationID string
	day          string
}

// Deduplicate returns the scheduled occurrences that should be deleted so each
// (medication, day) keeps a single one. Occurrences linked to a taken log
// entry are never returned, even when that leaves more than one behind.
func Deduplicate(occs []models.Occurrence, logs []models.LogEntry) []models.Occurrence {
	taken := takenOccurrenceIDs(logs)

	groups := make(map[dayKey][]models.Occurrence)
	for _, occ := range occs {
		if !occ.IsScheduled() {
			continue
		}
		k := dayKey{medicationID: occ.MedicationID, day: occ.Day}
		groups[k] = append(groups[k], occ)
	}

	var doomed []models.Occurrence
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return rankOf(group[i], taken).before(rankOf(group[j], taken))
		})
		for _, occ := range group[1:] {
			if taken[occ.ID] {
				continue
			}
			doomed = append(doomed, occ)
		}
	}

	sort.Slice(doomed, func(i, j int) bool {
		if doomed[i].Day != doomed[j].Day {
			return doomed[i].Day < doomed[j].Day
		}
		return doomed[i].ID < doomed[j].ID
	})
	return doomed
}

// DedupeChangeset deletes the duplicates Deduplicate finds in snap. Untaken
// log entries of a deleted duplicate move to the kept occurrence when it has
// none of its own.
func (s *Scheduler) DedupeChangeset(snap Snapshot) storage.Changeset {
	var cs storage.Changeset
	cs.DeleteOccurrences = idsOf(Deduplicate(snap.Occurrences, snap.Logs))
	settleLogs(&cs, snap.Logs, snap.Occurrences, s.now())
	return cs
}

func rankOf(occ models.Occurrence, taken map[string]bool) dedupeRank {
	return dedupeRank{taken: taken[occ.ID], createdAt: occ.CreatedAt, id: occ.ID}
}
