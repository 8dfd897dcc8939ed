package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/dosekeep/internal/constants"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/storage"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// Scheduler turns the due-date predicate into occurrence records. It never
// touches storage itself: every operation reads a Snapshot and returns the
// storage.Changeset that the caller commits.
type Scheduler struct {
	NewID            func() string
	Now              func() time.Time
	DefaultTimeOfDay string
}

func New() *Scheduler {
	return &Scheduler{
		NewID:            func() string { return uuid.New().String() },
		Now:              time.Now,
		DefaultTimeOfDay: constants.DefaultTimeOfDay,
	}
}

// Snapshot is everything the scheduler needs to know about one medication.
type Snapshot struct {
	Medication  models.Medication
	Occurrences []models.Occurrence
	Logs        []models.LogEntry
}

// GenerateInitial returns the scheduled occurrences missing for med in
// [max(anchor, refDay), min(endDate, refDay+max(30, horizonDays))].
// Days that already have a live scheduled occurrence in existing are left
// alone, so calling it again with the same inputs yields nothing new.
func (s *Scheduler) GenerateInitial(med models.Medication, existing []models.Occurrence, refDay time.Time, horizonDays int) []models.Occurrence {
	if !med.Active || !med.IsScheduled() || med.StartDate == "" {
		return nil
	}
	anchor, err := utils.ParseDay(med.StartDate)
	if err != nil {
		return nil
	}

	ref := utils.Day(refDay)
	start := ref
	if anchor.After(start) {
		start = anchor
	}
	if horizonDays < constants.MinGenerationHorizonDays {
		horizonDays = constants.MinGenerationHorizonDays
	}
	end := utils.AddDays(ref, horizonDays)
	if med.EndDate != "" {
		if last, err := utils.ParseDay(med.EndDate); err == nil && last.Before(end) {
			end = last
		}
	}
	if start.After(end) {
		return nil
	}

	live := make(map[string]bool)
	for _, occ := range existing {
		if occ.MedicationID == med.ID && occ.IsScheduled() {
			live[occ.Day] = true
		}
	}

	var created []models.Occurrence
	now := s.now()
	for day := start; !day.After(end); day = utils.AddDays(day, 1) {
		if !utils.IsDue(med, day) {
			continue
		}
		key := utils.DayKey(day)
		if live[key] {
			continue
		}
		created = append(created, models.Occurrence{
			ID:           s.NewID(),
			MedicationID: med.ID,
			Day:          key,
			Time:         s.timeOfDay(med),
			Source:       models.OccurrenceSourceScheduled,
			CreatedAt:    now,
		})
		live[key] = true
	}
	return created
}

// Bootstrap removes duplicates and fills the generation window for one
// medication.
func (s *Scheduler) Bootstrap(snap Snapshot, refDay time.Time, horizonDays int) storage.Changeset {
	var cs storage.Changeset

	dupes := Deduplicate(snap.Occurrences, snap.Logs)
	cs.DeleteOccurrences = idsOf(dupes)

	survivors := without(snap.Occurrences, cs.DeleteOccurrences)
	cs.InsertOccurrences = s.GenerateInitial(snap.Medication, survivors, refDay, horizonDays)
	settleLogs(&cs, snap.Logs, append(survivors, cs.InsertOccurrences...), s.now())
	return cs
}

// RegenerateFuture drops every untaken scheduled occurrence on or after pivot
// and generates the window again from pivot. Occurrences linked to a taken log
// entry survive and count as already present. Untaken log entries of dropped
// occurrences move to the new occurrence on their day, or go when the day is
// no longer due.
func (s *Scheduler) RegenerateFuture(snap Snapshot, pivot time.Time, horizonDays int) storage.Changeset {
	cs, remaining := s.regenerate(snap, pivot, horizonDays)
	settleLogs(&cs, snap.Logs, remaining, s.now())
	return cs
}

// regenerate is RegenerateFuture without the log bookkeeping. It also returns
// the medication's occurrences as they stand once the changeset is applied.
func (s *Scheduler) regenerate(snap Snapshot, pivot time.Time, horizonDays int) (storage.Changeset, []models.Occurrence) {
	var cs storage.Changeset
	pivotKey := utils.DayKey(utils.Day(pivot))
	taken := takenOccurrenceIDs(snap.Logs)

	var survivors []models.Occurrence
	for _, occ := range snap.Occurrences {
		if occ.MedicationID == snap.Medication.ID && occ.IsScheduled() && occ.Day >= pivotKey && !taken[occ.ID] {
			cs.DeleteOccurrences = append(cs.DeleteOccurrences, occ.ID)
			continue
		}
		survivors = append(survivors, occ)
	}

	cs.InsertOccurrences = s.GenerateInitial(snap.Medication, survivors, pivot, horizonDays)
	return cs, append(survivors, cs.InsertOccurrences...)
}

func (s *Scheduler) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Scheduler) timeOfDay(med models.Medication) string {
	if utils.ValidateTimeFormat(med.TimeOfDay) {
		return med.TimeOfDay
	}
	if utils.ValidateTimeFormat(s.DefaultTimeOfDay) {
		return s.DefaultTimeOfDay
	}
	return constants.DefaultTimeOfDay
}

func takenOccurrenceIDs(logs []models.LogEntry) map[string]bool {
	taken := make(map[string]bool)
	for _, entry := range logs {
		if entry.Taken && entry.OccurrenceID != "" {
			taken[entry.OccurrenceID] = true
		}
	}
	return taken
}

func idsOf(occs []models.Occurrence) []string {
	ids := make([]string, 0, len(occs))
	for _, occ := range occs {
		ids = append(ids, occ.ID)
	}
	return ids
}

func without(occs []models.Occurrence, ids []string) []models.Occurrence {
	if len(ids) == 0 {
		return occs
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var out []models.Occurrence
	for _, occ := range occs {
		if !drop[occ.ID] {
			out = append(out, occ)
		}
	}
	return out
}
