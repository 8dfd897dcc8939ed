package scheduler

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/utils"
)

var fixedNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestScheduler() *Scheduler {
	n := 0
	return &Scheduler{
		NewID: func() string {
			n++
			return fmt.Sprintf("gen-%04d", n)
		},
		Now:              func() time.Time { return fixedNow },
		DefaultTimeOfDay: "08:00",
	}
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := utils.ParseDay(s)
	require.NoError(t, err)
	return d
}

func everyNDays(n int, start string) models.Medication {
	return models.Medication{
		ID:         "med-1",
		Name:       "Vitamin D",
		Kind:       models.MedicationKindScheduled,
		Active:     true,
		RepeatUnit: models.RepeatUnitDay,
		Interval:   n,
		StartDate:  start,
	}
}

func days(occs []models.Occurrence) []string {
	var out []string
	for _, o := range occs {
		out = append(out, o.Day)
	}
	sort.Strings(out)
	return out
}

// apply mimics committing a changeset to an occurrence list.
func apply(occs []models.Occurrence, deletes []string, inserts, updates []models.Occurrence) []models.Occurrence {
	drop := make(map[string]bool)
	for _, id := range deletes {
		drop[id] = true
	}
	upd := make(map[string]models.Occurrence)
	for _, o := range updates {
		upd[o.ID] = o
	}
	var out []models.Occurrence
	for _, o := range occs {
		if drop[o.ID] {
			continue
		}
		if u, ok := upd[o.ID]; ok {
			o = u
		}
		out = append(out, o)
	}
	return append(out, inserts...)
}

func TestGenerateInitial_WindowAndCadence(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(3, "2024-01-01")

	occs := s.GenerateInitial(med, nil, day(t, "2024-01-01"), 30)

	require.Len(t, occs, 11) // Jan 1 .. Jan 31 every third day
	assert.Equal(t, "2024-01-01", occs[0].Day)
	assert.Equal(t, "2024-01-04", occs[1].Day)
	assert.Equal(t, "2024-01-31", occs[10].Day)
	for _, o := range occs {
		assert.Equal(t, models.OccurrenceSourceScheduled, o.Source)
		assert.Equal(t, "08:00", o.Time)
		assert.Equal(t, "med-1", o.MedicationID)
	}
}

func TestGenerateInitial_HorizonNeverBelowThirtyDays(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-01")

	short := s.GenerateInitial(med, nil, day(t, "2024-01-01"), 5)
	long := s.GenerateInitial(med, nil, day(t, "2024-01-01"), 60)

	assert.Len(t, short, 31)
	assert.Len(t, long, 61)
}

func TestGenerateInitial_StartsAtAnchorWhenAnchorInFuture(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-20")

	occs := s.GenerateInitial(med, nil, day(t, "2024-01-01"), 30)

	require.NotEmpty(t, occs)
	assert.Equal(t, "2024-01-20", occs[0].Day)
	assert.Equal(t, "2024-01-31", occs[len(occs)-1].Day)
}

func TestGenerateInitial_RespectsInclusiveEndDate(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(2, "2024-01-01")
	med.EndDate = "2024-01-09"

	occs := s.GenerateInitial(med, nil, day(t, "2024-01-01"), 30)
	assert.Equal(t, []string{"2024-01-01", "2024-01-03", "2024-01-05", "2024-01-07", "2024-01-09"}, days(occs))

	// End before reference: empty range.
	assert.Empty(t, s.GenerateInitial(med, nil, day(t, "2024-02-01"), 30))
}

func TestGenerateInitial_SkipsInactiveOccasionalAndUnanchored(t *testing.T) {
	s := newTestScheduler()
	ref := day(t, "2024-01-01")

	inactive := everyNDays(1, "2024-01-01")
	inactive.Active = false
	assert.Empty(t, s.GenerateInitial(inactive, nil, ref, 30))

	occasional := everyNDays(1, "2024-01-01")
	occasional.Kind = models.MedicationKindOccasional
	assert.Empty(t, s.GenerateInitial(occasional, nil, ref, 30))

	unanchored := everyNDays(1, "")
	assert.Empty(t, s.GenerateInitial(unanchored, nil, ref, 30))
}

func TestGenerateInitial_Idempotent(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(2, "2024-01-01")
	ref := day(t, "2024-01-01")

	first := s.GenerateInitial(med, nil, ref, 30)
	second := s.GenerateInitial(med, first, ref, 30)

	assert.NotEmpty(t, first)
	assert.Empty(t, second)
}

func TestGenerateInitial_ManualOccurrenceDoesNotBlockScheduled(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-01")
	manual := models.Occurrence{ID: "manual", MedicationID: med.ID, Day: "2024-01-01", Source: models.OccurrenceSourceManual}

	occs := s.GenerateInitial(med, []models.Occurrence{manual}, day(t, "2024-01-01"), 30)
	assert.Equal(t, "2024-01-01", occs[0].Day)
}

func TestGenerateInitial_MonthlyClamp(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-31")
	med.RepeatUnit = models.RepeatUnitMonth

	occs := s.GenerateInitial(med, nil, day(t, "2024-01-01"), 120)
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}, days(occs))
}

func TestGenerateInitial_UsesMedicationTimeOfDay(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-01")
	med.TimeOfDay = "21:30"

	occs := s.GenerateInitial(med, nil, day(t, "2024-01-01"), 30)
	require.NotEmpty(t, occs)
	assert.Equal(t, "21:30", occs[0].Time)
}

func TestRegenerateFuture_PreservesTakenHistory(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-01")
	ref := day(t, "2024-01-01")
	occs := s.GenerateInitial(med, nil, ref, 30)

	// Jan 5 was taken.
	var takenOcc models.Occurrence
	for _, o := range occs {
		if o.Day == "2024-01-05" {
			takenOcc = o
		}
	}
	logs := []models.LogEntry{{ID: "log-1", MedicationID: med.ID, OccurrenceID: takenOcc.ID, Day: "2024-01-05", Taken: true}}

	// Switch to every other day from Jan 3.
	med.Interval = 2
	cs := s.RegenerateFuture(Snapshot{Medication: med, Occurrences: occs, Logs: logs}, day(t, "2024-01-03"), 30)

	assert.NotContains(t, cs.DeleteOccurrences, takenOcc.ID)
	result := apply(occs, cs.DeleteOccurrences, cs.InsertOccurrences, nil)

	var jan5 int
	for _, o := range result {
		if o.Day == "2024-01-05" {
			jan5++
			assert.Equal(t, takenOcc.ID, o.ID)
		}
	}
	assert.Equal(t, 1, jan5)
	assert.Contains(t, days(result), "2024-01-02")     // before pivot, untouched
	assert.NotContains(t, days(result), "2024-01-04")  // no longer due
	assert.Contains(t, days(result), "2024-01-03")
}

func TestRegenerateFuture_InactiveOnlyDeletes(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-01")
	occs := s.GenerateInitial(med, nil, day(t, "2024-01-01"), 30)

	med.Active = false
	cs := s.RegenerateFuture(Snapshot{Medication: med, Occurrences: occs}, day(t, "2024-01-10"), 30)

	assert.Empty(t, cs.InsertOccurrences)
	assert.Len(t, cs.DeleteOccurrences, 22) // Jan 10 .. Jan 31
}

func TestRegenerateFuture_LeavesManualOccurrences(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-01")
	manual := models.Occurrence{ID: "manual", MedicationID: med.ID, Day: "2024-01-15", Source: models.OccurrenceSourceManual}

	cs := s.RegenerateFuture(Snapshot{Medication: med, Occurrences: []models.Occurrence{manual}}, day(t, "2024-01-01"), 30)
	assert.NotContains(t, cs.DeleteOccurrences, "manual")
}

func TestBootstrap_DedupesThenFills(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-01")
	older := models.Occurrence{ID: "b", MedicationID: med.ID, Day: "2024-01-01", Source: models.OccurrenceSourceScheduled, CreatedAt: fixedNow.Add(-time.Hour)}
	newer := models.Occurrence{ID: "a", MedicationID: med.ID, Day: "2024-01-01", Source: models.OccurrenceSourceScheduled, CreatedAt: fixedNow}

	cs := s.Bootstrap(Snapshot{Medication: med, Occurrences: []models.Occurrence{older, newer}}, day(t, "2024-01-01"), 30)

	assert.Equal(t, []string{"a"}, cs.DeleteOccurrences)
	assert.Len(t, cs.InsertOccurrences, 30) // Jan 2 .. Jan 31
	assert.NotContains(t, days(cs.InsertOccurrences), "2024-01-01")
}

func TestMoveAndReflow_ReanchorsCadence(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(3, "2024-01-01")
	occs := s.GenerateInitial(med, nil, day(t, "2024-01-01"), 30)

	var target models.Occurrence
	for _, o := range occs {
		if o.Day == "2024-01-07" {
			target = o
		}
	}
	logs := []models.LogEntry{{ID: "l", MedicationID: med.ID, OccurrenceID: target.ID, Day: "2024-01-07"}}

	cs, err := s.MoveAndReflow(Snapshot{Medication: med, Occurrences: occs, Logs: logs}, target.ID, day(t, "2024-01-08"), 30)
	require.NoError(t, err)

	require.Len(t, cs.UpdateMedications, 1)
	assert.Equal(t, "2024-01-08", cs.UpdateMedications[0].StartDate)
	require.Len(t, cs.UpdateLogs, 1)
	assert.Equal(t, "2024-01-08", cs.UpdateLogs[0].Day)

	result := apply(occs, cs.DeleteOccurrences, cs.InsertOccurrences, cs.UpdateOccurrences)
	moved := cs.UpdateMedications[0]
	for _, o := range result {
		if o.Day > "2024-01-08" {
			assert.True(t, utils.IsDue(moved, day(t, o.Day)), "day %s should follow the new anchor", o.Day)
		}
	}
	got := days(result)
	assert.Contains(t, got, "2024-01-01")
	assert.Contains(t, got, "2024-01-04")
	assert.Contains(t, got, "2024-01-08")
	assert.Contains(t, got, "2024-01-11")
	assert.NotContains(t, got, "2024-01-07")
	assert.NotContains(t, got, "2024-01-10")
}

func TestMoveAndReflow_MergesWithOccurrenceOnTargetDay(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-01")
	occs := s.GenerateInitial(med, nil, day(t, "2024-01-01"), 30)

	var jan3, jan4 models.Occurrence
	for _, o := range occs {
		switch o.Day {
		case "2024-01-03":
			jan3 = o
		case "2024-01-04":
			jan4 = o
		}
	}

	cs, err := s.MoveAndReflow(Snapshot{Medication: med, Occurrences: occs}, jan3.ID, day(t, "2024-01-04"), 30)
	require.NoError(t, err)
	assert.Contains(t, cs.DeleteOccurrences, jan4.ID)

	result := apply(occs, cs.DeleteOccurrences, cs.InsertOccurrences, cs.UpdateOccurrences)
	assert.Empty(t, Deduplicate(result, nil))
}

func TestMoveAndReflow_Occasional(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-01")
	med.Kind = models.MedicationKindOccasional
	occ := models.Occurrence{ID: "o1", MedicationID: med.ID, Day: "2024-01-01", Source: models.OccurrenceSourceScheduled}

	cs, err := s.MoveAndReflow(Snapshot{Medication: med, Occurrences: []models.Occurrence{occ}}, "o1", day(t, "2024-01-05"), 30)
	require.NoError(t, err)

	assert.Empty(t, cs.InsertOccurrences)
	assert.Empty(t, cs.DeleteOccurrences)
	require.Len(t, cs.UpdateOccurrences, 1)
	assert.Equal(t, "2024-01-05", cs.UpdateOccurrences[0].Day)
	assert.Equal(t, "2024-01-05", cs.UpdateMedications[0].StartDate)
}

func TestMoveAndReflow_UnknownOccurrence(t *testing.T) {
	s := newTestScheduler()
	_, err := s.MoveAndReflow(Snapshot{Medication: everyNDays(1, "2024-01-01")}, "missing", day(t, "2024-01-05"), 30)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRegenerateFuture_SettlesUntakenLogs(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-01")
	occs := s.GenerateInitial(med, nil, day(t, "2024-01-01"), 30)

	byDay := make(map[string]models.Occurrence)
	for _, o := range occs {
		byDay[o.Day] = o
	}
	logs := []models.LogEntry{
		{ID: "l3", MedicationID: med.ID, OccurrenceID: byDay["2024-01-03"].ID, Day: "2024-01-03"},
		{ID: "l4", MedicationID: med.ID, OccurrenceID: byDay["2024-01-04"].ID, Day: "2024-01-04"},
		{ID: "l5", MedicationID: med.ID, OccurrenceID: byDay["2024-01-05"].ID, Day: "2024-01-05", Taken: true},
	}

	med.Interval = 2
	cs := s.RegenerateFuture(Snapshot{Medication: med, Occurrences: occs, Logs: logs}, day(t, "2024-01-03"), 30)

	// Jan 3 is still due: its entry follows the new occurrence.
	require.Len(t, cs.UpdateLogs, 1)
	assert.Equal(t, "l3", cs.UpdateLogs[0].ID)
	var jan3 models.Occurrence
	for _, o := range cs.InsertOccurrences {
		if o.Day == "2024-01-03" {
			jan3 = o
		}
	}
	require.NotEmpty(t, jan3.ID)
	assert.Equal(t, jan3.ID, cs.UpdateLogs[0].OccurrenceID)

	// Jan 4 no longer is: its untaken entry goes. The taken Jan 5 entry stays.
	assert.Equal(t, []string{"l4"}, cs.DeleteLogs)
}

func TestMoveAndReflow_MergedOccurrenceLogIsDropped(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-01")
	occs := s.GenerateInitial(med, nil, day(t, "2024-01-01"), 30)

	var jan3, jan4 models.Occurrence
	for _, o := range occs {
		switch o.Day {
		case "2024-01-03":
			jan3 = o
		case "2024-01-04":
			jan4 = o
		}
	}
	logs := []models.LogEntry{
		{ID: "moving", MedicationID: med.ID, OccurrenceID: jan3.ID, Day: "2024-01-03"},
		{ID: "target", MedicationID: med.ID, OccurrenceID: jan4.ID, Day: "2024-01-04"},
	}

	cs, err := s.MoveAndReflow(Snapshot{Medication: med, Occurrences: occs, Logs: logs}, jan3.ID, day(t, "2024-01-04"), 30)
	require.NoError(t, err)

	assert.Contains(t, cs.DeleteOccurrences, jan4.ID)
	assert.Equal(t, []string{"target"}, cs.DeleteLogs, "the moved occurrence already carries an entry for the day")
	require.Len(t, cs.UpdateLogs, 1)
	assert.Equal(t, "moving", cs.UpdateLogs[0].ID)
	assert.Equal(t, jan3.ID, cs.UpdateLogs[0].OccurrenceID)
}

func TestDedupeChangeset_RelinksToKeptOccurrence(t *testing.T) {
	s := newTestScheduler()
	med := everyNDays(1, "2024-01-01")
	kept := models.Occurrence{ID: "kept", MedicationID: med.ID, Day: "2024-01-01", Source: models.OccurrenceSourceScheduled, CreatedAt: fixedNow.Add(-time.Hour)}
	dupe := models.Occurrence{ID: "dupe", MedicationID: med.ID, Day: "2024-01-01", Source: models.OccurrenceSourceScheduled, CreatedAt: fixedNow}
	logs := []models.LogEntry{{ID: "l", MedicationID: med.ID, OccurrenceID: "dupe", Day: "2024-01-01"}}

	cs := s.DedupeChangeset(Snapshot{Medication: med, Occurrences: []models.Occurrence{kept, dupe}, Logs: logs})

	assert.Equal(t, []string{"dupe"}, cs.DeleteOccurrences)
	assert.Empty(t, cs.DeleteLogs)
	require.Len(t, cs.UpdateLogs, 1)
	assert.Equal(t, "kept", cs.UpdateLogs[0].OccurrenceID)
	assert.Equal(t, fixedNow, cs.UpdateLogs[0].UpdatedAt)
}
