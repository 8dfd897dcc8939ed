package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/reconcile"
	"github.com/julianstephens/dosekeep/internal/storage"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// MaxEnsureRangeDays bounds EnsureLogsRange.
const MaxEnsureRangeDays = 366

// EnsureLogs makes sure day has a log entry for every occurrence on it and
// for every active medication due on it.
func (s *Service) EnsureLogs(ctx context.Context, day time.Time) (storage.Changeset, error) {
	return s.EnsureLogsRange(ctx, day, day)
}

// EnsureLogsRange runs EnsureLogs for every day in [start, end] in one commit.
func (s *Service) EnsureLogsRange(ctx context.Context, start, end time.Time) (storage.Changeset, error) {
	start, end = utils.Day(start), utils.Day(end)
	if end.Before(start) {
		return storage.Changeset{}, fmt.Errorf("end day %s is before start day %s", utils.DayKey(end), utils.DayKey(start))
	}
	if n := utils.DaysBetween(start, end) + 1; n > MaxEnsureRangeDays {
		return storage.Changeset{}, fmt.Errorf("range of %d days exceeds the maximum of %d", n, MaxEnsureRangeDays)
	}

	return s.apply(ctx, OpEnsureLogs, "", s.lockAll(), func() (storage.Changeset, error) {
		startKey, endKey := utils.DayKey(start), utils.DayKey(end)
		now := s.clock.Now()

		meds, err := s.store.GetAllMedications(false)
		if err != nil {
			return storage.Changeset{}, readErr(OpEnsureLogs, err)
		}
		occs, err := s.store.GetOccurrencesInRange(startKey, endKey)
		if err != nil {
			return storage.Changeset{}, readErr(OpEnsureLogs, err)
		}
		existing, err := s.store.GetLogsInRange(startKey, endKey)
		if err != nil {
			return storage.Changeset{}, readErr(OpEnsureLogs, err)
		}

		live := make(map[string]bool, len(meds))
		for _, med := range meds {
			live[med.ID] = true
		}
		var liveOccs []models.Occurrence
		for _, occ := range occs {
			if live[occ.MedicationID] {
				liveOccs = append(liveOccs, occ)
			}
		}

		// Occurrence-keyed entries first, so the per-medication pass below sees
		// them and does not add a second unlinked entry for the same day.
		var cs storage.Changeset
		cs.InsertLogs, cs.UpdateLogs = reconcile.EnsureLogsForOccurrences(liveOccs, existing, now)

		known := append(append([]models.LogEntry(nil), existing...), cs.InsertLogs...)
		for day := start; !day.After(end); day = utils.AddDays(day, 1) {
			created := reconcile.EnsureLogs(meds, known, day, now)
			cs.InsertLogs = append(cs.InsertLogs, created...)
			known = append(known, created...)
		}
		return cs, nil
	})
}

// SetTaken records whether the dose behind a log entry was taken. When the
// medication tracks stock, flipping the state consumes or returns one dose.
func (s *Service) SetTaken(ctx context.Context, logID string, taken bool, override *time.Time) (models.LogEntry, error) {
	entry, err := s.store.GetLog(logID)
	if err != nil {
		return models.LogEntry{}, readErr(OpSetTaken, err)
	}

	var updated models.LogEntry
	medID := entry.MedicationID
	_, err = s.apply(ctx, OpSetTaken, medID, s.lockMedication(medID), func() (storage.Changeset, error) {
		e, err := s.env(OpSetTaken)
		if err != nil {
			return storage.Changeset{}, err
		}
		// Re-read under the lock.
		current, err := s.store.GetLog(logID)
		if err != nil {
			return storage.Changeset{}, readErr(OpSetTaken, err)
		}

		updated = reconcile.SetTaken(current, taken, override, e.now, e.loc)
		cs := storage.Changeset{UpdateLogs: []models.LogEntry{updated}}

		if current.Taken == taken {
			return cs, nil
		}
		med, err := s.store.GetMedication(medID)
		if errors.Is(err, errors.ErrNotFound) {
			return cs, nil
		}
		if err != nil {
			return storage.Changeset{}, readErr(OpSetTaken, err)
		}
		if med.TrackStock {
			med.Stock = adjustStock(med.Stock, med.EffectiveDoseAmount(), taken)
			med.UpdatedAt = e.now
			cs.UpdateMedications = append(cs.UpdateMedications, med)
		}
		return cs, nil
	})
	if err != nil {
		return models.LogEntry{}, err
	}
	return updated, nil
}

// adjustStock consumes dose when taken and returns it otherwise. Stock never
// goes below zero.
func adjustStock(stock, dose decimal.Decimal, taken bool) decimal.Decimal {
	if !taken {
		return stock.Add(dose)
	}
	left := stock.Sub(dose)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// Dose is one row of a day sheet.
type Dose struct {
	Medication models.Medication  `json:"medication"`
	Occurrence *models.Occurrence `json:"occurrence,omitempty"`
	Log        models.LogEntry    `json:"log"`
}

// DaySheet reconciles day and returns its log entries joined with their
// medication and occurrence, ordered by time then name.
func (s *Service) DaySheet(ctx context.Context, day time.Time) ([]Dose, error) {
	if _, err := s.EnsureLogs(ctx, day); err != nil {
		return nil, err
	}

	key := utils.DayKey(utils.Day(day))
	logs, err := s.store.GetLogsInRange(key, key)
	if err != nil {
		return nil, readErr(OpEnsureLogs, err)
	}
	occs, err := s.store.GetOccurrencesInRange(key, key)
	if err != nil {
		return nil, readErr(OpEnsureLogs, err)
	}
	meds, err := s.store.GetAllMedications(false)
	if err != nil {
		return nil, readErr(OpEnsureLogs, err)
	}

	medsByID := make(map[string]models.Medication, len(meds))
	for _, med := range meds {
		medsByID[med.ID] = med
	}
	occsByID := make(map[string]models.Occurrence, len(occs))
	for _, occ := range occs {
		occsByID[occ.ID] = occ
	}

	doses := make([]Dose, 0, len(logs))
	for _, entry := range logs {
		med, ok := medsByID[entry.MedicationID]
		if !ok {
			continue
		}
		dose := Dose{Medication: med, Log: entry}
		if occ, ok := occsByID[entry.OccurrenceID]; ok {
			dose.Occurrence = &occ
		}
		doses = append(doses, dose)
	}

	sort.SliceStable(doses, func(i, j int) bool {
		ti, tj := doses[i].time(), doses[j].time()
		if ti != tj {
			return ti < tj
		}
		return doses[i].Medication.Name < doses[j].Medication.Name
	})
	return doses, nil
}

func (d Dose) time() string {
	if d.Occurrence != nil {
		return d.Occurrence.Time
	}
	return d.Medication.TimeOfDay
}
