package service

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/logger"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/storage"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// BootstrapScheduledOccurrences dedupes and fills the generation window of
// every active scheduled medication in one commit. horizonDays <= 0 uses the
// configured horizon.
func (s *Service) BootstrapScheduledOccurrences(ctx context.Context, refDay time.Time, horizonDays int) (storage.Changeset, error) {
	return s.apply(ctx, OpBootstrap, "", s.lockAll(), func() (storage.Changeset, error) {
		e, err := s.env(OpBootstrap)
		if err != nil {
			return storage.Changeset{}, err
		}
		if horizonDays <= 0 {
			horizonDays = e.settings.HorizonDays
		}

		meds, err := s.store.GetAllMedications(false)
		if err != nil {
			return storage.Changeset{}, readErr(OpBootstrap, err)
		}

		sched := s.schedulerFor(e)
		var cs storage.Changeset
		for _, med := range meds {
			if !med.Active || !med.IsScheduled() {
				continue
			}
			snap, err := s.snapshot(OpBootstrap, med.ID)
			if err != nil {
				return storage.Changeset{}, err
			}
			cs.Merge(sched.Bootstrap(snap, refDay, horizonDays))
		}
		return cs, nil
	})
}

// RegenerateFuture rebuilds the occurrences of one medication from pivot on.
func (s *Service) RegenerateFuture(ctx context.Context, medID string, pivot time.Time) (storage.Changeset, error) {
	return s.apply(ctx, OpRegenerate, medID, s.lockMedication(medID), func() (storage.Changeset, error) {
		e, err := s.env(OpRegenerate)
		if err != nil {
			return storage.Changeset{}, err
		}
		snap, err := s.snapshot(OpRegenerate, medID)
		if err != nil {
			return storage.Changeset{}, err
		}
		return s.schedulerFor(e).RegenerateFuture(snap, pivot, e.settings.HorizonDays), nil
	})
}

// MoveAndReflow moves an occurrence to newDay and re-seeds its medication's
// cadence from there.
func (s *Service) MoveAndReflow(ctx context.Context, occurrenceID string, newDay time.Time) (storage.Changeset, error) {
	occ, err := s.store.GetOccurrence(occurrenceID)
	if err != nil {
		return storage.Changeset{}, readErr(OpMove, err)
	}

	medID := occ.MedicationID
	return s.apply(ctx, OpMove, medID, s.lockMedication(medID), func() (storage.Changeset, error) {
		e, err := s.env(OpMove)
		if err != nil {
			return storage.Changeset{}, err
		}
		snap, err := s.snapshot(OpMove, medID)
		if err != nil {
			return storage.Changeset{}, err
		}
		return s.schedulerFor(e).MoveAndReflow(snap, occurrenceID, newDay, e.settings.HorizonDays)
	})
}

// Deduplicate removes duplicate scheduled occurrences of one medication.
func (s *Service) Deduplicate(ctx context.Context, medID string) (storage.Changeset, error) {
	return s.apply(ctx, OpDedupe, medID, s.lockMedication(medID), func() (storage.Changeset, error) {
		snap, err := s.snapshot(OpDedupe, medID)
		if err != nil {
			return storage.Changeset{}, err
		}
		return s.sched.DedupeChangeset(snap), nil
	})
}

// DeduplicateAll runs Deduplicate for every medication in one commit.
func (s *Service) DeduplicateAll(ctx context.Context) (storage.Changeset, error) {
	return s.apply(ctx, OpDedupe, "", s.lockAll(), func() (storage.Changeset, error) {
		meds, err := s.store.GetAllMedications(false)
		if err != nil {
			return storage.Changeset{}, readErr(OpDedupe, err)
		}
		var cs storage.Changeset
		for _, med := range meds {
			snap, err := s.snapshot(OpDedupe, med.ID)
			if err != nil {
				return storage.Changeset{}, err
			}
			cs.Merge(s.sched.DedupeChangeset(snap))
		}
		return cs, nil
	})
}


// SkipDay adds day to the medication's skip list. Untaken occurrences and
// untaken log entries on that day go away; taken ones are history and stay.
func (s *Service) SkipDay(ctx context.Context, medID string, day time.Time) (storage.Changeset, error) {
	return s.apply(ctx, OpSkipDay, medID, s.lockMedication(medID), func() (storage.Changeset, error) {
		e, err := s.env(OpSkipDay)
		if err != nil {
			return storage.Changeset{}, err
		}
		snap, err := s.snapshot(OpSkipDay, medID)
		if err != nil {
			return storage.Changeset{}, err
		}

		day = utils.Day(day)
		key := utils.DayKey(day)
		med := snap.Medication
		if !med.IsScheduled() {
			return storage.Changeset{}, fmt.Errorf("%w: only scheduled medications can skip days", errors.ErrInvalidRecurrence)
		}
		if med.IsSkipped(key) {
			logger.Debug("Day already skipped", "medication_id", medID, "day", key)
			return storage.Changeset{}, nil
		}

		med.SkippedDays = append(append([]string(nil), med.SkippedDays...), key)
		med.UpdatedAt = e.now

		taken := make(map[string]bool)
		for _, entry := range snap.Logs {
			if entry.Taken && entry.OccurrenceID != "" {
				taken[entry.OccurrenceID] = true
			}
		}

		cs := storage.Changeset{UpdateMedications: []models.Medication{med}}
		for _, occ := range snap.Occurrences {
			if occ.Day == key && occ.IsScheduled() && !taken[occ.ID] {
				cs.DeleteOccurrences = append(cs.DeleteOccurrences, occ.ID)
			}
		}
		for _, entry := range snap.Logs {
			if entry.Day == key && !entry.Taken {
				cs.DeleteLogs = append(cs.DeleteLogs, entry.ID)
			}
		}
		return cs, nil
	})
}
