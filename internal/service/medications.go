package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/logger"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/storage"
	"github.com/julianstephens/dosekeep/internal/utils"
	"github.com/julianstephens/dosekeep/internal/validation"
)

// AddMedication stores a new medication and generates its occurrences. Active
// medications without a start date are anchored on today.
func (s *Service) AddMedication(ctx context.Context, med models.Medication) (models.Medication, error) {
	if med.ID == "" {
		med.ID = uuid.New().String()
	}
	applyMedicationDefaults(&med)

	_, err := s.apply(ctx, OpAddMedication, med.ID, s.lockMedication(med.ID), func() (storage.Changeset, error) {
		e, err := s.env(OpAddMedication)
		if err != nil {
			return storage.Changeset{}, err
		}
		if med.Active && med.StartDate == "" {
			med.StartDate = utils.DayKey(e.today)
		}
		med.CreatedAt = e.now
		med.UpdatedAt = e.now
		if err := validation.ValidateMedication(med); err != nil {
			return storage.Changeset{}, err
		}

		cs := storage.Changeset{UpdateMedications: []models.Medication{med}}
		cs.InsertOccurrences = s.schedulerFor(e).GenerateInitial(med, nil, e.today, e.settings.HorizonDays)
		return cs, nil
	})
	if err != nil {
		return models.Medication{}, err
	}
	return med, nil
}

// UpdateMedication saves edits to an existing medication. Schedule changes
// take effect from today: future untaken occurrences are regenerated.
func (s *Service) UpdateMedication(ctx context.Context, med models.Medication) (models.Medication, error) {
	applyMedicationDefaults(&med)

	_, err := s.apply(ctx, OpUpdateMedication, med.ID, s.lockMedication(med.ID), func() (storage.Changeset, error) {
		e, err := s.env(OpUpdateMedication)
		if err != nil {
			return storage.Changeset{}, err
		}
		snap, err := s.snapshot(OpUpdateMedication, med.ID)
		if err != nil {
			return storage.Changeset{}, err
		}
		med.CreatedAt = snap.Medication.CreatedAt
		med.UpdatedAt = e.now
		if med.Active && med.StartDate == "" {
			med.StartDate = utils.DayKey(e.today)
		}
		if err := validation.ValidateMedication(med); err != nil {
			return storage.Changeset{}, err
		}
		snap.Medication = med

		cs := storage.Changeset{UpdateMedications: []models.Medication{med}}
		cs.Merge(s.schedulerFor(e).RegenerateFuture(snap, e.today, e.settings.HorizonDays))
		return cs, nil
	})
	if err != nil {
		return models.Medication{}, err
	}
	return med, nil
}

// SetStock replaces the on-hand stock and turns stock tracking on. The
// schedule is left alone.
func (s *Service) SetStock(ctx context.Context, medID string, stock decimal.Decimal) (models.Medication, error) {
	if stock.IsNegative() {
		return models.Medication{}, fmt.Errorf("stock cannot be negative: %s", stock)
	}
	var med models.Medication
	_, err := s.apply(ctx, OpUpdateMedication, medID, s.lockMedication(medID), func() (storage.Changeset, error) {
		current, err := s.store.GetMedication(medID)
		if err != nil {
			return storage.Changeset{}, readErr(OpUpdateMedication, err)
		}
		med = current
		med.Stock = stock
		med.TrackStock = true
		med.UpdatedAt = s.clock.Now()
		return storage.Changeset{UpdateMedications: []models.Medication{med}}, nil
	})
	if err != nil {
		return models.Medication{}, err
	}
	return med, nil
}

// Activate turns a medication on. start, when given, becomes the new anchor;
// otherwise an existing anchor is kept and a missing one becomes today.
func (s *Service) Activate(ctx context.Context, medID string, start *time.Time) (storage.Changeset, error) {
	return s.setActive(ctx, OpActivate, medID, true, start)
}

// Deactivate turns a medication off and removes its future untaken
// occurrences. Past and taken history stays.
func (s *Service) Deactivate(ctx context.Context, medID string) (storage.Changeset, error) {
	return s.setActive(ctx, OpDeactivate, medID, false, nil)
}

func (s *Service) setActive(ctx context.Context, op Op, medID string, active bool, start *time.Time) (storage.Changeset, error) {
	return s.apply(ctx, op, medID, s.lockMedication(medID), func() (storage.Changeset, error) {
		e, err := s.env(op)
		if err != nil {
			return storage.Changeset{}, err
		}
		snap, err := s.snapshot(op, medID)
		if err != nil {
			return storage.Changeset{}, err
		}

		med := snap.Medication
		med.Active = active
		if start != nil {
			med.StartDate = utils.DayKey(utils.Day(*start))
		} else if active && med.StartDate == "" {
			med.StartDate = utils.DayKey(e.today)
		}
		if active {
			if err := validation.ValidateMedication(med); err != nil {
				return storage.Changeset{}, err
			}
		}
		med.UpdatedAt = e.now
		snap.Medication = med

		cs := storage.Changeset{UpdateMedications: []models.Medication{med}}
		cs.Merge(s.schedulerFor(e).RegenerateFuture(snap, e.today, e.settings.HorizonDays))
		return cs, nil
	})
}

// DeleteMedication soft-deletes a medication together with its occurrences
// and log entries.
func (s *Service) DeleteMedication(ctx context.Context, medID string) error {
	unlock := s.lockMedication(medID)
	err := s.store.DeleteMedication(medID)
	unlock()

	if err != nil {
		return readErr(OpDelete, err)
	}
	logger.Info("Deleted medication", "medication_id", medID)
	s.fire(ctx, Event{Op: OpDelete, MedicationID: medID, At: s.clock.Now()})
	return nil
}

// FindMedication resolves a medication by ID, then by exact name.
func (s *Service) FindMedication(ref string) (models.Medication, error) {
	med, err := s.store.GetMedication(ref)
	if err == nil {
		return med, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return models.Medication{}, readErr(OpProjection, err)
	}
	med, err = s.store.GetMedicationByName(ref)
	if err != nil {
		return models.Medication{}, readErr(OpProjection, err)
	}
	return med, nil
}

func applyMedicationDefaults(med *models.Medication) {
	if med.Kind == "" {
		med.Kind = models.MedicationKindScheduled
	}
	if med.RepeatUnit == "" {
		med.RepeatUnit = models.RepeatUnitDay
	}
	if med.Interval == 0 {
		med.Interval = 1
	}
	if med.DoseAmount.IsZero() {
		med.DoseAmount = decimal.NewFromInt(1)
	}
}
