package service

import (
	"context"
	"time"

	"github.com/julianstephens/dosekeep/internal/projection"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// PendingCount is projection.PendingCount over the stored data.
func (s *Service) PendingCount(ctx context.Context, ref time.Time) (int, error) {
	pending, err := s.PendingMedications(ctx, ref)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// PendingMedications is projection.PendingMedications over the stored data.
func (s *Service) PendingMedications(ctx context.Context, ref time.Time) ([]projection.Pending, error) {
	e, err := s.env(OpProjection)
	if err != nil {
		return nil, err
	}
	opts := projection.OptionsFromSettings(e.settings)

	meds, err := s.store.GetAllMedications(false)
	if err != nil {
		return nil, readErr(OpProjection, err)
	}

	ref = utils.Day(ref)
	start := utils.DayKey(utils.AddDays(ref, -opts.LookbackDays))
	logs, err := s.store.GetLogsInRange(start, utils.DayKey(ref))
	if err != nil {
		return nil, readErr(OpProjection, err)
	}
	return projection.PendingMedications(meds, logs, ref, opts), nil
}

// RunOut is the stock projection for one medication.
type RunOut struct {
	MedicationID string `json:"medication_id"`
	Known        bool   `json:"known"`
	Day          string `json:"day,omitempty"`
	DaysOfSupply int    `json:"days_of_supply,omitempty"`
}

// EstimatedRunOutDate projects when a stock-tracking medication runs out.
// Known is false when stock is not tracked or depletion is not reached.
func (s *Service) EstimatedRunOutDate(ctx context.Context, medID string, ref time.Time) (RunOut, error) {
	med, err := s.store.GetMedication(medID)
	if err != nil {
		return RunOut{}, readErr(OpProjection, err)
	}

	out := RunOut{MedicationID: med.ID}
	if !med.TrackStock {
		return out, nil
	}
	ref = utils.Day(ref)
	day, ok := projection.EstimatedRunOutDateForStock(med, med.Stock, med.EffectiveDoseAmount(), ref)
	if !ok {
		return out, nil
	}
	out.Known = true
	out.Day = utils.DayKey(day)
	out.DaysOfSupply = utils.DaysBetween(ref, day) + 1
	return out, nil
}
