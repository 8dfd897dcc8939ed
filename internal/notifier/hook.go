package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/dosekeep/internal/constants"
	"github.com/julianstephens/dosekeep/internal/logger"
	"github.com/julianstephens/dosekeep/internal/projection"
	"github.com/julianstephens/dosekeep/internal/service"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// StockHook returns a post-commit hook that warns when taking a dose leaves a
// stock-tracking medication with constants.LowStockDays or fewer days of supply.
// enabled is consulted on every event so a settings change applies at once.
// Supply is counted from tomorrow when the dose taken was today's.
func StockHook(sender Sender, enabled func() bool) service.Hook {
	return func(_ context.Context, ev service.Event) {
		if ev.Op != service.OpSetTaken || !enabled() {
			return
		}
		for _, med := range ev.Changeset.UpdateMedications {
			if !med.TrackStock {
				continue
			}
			text := ""
			if !med.Stock.IsPositive() {
				text = fmt.Sprintf("%s is out of stock", med.Name)
			} else if days, ok := projection.DaysOfSupply(med, supplyFrom(ev, med.ID)); ok && days <= constants.LowStockDays {
				text = fmt.Sprintf("%s runs out in %d day(s), time to refill", med.Name, days)
			}
			if text == "" {
				continue
			}
			if err := sender.Notify(text); err != nil {
				logger.Warn("Failed to send stock notification", "medication_id", med.ID, "error", err)
			}
		}
	}
}

// supplyFrom returns the first day whose dose is still to come.
func supplyFrom(ev service.Event, medID string) time.Time {
	today := utils.Day(ev.At)
	for _, entry := range ev.Changeset.UpdateLogs {
		if entry.MedicationID == medID && entry.Taken && entry.Day == utils.DayKey(today) {
			return utils.AddDays(today, 1)
		}
	}
	return today
}
