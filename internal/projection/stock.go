package projection

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/dosekeep/internal/constants"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// EstimatedRunOutDate returns the day the last of remainingDoses is taken if
// med keeps its schedule from ref onwards. ok is false when the medication is
// not scheduled, there is nothing left, or depletion is not reached within 20
// years.
func EstimatedRunOutDate(med models.Medication, remainingDoses int, ref time.Time) (time.Time, bool) {
	return EstimatedRunOutDateForStock(med, decimal.NewFromInt(int64(remainingDoses)), decimal.NewFromInt(1), ref)
}

// EstimatedRunOutDateForStock is EstimatedRunOutDate for fractional stock:
// each due day consumes perDose units (one unit when perDose is not positive).
func EstimatedRunOutDateForStock(med models.Medication, stock, perDose decimal.Decimal, ref time.Time) (time.Time, bool) {
	if !med.IsScheduled() || !stock.IsPositive() {
		return time.Time{}, false
	}
	if !perDose.IsPositive() {
		perDose = decimal.NewFromInt(1)
	}

	left := stock
	day := utils.Day(ref)
	for i := 0; i < constants.StockProjectionMaxDays; i++ {
		if utils.IsDue(med, day) {
			left = left.Sub(perDose)
			if !left.IsPositive() {
				return day, true
			}
		}
		day = utils.AddDays(day, 1)
	}
	return time.Time{}, false
}

// DaysOfSupply returns how many days from ref the stock lasts, or false when
// unknown.
func DaysOfSupply(med models.Medication, ref time.Time) (int, bool) {
	if !med.TrackStock {
		return 0, false
	}
	runOut, ok := EstimatedRunOutDateForStock(med, med.Stock, med.EffectiveDoseAmount(), ref)
	if !ok {
		return 0, false
	}
	return utils.DaysBetween(ref, runOut) + 1, true
}
