package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/config"
	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/service"
	"github.com/julianstephens/dosekeep/internal/storage/memory"
	"github.com/julianstephens/dosekeep/internal/utils"
)

var testNow = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func everyOtherDay() models.Medication {
	return models.Medication{
		ID:         "iron",
		Name:       "Iron",
		Kind:       models.MedicationKindScheduled,
		Active:     true,
		RepeatUnit: models.RepeatUnitDay,
		Interval:   2,
		StartDate:  "2024-01-10",
		TimeOfDay:  "08:00",
		DoseAmount: decimal.NewFromInt(1),
	}
}

// setupTestContext seeds Iron without any occurrences.
func setupTestContext(t *testing.T) (*cli.Context, *memory.Store) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Init())
	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	require.NoError(t, store.SaveSettings(settings))
	store.Seed([]models.Medication{everyOtherDay()}, nil, nil)
	return cli.NewContext(store, config.Default(), nil, service.WithClock(utils.FixedClock{At: testNow})), store
}

func occurrenceDays(t *testing.T, store *memory.Store) []string {
	t.Helper()
	occs, err := store.GetOccurrencesForMedication("iron")
	require.NoError(t, err)
	days := make([]string, 0, len(occs))
	for _, occ := range occs {
		days = append(days, occ.Day)
	}
	return days
}

func TestScheduleCmd(t *testing.T) {
	ctx, store := setupTestContext(t)

	require.NoError(t, (&ScheduleCmd{}).Run(ctx))
	days := occurrenceDays(t, store)
	require.True(t, len(days) > 3)
	assert.Equal(t, []string{"2024-01-10", "2024-01-12", "2024-01-14"}, days[:3])

	// Idempotent
	require.NoError(t, (&ScheduleCmd{}).Run(ctx))
	assert.Equal(t, days, occurrenceDays(t, store))

	assert.Error(t, (&ScheduleCmd{Day: "01/10/2024"}).Run(ctx))
}

func TestRegenerateCmd(t *testing.T) {
	ctx, store := setupTestContext(t)
	require.NoError(t, (&ScheduleCmd{}).Run(ctx))
	before := occurrenceDays(t, store)

	require.NoError(t, (&RegenerateCmd{Ref: "Iron", From: "2024-01-12"}).Run(ctx))
	assert.Equal(t, before, occurrenceDays(t, store))

	assert.True(t, errors.Is((&RegenerateCmd{Ref: "Nope"}).Run(ctx), errors.ErrNotFound))
}

func TestMoveCmd(t *testing.T) {
	ctx, store := setupTestContext(t)
	require.NoError(t, (&ScheduleCmd{}).Run(ctx))

	occs, err := store.GetOccurrencesForMedication("iron")
	require.NoError(t, err)
	var target models.Occurrence
	for _, occ := range occs {
		if occ.Day == "2024-01-12" {
			target = occ
		}
	}
	require.NotEmpty(t, target.ID)

	assert.Error(t, (&MoveCmd{OccurrenceID: target.ID, Day: "tomorrow"}).Run(ctx))
	assert.True(t, errors.Is((&MoveCmd{OccurrenceID: "missing", Day: "2024-01-13"}).Run(ctx), errors.ErrNotFound))

	require.NoError(t, (&MoveCmd{OccurrenceID: target.ID, Day: "2024-01-13"}).Run(ctx))
	med, err := store.GetMedication("iron")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-13", med.StartDate)

	days := occurrenceDays(t, store)
	assert.Contains(t, days, "2024-01-13")
	assert.Contains(t, days, "2024-01-15")
	assert.NotContains(t, days, "2024-01-12")
	assert.NotContains(t, days, "2024-01-14")
}

func TestDedupeCmd(t *testing.T) {
	ctx, store := setupTestContext(t)
	require.NoError(t, (&ScheduleCmd{}).Run(ctx))
	before := occurrenceDays(t, store)

	dup := models.Occurrence{
		ID:           "dup",
		MedicationID: "iron",
		Day:          "2024-01-12",
		Time:         "08:00",
		Source:       models.OccurrenceSourceScheduled,
		CreatedAt:    testNow.Add(time.Hour),
	}
	store.Seed(nil, []models.Occurrence{dup}, nil)
	require.Len(t, occurrenceDays(t, store), len(before)+1)

	require.NoError(t, (&DedupeCmd{Ref: "Iron"}).Run(ctx))
	assert.Equal(t, before, occurrenceDays(t, store))
	_, err := store.GetOccurrence("dup")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	dup.ID = "dup-2"
	store.Seed(nil, []models.Occurrence{dup}, nil)
	require.NoError(t, (&DedupeCmd{}).Run(ctx))
	assert.Equal(t, before, occurrenceDays(t, store))
}
