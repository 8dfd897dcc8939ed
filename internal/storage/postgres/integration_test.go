package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/storage"
)

// TestStore_Integration tests the PostgreSQL store with a real database.
// Set POSTGRES_TEST_URL to run it, e.g.
// POSTGRES_TEST_URL="postgres://dosekeep@localhost:5432/dosekeep_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	store := New(connStr)
	require.NoError(t, store.Init())
	defer store.Close()

	t.Run("Settings", func(t *testing.T) {
		settings, err := store.GetSettings()
		require.NoError(t, err)

		settings.HorizonDays = 45
		require.NoError(t, store.SaveSettings(settings))

		updated, err := store.GetSettings()
		require.NoError(t, err)
		assert.Equal(t, 45, updated.HorizonDays)
	})

	t.Run("Medications and Commit", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		med := models.Medication{
			ID:          uuid.New().String(),
			Name:        "Integration Med",
			Kind:        models.MedicationKindScheduled,
			Active:      true,
			RepeatUnit:  models.RepeatUnitMonth,
			Interval:    1,
			StartDate:   "2024-01-31",
			SkippedDays: []string{"2024-02-29"},
			TimeOfDay:   "08:00",
			DoseAmount:  decimal.RequireFromString("1.5"),
			Stock:       decimal.NewFromInt(10),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		require.NoError(t, store.AddMedication(med))

		got, err := store.GetMedication(med.ID)
		require.NoError(t, err)
		assert.Equal(t, med.SkippedDays, got.SkippedDays)
		assert.True(t, med.DoseAmount.Equal(got.DoseAmount))

		occ := models.Occurrence{
			ID: uuid.New().String(), MedicationID: med.ID, Day: "2024-01-31", Time: "08:00",
			Source: models.OccurrenceSourceScheduled, CreatedAt: now,
		}
		require.NoError(t, store.Commit(context.Background(), storage.Changeset{
			InsertOccurrences: []models.Occurrence{occ},
			InsertLogs: []models.LogEntry{{
				ID: uuid.New().String(), MedicationID: med.ID, OccurrenceID: occ.ID, Day: occ.Day,
				CreatedAt: now, UpdatedAt: now,
			}},
		}))

		occs, err := store.GetOccurrencesForMedication(med.ID)
		require.NoError(t, err)
		assert.Len(t, occs, 1)

		require.NoError(t, store.DeleteMedication(med.ID))
		_, err = store.GetMedication(med.ID)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})
}
