package storage

import (
	"context"

	"github.com/julianstephens/dosekeep/internal/models"
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Medications
	AddMedication(models.Medication) error
	GetMedication(id string) (models.Medication, error)
	GetMedicationByName(name string) (models.Medication, error)
	GetAllMedications(includeDeleted bool) ([]models.Medication, error)
	UpdateMedication(models.Medication) error
	// DeleteMedication soft-deletes the medication and removes its occurrences
	// and log entries. It is the only path that deletes taken history.
	DeleteMedication(id string) error

	// Occurrences
	GetOccurrence(id string) (models.Occurrence, error)
	GetOccurrencesForMedication(medicationID string) ([]models.Occurrence, error)
	// GetOccurrencesInRange returns occurrences whose day falls within
	// [startDay, endDay], both YYYY-MM-DD and inclusive.
	GetOccurrencesInRange(startDay, endDay string) ([]models.Occurrence, error)

	// Log entries
	GetLog(id string) (models.LogEntry, error)
	GetLogsForMedication(medicationID string, startDay, endDay string) ([]models.LogEntry, error)
	GetLogsInRange(startDay, endDay string) ([]models.LogEntry, error)

	// Commit applies every change in cs atomically: either all of it is
	// persisted or none of it is.
	Commit(ctx context.Context, cs Changeset) error

	// Utils
	GetConfigPath() string
}
