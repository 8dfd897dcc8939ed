package api

import (
	"time"

	"github.com/julianstephens/dosekeep/internal/projection"
	"github.com/julianstephens/dosekeep/internal/storage"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ChangesetDTO reports how many records an operation touched.
type ChangesetDTO struct {
	MedicationsUpdated  int `json:"medications_updated"`
	OccurrencesInserted int `json:"occurrences_inserted"`
	OccurrencesUpdated  int `json:"occurrences_updated"`
	OccurrencesDeleted  int `json:"occurrences_deleted"`
	LogsInserted        int `json:"logs_inserted"`
	LogsUpdated         int `json:"logs_updated"`
	LogsDeleted         int `json:"logs_deleted"`
}

func toChangesetDTO(cs storage.Changeset) ChangesetDTO {
	return ChangesetDTO{
		MedicationsUpdated:  len(cs.UpdateMedications),
		OccurrencesInserted: len(cs.InsertOccurrences),
		OccurrencesUpdated:  len(cs.UpdateOccurrences),
		OccurrencesDeleted:  len(cs.DeleteOccurrences),
		LogsInserted:        len(cs.InsertLogs),
		LogsUpdated:         len(cs.UpdateLogs),
		LogsDeleted:         len(cs.DeleteLogs),
	}
}

type BootstrapRequest struct {
	Day         string `json:"day,omitempty"`
	HorizonDays int    `json:"horizon_days,omitempty"`
}

type DayRequest struct {
	Day string `json:"day"`
}

type SetTakenRequest struct {
	Taken   bool       `json:"taken"`
	TakenAt *time.Time `json:"taken_at,omitempty"`
}

type PendingResponse struct {
	Day         string               `json:"day"`
	Count       int                  `json:"count"`
	Medications []projection.Pending `json:"medications"`
}
