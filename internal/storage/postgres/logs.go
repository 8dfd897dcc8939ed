package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/models"
)

const logColumns = `id, medication_id, occurrence_id, day, taken, taken_at, created_at, updated_at`

func scanLog(row rowScanner) (models.LogEntry, error) {
	var e models.LogEntry
	var takenAt sql.NullTime
	if err := row.Scan(&e.ID, &e.MedicationID, &e.OccurrenceID, &e.Day, &e.Taken, &takenAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return models.LogEntry{}, err
	}
	if takenAt.Valid {
		t := takenAt.Time
		e.TakenAt = &t
	}
	return e, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (s *Store) GetLog(id string) (models.LogEntry, error) {
	row := s.db.QueryRow(`SELECT `+logColumns+` FROM intake_logs WHERE id = $1`, id)
	entry, err := scanLog(row)
	if err == sql.ErrNoRows {
		return models.LogEntry{}, fmt.Errorf("log entry %s: %w", id, errors.ErrNotFound)
	}
	return entry, err
}

func (s *Store) GetLogsForMedication(medicationID string, startDay, endDay string) ([]models.LogEntry, error) {
	return s.queryLogs(`SELECT `+logColumns+` FROM intake_logs
		WHERE medication_id = $1 AND day >= $2 AND day <= $3 ORDER BY day DESC, id`, medicationID, startDay, endDay)
}

func (s *Store) GetLogsInRange(startDay, endDay string) ([]models.LogEntry, error) {
	return s.queryLogs(`SELECT `+logColumns+` FROM intake_logs
		WHERE day >= $1 AND day <= $2 ORDER BY day DESC, id`, startDay, endDay)
}

func (s *Store) queryLogs(query string, args ...any) ([]models.LogEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		entry, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func insertLog(db execer, e models.LogEntry) error {
	_, err := db.Exec(`INSERT INTO intake_logs (`+logColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.MedicationID, e.OccurrenceID, e.Day, e.Taken, nullTime(e.TakenAt), e.CreatedAt, e.UpdatedAt)
	return err
}

func updateLog(db execer, e models.LogEntry) error {
	_, err := db.Exec(`UPDATE intake_logs SET occurrence_id = $1, day = $2, taken = $3, taken_at = $4, updated_at = $5
		WHERE id = $6`,
		e.OccurrenceID, e.Day, e.Taken, nullTime(e.TakenAt), e.UpdatedAt, e.ID)
	return err
}
