package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/models"
)

const logColumns = `id, medication_id, occurrence_id, day, taken, taken_at, created_at, updated_at`

func scanLog(row rowScanner) (models.LogEntry, error) {
	var e models.LogEntry
	var takenAt sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&e.ID, &e.MedicationID, &e.OccurrenceID, &e.Day, &e.Taken, &takenAt, &createdAt, &updatedAt); err != nil {
		return models.LogEntry{}, err
	}

	var err error
	if e.TakenAt, err = parseNullTimestamp(takenAt); err != nil {
		return models.LogEntry{}, err
	}
	if e.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return models.LogEntry{}, err
	}
	if e.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return models.LogEntry{}, err
	}
	return e, nil
}

func (s *Store) GetLog(id string) (models.LogEntry, error) {
	row := s.db.QueryRow(`SELECT `+logColumns+` FROM intake_logs WHERE id = ?`, id)
	entry, err := scanLog(row)
	if err == sql.ErrNoRows {
		return models.LogEntry{}, fmt.Errorf("log entry %s: %w", id, errors.ErrNotFound)
	}
	return entry, err
}

func (s *Store) GetLogsForMedication(medicationID string, startDay, endDay string) ([]models.LogEntry, error) {
	return s.queryLogs(`SELECT `+logColumns+` FROM intake_logs
		WHERE medication_id = ? AND day >= ? AND day <= ? ORDER BY day DESC, id`, medicationID, startDay, endDay)
}

func (s *Store) GetLogsInRange(startDay, endDay string) ([]models.LogEntry, error) {
	return s.queryLogs(`SELECT `+logColumns+` FROM intake_logs
		WHERE day >= ? AND day <= ? ORDER BY day DESC, id`, startDay, endDay)
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
	_, err := db.Exec(`INSERT INTO intake_logs (`+logColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.MedicationID, e.OccurrenceID, e.Day, e.Taken, nullTimestamp(e.TakenAt),
		formatTimestamp(e.CreatedAt), formatTimestamp(e.UpdatedAt))
	return err
}

func updateLog(db execer, e models.LogEntry) error {
	_, err := db.Exec(`UPDATE intake_logs SET occurrence_id = ?, day = ?, taken = ?, taken_at = ?, updated_at = ?
		WHERE id = ?`,
		e.OccurrenceID, e.Day, e.Taken, nullTimestamp(e.TakenAt), formatTimestamp(e.UpdatedAt), e.ID)
	return err
}
