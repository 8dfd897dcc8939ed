package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/models"
)

const occurrenceColumns = `id, medication_id, day, time, source, created_at`

func scanOccurrence(row rowScanner) (models.Occurrence, error) {
	var o models.Occurrence
	var source, createdAt string
	if err := row.Scan(&o.ID, &o.MedicationID, &o.Day, &o.Time, &source, &createdAt); err != nil {
		return models.Occurrence{}, err
	}
	o.Source = models.OccurrenceSource(source)

	var err error
	if o.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return models.Occurrence{}, err
	}
	return o, nil
}

func (s *Store) GetOccurrence(id string) (models.Occurrence, error) {
	row := s.db.QueryRow(`SELECT `+occurrenceColumns+` FROM occurrences WHERE id = ?`, id)
	occ, err := scanOccurrence(row)
	if err == sql.ErrNoRows {
		return models.Occurrence{}, fmt.Errorf("occurrence %s: %w", id, errors.ErrNotFound)
	}
	return occ, err
}

func (s *Store) GetOccurrencesForMedication(medicationID string) ([]models.Occurrence, error) {
	return s.queryOccurrences(`SELECT `+occurrenceColumns+` FROM occurrences
		WHERE medication_id = ? ORDER BY day, created_at, id`, medicationID)
}

func (s *Store) GetOccurrencesInRange(startDay, endDay string) ([]models.Occurrence, error) {
	return s.queryOccurrences(`SELECT `+occurrenceColumns+` FROM occurrences
		WHERE day >= ? AND day <= ? ORDER BY day, created_at, id`, startDay, endDay)
}

func (s *Store) queryOccurrences(query string, args ...any) ([]models.Occurrence, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var occs []models.Occurrence
	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		occs = append(occs, occ)
	}
	return occs, rows.Err()
}

func insertOccurrence(db execer, occ models.Occurrence) error {
	_, err := db.Exec(`INSERT INTO occurrences (`+occurrenceColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		occ.ID, occ.MedicationID, occ.Day, occ.Time, string(occ.Source), formatTimestamp(occ.CreatedAt))
	return err
}

func updateOccurrence(db execer, occ models.Occurrence) error {
	_, err := db.Exec(`UPDATE occurrences SET medication_id = ?, day = ?, time = ?, source = ? WHERE id = ?`,
		occ.MedicationID, occ.Day, occ.Time, string(occ.Source), occ.ID)
	return err
}
