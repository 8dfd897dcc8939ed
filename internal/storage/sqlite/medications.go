package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/models"
)

const medicationColumns = `id, name, dosage, notes, kind, active, repeat_unit, interval_count,
	start_date, end_date, skipped_days, time_of_day, dose_amount, stock, track_stock,
	created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func scanMedication(row rowScanner) (models.Medication, error) {
	var m models.Medication
	var kind, unit, skipped, createdAt, updatedAt string
	var deletedAt sql.NullString

	err := row.Scan(
		&m.ID, &m.Name, &m.Dosage, &m.Notes, &kind, &m.Active, &unit, &m.Interval,
		&m.StartDate, &m.EndDate, &skipped, &m.TimeOfDay, &m.DoseAmount, &m.Stock, &m.TrackStock,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return models.Medication{}, err
	}

	m.Kind = models.MedicationKind(kind)
	m.RepeatUnit = models.RepeatUnit(unit)
	if skipped != "" {
		m.SkippedDays = strings.Split(skipped, ",")
	}
	if m.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return models.Medication{}, err
	}
	if m.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return models.Medication{}, err
	}
	if m.DeletedAt, err = parseNullTimestamp(deletedAt); err != nil {
		return models.Medication{}, err
	}
	return m, nil
}

func (s *Store) AddMedication(med models.Medication) error {
	return s.UpdateMedication(med)
}

func (s *Store) GetMedication(id string) (models.Medication, error) {
	row := s.db.QueryRow(`SELECT `+medicationColumns+` FROM medications WHERE id = ? AND deleted_at IS NULL`, id)
	med, err := scanMedication(row)
	if err == sql.ErrNoRows {
		return models.Medication{}, fmt.Errorf("medication %s: %w", id, errors.ErrNotFound)
	}
	return med, err
}

func (s *Store) GetMedicationByName(name string) (models.Medication, error) {
	row := s.db.QueryRow(`SELECT `+medicationColumns+` FROM medications
		WHERE name = ? AND deleted_at IS NULL ORDER BY created_at LIMIT 1`, name)
	med, err := scanMedication(row)
	if err == sql.ErrNoRows {
		return models.Medication{}, fmt.Errorf("medication %q: %w", name, errors.ErrNotFound)
	}
	return med, err
}

func (s *Store) GetAllMedications(includeDeleted bool) ([]models.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications`
	if !includeDeleted {
		query += ` WHERE deleted_at IS NULL`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []models.Medication
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, med)
	}
	return meds, rows.Err()
}

func (s *Store) UpdateMedication(med models.Medication) error {
	return upsertMedication(s.db, med)
}

func upsertMedication(db execer, med models.Medication) error {
	_, err := db.Exec(`
		INSERT INTO medications (`+medicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, dosage = excluded.dosage, notes = excluded.notes,
			kind = excluded.kind, active = excluded.active, repeat_unit = excluded.repeat_unit,
			interval_count = excluded.interval_count, start_date = excluded.start_date,
			end_date = excluded.end_date, skipped_days = excluded.skipped_days,
			time_of_day = excluded.time_of_day, dose_amount = excluded.dose_amount,
			stock = excluded.stock, track_stock = excluded.track_stock,
			updated_at = excluded.updated_at, deleted_at = excluded.deleted_at`,
		med.ID, med.Name, med.Dosage, med.Notes, string(med.Kind), med.Active, string(med.RepeatUnit), med.Interval,
		med.StartDate, med.EndDate, strings.Join(med.SkippedDays, ","), med.TimeOfDay,
		med.DoseAmount.String(), med.Stock.String(), med.TrackStock,
		formatTimestamp(med.CreatedAt), formatTimestamp(med.UpdatedAt), nullTimestamp(med.DeletedAt),
	)
	return err
}

func (s *Store) DeleteMedication(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := formatTimestamp(time.Now())
	result, err := tx.Exec(`UPDATE medications SET deleted_at = ?, active = 0, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`, now, now, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("medication %s: %w", id, errors.ErrNotFound)
	}

	if _, err := tx.Exec("DELETE FROM intake_logs WHERE medication_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM occurrences WHERE medication_id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}
