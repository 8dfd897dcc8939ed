package postgres

import (
	"database/sql"
	"fmt"
	"time"

	pq "github.com/lib/pq"

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
	var kind, unit string
	var skipped pq.StringArray
	var deletedAt sql.NullTime

	err := row.Scan(
		&m.ID, &m.Name, &m.Dosage, &m.Notes, &kind, &m.Active, &unit, &m.Interval,
		&m.StartDate, &m.EndDate, &skipped, &m.TimeOfDay, &m.DoseAmount, &m.Stock, &m.TrackStock,
		&m.CreatedAt, &m.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return models.Medication{}, err
	}

	m.Kind = models.MedicationKind(kind)
	m.RepeatUnit = models.RepeatUnit(unit)
	if len(skipped) > 0 {
		m.SkippedDays = []string(skipped)
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		m.DeletedAt = &t
	}
	return m, nil
}

func (s *Store) AddMedication(med models.Medication) error {
	return s.UpdateMedication(med)
}

func (s *Store) GetMedication(id string) (models.Medication, error) {
	row := s.db.QueryRow(`SELECT `+medicationColumns+` FROM medications WHERE id = $1 AND deleted_at IS NULL`, id)
	med, err := scanMedication(row)
	if err == sql.ErrNoRows {
		return models.Medication{}, fmt.Errorf("medication %s: %w", id, errors.ErrNotFound)
	}
	return med, err
}

func (s *Store) GetMedicationByName(name string) (models.Medication, error) {
	row := s.db.QueryRow(`SELECT `+medicationColumns+` FROM medications
		WHERE name = $1 AND deleted_at IS NULL ORDER BY created_at LIMIT 1`, name)
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
	skipped := med.SkippedDays
	if skipped == nil {
		skipped = []string{}
	}
	var deletedAt sql.NullTime
	if med.DeletedAt != nil {
		deletedAt = sql.NullTime{Time: *med.DeletedAt, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO medications (`+medicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, dosage = EXCLUDED.dosage, notes = EXCLUDED.notes,
			kind = EXCLUDED.kind, active = EXCLUDED.active, repeat_unit = EXCLUDED.repeat_unit,
			interval_count = EXCLUDED.interval_count, start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date, skipped_days = EXCLUDED.skipped_days,
			time_of_day = EXCLUDED.time_of_day, dose_amount = EXCLUDED.dose_amount,
			stock = EXCLUDED.stock, track_stock = EXCLUDED.track_stock,
			updated_at = EXCLUDED.updated_at, deleted_at = EXCLUDED.deleted_at`,
		med.ID, med.Name, med.Dosage, med.Notes, string(med.Kind), med.Active, string(med.RepeatUnit), med.Interval,
		med.StartDate, med.EndDate, pq.Array(skipped), med.TimeOfDay,
		med.DoseAmount, med.Stock, med.TrackStock,
		med.CreatedAt, med.UpdatedAt, deletedAt,
	)
	return err
}

func (s *Store) DeleteMedication(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec(`UPDATE medications SET deleted_at = $1, active = FALSE, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL`, now, id)
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

	if _, err := tx.Exec("DELETE FROM intake_logs WHERE medication_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM occurrences WHERE medication_id = $1", id); err != nil {
		return err
	}

	return tx.Commit()
}
