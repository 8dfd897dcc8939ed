package postgres

import (
	"context"
	"fmt"

	"github.com/julianstephens/dosekeep/internal/storage"
)

// Commit applies cs in one transaction. Any failure rolls the whole batch back.
func (s *Store) Commit(ctx context.Context, cs storage.Changeset) error {
	if cs.IsEmpty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, med := range cs.UpdateMedications {
		if err := upsertMedication(tx, med); err != nil {
			return fmt.Errorf("failed to update medication %s: %w", med.ID, err)
		}
	}
	for _, id := range cs.DeleteOccurrences {
		if _, err := tx.ExecContext(ctx, "DELETE FROM occurrences WHERE id = $1", id); err != nil {
			return fmt.Errorf("failed to delete occurrence %s: %w", id, err)
		}
	}
	for _, occ := range cs.InsertOccurrences {
		if err := insertOccurrence(tx, occ); err != nil {
			return fmt.Errorf("failed to insert occurrence %s: %w", occ.ID, err)
		}
	}
	for _, occ := range cs.UpdateOccurrences {
		if err := updateOccurrence(tx, occ); err != nil {
			return fmt.Errorf("failed to update occurrence %s: %w", occ.ID, err)
		}
	}
	for _, entry := range cs.InsertLogs {
		if err := insertLog(tx, entry); err != nil {
			return fmt.Errorf("failed to insert log entry %s: %w", entry.ID, err)
		}
	}
	for _, entry := range cs.UpdateLogs {
		if err := updateLog(tx, entry); err != nil {
			return fmt.Errorf("failed to update log entry %s: %w", entry.ID, err)
		}
	}

	for _, id := range cs.DeleteLogs {
		if _, err := tx.ExecContext(ctx, "DELETE FROM intake_logs WHERE id = $1 AND NOT taken", id); err != nil {
			return fmt.Errorf("failed to delete log entry %s: %w", id, err)
		}
	}

	return tx.Commit()
}
