package storage

import "github.com/julianstephens/dosekeep/internal/models"

// Changeset is the write batch produced by one engine operation.
type Changeset struct {
	UpdateMedications []models.Medication
	InsertOccurrences []models.Occurrence
	UpdateOccurrences []models.Occurrence
	DeleteOccurrences []string
	InsertLogs        []models.LogEntry
	UpdateLogs        []models.LogEntry
	// DeleteLogs only ever names untaken entries.
	DeleteLogs []string
}

// IsEmpty reports whether applying cs would change nothing.
func (cs Changeset) IsEmpty() bool {
	return len(cs.UpdateMedications) == 0 &&
		len(cs.InsertOccurrences) == 0 &&
		len(cs.UpdateOccurrences) == 0 &&
		len(cs.DeleteOccurrences) == 0 &&
		len(cs.InsertLogs) == 0 &&
		len(cs.UpdateLogs) == 0 &&
		len(cs.DeleteLogs) == 0
}

// Merge appends other's changes to cs.
func (cs *Changeset) Merge(other Changeset) {
	cs.UpdateMedications = append(cs.UpdateMedications, other.UpdateMedications...)
	cs.InsertOccurrences = append(cs.InsertOccurrences, other.InsertOccurrences...)
	cs.UpdateOccurrences = append(cs.UpdateOccurrences, other.UpdateOccurrences...)
	cs.DeleteOccurrences = append(cs.DeleteOccurrences, other.DeleteOccurrences...)
	cs.InsertLogs = append(cs.InsertLogs, other.InsertLogs...)
	cs.UpdateLogs = append(cs.UpdateLogs, other.UpdateLogs...)
	cs.DeleteLogs = append(cs.DeleteLogs, other.DeleteLogs...)
}

// Summary returns counts suitable for structured log fields.
func (cs Changeset) Summary() []interface{} {
	return []interface{}{
		"medications_updated", len(cs.UpdateMedications),
		"occurrences_inserted", len(cs.InsertOccurrences),
		"occurrences_updated", len(cs.UpdateOccurrences),
		"occurrences_deleted", len(cs.DeleteOccurrences),
		"logs_inserted", len(cs.InsertLogs),
		"logs_updated", len(cs.UpdateLogs),
		"logs_deleted", len(cs.DeleteLogs),
	}
}
