// Package memory provides an in-process storage.Provider used by tests and
// the --db :memory: mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/storage"
)

type Store struct {
	mu          sync.RWMutex
	settings    *models.Settings
	medications map[string]models.Medication
	occurrences map[string]models.Occurrence
	logs        map[string]models.LogEntry

	// FailCommit, when set, makes the next Commit calls fail without applying
	// anything. FailReads does the same for every read.
	FailCommit error
	FailReads  error
}

func New() *Store {
	return &Store{
		medications: make(map[string]models.Medication),
		occurrences: make(map[string]models.Occurrence),
		logs:        make(map[string]models.LogEntry),
	}
}

var _ storage.Provider = (*Store)(nil)

func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		def := models.DefaultSettings()
		s.settings = &def
	}
	return nil
}

func (s *Store) Load() error  { return s.Init() }
func (s *Store) Close() error { return nil }

func (s *Store) GetConfigPath() string { return ":memory:" }

func (s *Store) GetSettings() (models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return models.Settings{}, s.FailReads
	}
	if s.settings == nil {
		return models.Settings{}, fmt.Errorf("settings not found")
	}
	return *s.settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

// Medications

func (s *Store) AddMedication(med models.Medication) error {
	return s.UpdateMedication(med)
}

func (s *Store) GetMedication(id string) (models.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return models.Medication{}, s.FailReads
	}
	med, ok := s.medications[id]
	if !ok || med.DeletedAt != nil {
		return models.Medication{}, fmt.Errorf("medication %s: %w", id, errors.ErrNotFound)
	}
	return cloneMedication(med), nil
}

func (s *Store) GetMedicationByName(name string) (models.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return models.Medication{}, s.FailReads
	}
	for _, med := range s.medications {
		if med.Name == name && med.DeletedAt == nil {
			return cloneMedication(med), nil
		}
	}
	return models.Medication{}, fmt.Errorf("medication %q: %w", name, errors.ErrNotFound)
}

func (s *Store) GetAllMedications(includeDeleted bool) ([]models.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	var meds []models.Medication
	for _, med := range s.medications {
		if med.DeletedAt != nil && !includeDeleted {
			continue
		}
		meds = append(meds, cloneMedication(med))
	}
	sort.Slice(meds, func(i, j int) bool {
		if !meds[i].CreatedAt.Equal(meds[j].CreatedAt) {
			return meds[i].CreatedAt.Before(meds[j].CreatedAt)
		}
		return meds[i].ID < meds[j].ID
	})
	return meds, nil
}

func (s *Store) UpdateMedication(med models.Medication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.medications[med.ID] = cloneMedication(med)
	return nil
}

func (s *Store) DeleteMedication(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	med, ok := s.medications[id]
	if !ok || med.DeletedAt != nil {
		return fmt.Errorf("medication %s: %w", id, errors.ErrNotFound)
	}
	now := time.Now()
	med.DeletedAt = &now
	med.Active = false
	s.medications[id] = med
	for oid, occ := range s.occurrences {
		if occ.MedicationID == id {
			delete(s.occurrences, oid)
		}
	}
	for lid, entry := range s.logs {
		if entry.MedicationID == id {
			delete(s.logs, lid)
		}
	}
	return nil
}

// Occurrences

func (s *Store) GetOccurrence(id string) (models.Occurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return models.Occurrence{}, s.FailReads
	}
	occ, ok := s.occurrences[id]
	if !ok {
		return models.Occurrence{}, fmt.Errorf("occurrence %s: %w", id, errors.ErrNotFound)
	}
	return occ, nil
}

func (s *Store) GetOccurrencesForMedication(medicationID string) ([]models.Occurrence, error) {
	return s.filterOccurrences(func(o models.Occurrence) bool { return o.MedicationID == medicationID })
}

func (s *Store) GetOccurrencesInRange(startDay, endDay string) ([]models.Occurrence, error) {
	return s.filterOccurrences(func(o models.Occurrence) bool { return o.Day >= startDay && o.Day <= endDay })
}

func (s *Store) filterOccurrences(keep func(models.Occurrence) bool) ([]models.Occurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	var out []models.Occurrence
	for _, occ := range s.occurrences {
		if keep(occ) {
			out = append(out, occ)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Log entries

func (s *Store) GetLog(id string) (models.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return models.LogEntry{}, s.FailReads
	}
	entry, ok := s.logs[id]
	if !ok {
		return models.LogEntry{}, fmt.Errorf("log entry %s: %w", id, errors.ErrNotFound)
	}
	return entry, nil
}

func (s *Store) GetLogsForMedication(medicationID string, startDay, endDay string) ([]models.LogEntry, error) {
	return s.filterLogs(func(e models.LogEntry) bool {
		return e.MedicationID == medicationID && e.Day >= startDay && e.Day <= endDay
	})
}

func (s *Store) GetLogsInRange(startDay, endDay string) ([]models.LogEntry, error) {
	return s.filterLogs(func(e models.LogEntry) bool { return e.Day >= startDay && e.Day <= endDay })
}

func (s *Store) filterLogs(keep func(models.LogEntry) bool) ([]models.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	var out []models.LogEntry
	for _, entry := range s.logs {
		if keep(entry) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day > out[j].Day
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Commit applies the changeset under a single lock. Validation happens before
// any write so a rejected changeset leaves the store untouched.
func (s *Store) Commit(_ context.Context, cs storage.Changeset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCommit != nil {
		return s.FailCommit
	}

	for _, occ := range cs.InsertOccurrences {
		if _, exists := s.occurrences[occ.ID]; exists {
			return fmt.Errorf("occurrence %s already exists", occ.ID)
		}
	}
	for _, entry := range cs.InsertLogs {
		if _, exists := s.logs[entry.ID]; exists {
			return fmt.Errorf("log entry %s already exists", entry.ID)
		}
	}
	for _, id := range cs.DeleteLogs {
		if entry, exists := s.logs[id]; exists && entry.Taken {
			return fmt.Errorf("log entry %s is taken and cannot be deleted", id)
		}
	}

	for _, med := range cs.UpdateMedications {
		s.medications[med.ID] = cloneMedication(med)
	}
	for _, id := range cs.DeleteOccurrences {
		delete(s.occurrences, id)
	}
	for _, occ := range cs.InsertOccurrences {
		s.occurrences[occ.ID] = occ
	}
	for _, occ := range cs.UpdateOccurrences {
		s.occurrences[occ.ID] = occ
	}
	for _, entry := range cs.InsertLogs {
		s.logs[entry.ID] = entry
	}
	for _, entry := range cs.UpdateLogs {
		s.logs[entry.ID] = entry
	}
	for _, id := range cs.DeleteLogs {
		delete(s.logs, id)
	}
	return nil
}

// Seed inserts records directly, bypassing Commit. Test helper.
func (s *Store) Seed(meds []models.Medication, occs []models.Occurrence, logs []models.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range meds {
		s.medications[m.ID] = cloneMedication(m)
	}
	for _, o := range occs {
		s.occurrences[o.ID] = o
	}
	for _, l := range logs {
		s.logs[l.ID] = l
	}
}

func cloneMedication(med models.Medication) models.Medication {
	if med.SkippedDays != nil {
		med.SkippedDays = append([]string(nil), med.SkippedDays...)
	}
	return med
}
