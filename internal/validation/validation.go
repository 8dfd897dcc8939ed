package validation

import (
	"fmt"
	"sort"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// ValidateMedication checks a medication as entered by the user. Recurrence
// problems wrap errors.ErrInvalidRecurrence.
func ValidateMedication(med models.Medication) error {
	if med.Name == "" {
		return fmt.Errorf("medication name cannot be empty")
	}

	switch med.Kind {
	case models.MedicationKindScheduled, models.MedicationKindOccasional:
	default:
		return fmt.Errorf("invalid medication kind %q (expected scheduled or occasional)", med.Kind)
	}

	switch med.RepeatUnit {
	case models.RepeatUnitDay, models.RepeatUnitMonth:
	default:
		return fmt.Errorf("%w: unknown repeat unit %q (expected day or month)", errors.ErrInvalidRecurrence, med.RepeatUnit)
	}

	if med.Interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1, got %d", errors.ErrInvalidRecurrence, med.Interval)
	}

	var start, end string
	if med.StartDate != "" {
		if _, err := utils.ParseDay(med.StartDate); err != nil {
			return fmt.Errorf("%w: start date: %v", errors.ErrInvalidRecurrence, err)
		}
		start = med.StartDate
	}
	if med.EndDate != "" {
		if _, err := utils.ParseDay(med.EndDate); err != nil {
			return fmt.Errorf("%w: end date: %v", errors.ErrInvalidRecurrence, err)
		}
		end = med.EndDate
	}
	if start != "" && end != "" && end < start {
		return fmt.Errorf("%w: end date %s is before start date %s", errors.ErrInvalidRecurrence, end, start)
	}

	for _, day := range med.SkippedDays {
		if _, err := utils.ParseDay(day); err != nil {
			return fmt.Errorf("invalid skipped day: %w", err)
		}
	}

	if med.TimeOfDay != "" && !utils.ValidateTimeFormat(med.TimeOfDay) {
		return fmt.Errorf("invalid time of day %q (expected HH:MM)", med.TimeOfDay)
	}

	if med.DoseAmount.IsNegative() {
		return fmt.Errorf("dose amount cannot be negative")
	}
	if med.Stock.IsNegative() {
		return fmt.Errorf("stock cannot be negative")
	}
	return nil
}

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateMedicationName ConflictType = "duplicate_medication_name"
	ConflictInvalidMedication       ConflictType = "invalid_medication"
	ConflictDuplicateOccurrence     ConflictType = "duplicate_occurrence"
	ConflictOrphanOccurrence        ConflictType = "orphan_occurrence"
	ConflictOffScheduleOccurrence   ConflictType = "off_schedule_occurrence"
)

// Conflict represents a detected problem in stored data
type Conflict struct {
	Type          ConflictType
	Description   string
	Day           string   // YYYY-MM-DD (if applicable)
	MedicationIDs []string // medications involved
	OccurrenceIDs []string // occurrences involved (for auto-fixing)
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	report := "Conflicts detected:\n"
	for _, conflict := range vr.Conflicts {
		report += fmt.Sprintf("- %s\n", conflict.Description)
	}
	return report
}

// Count returns how many conflicts of type t were found.
func (vr *ValidationResult) Count(t ConflictType) int {
	n := 0
	for _, c := range vr.Conflicts {
		if c.Type == t {
			n++
		}
	}
	return n
}

// Validator checks stored medications and occurrences for inconsistencies
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// Validate inspects meds and occs. Deleted medications are ignored.
func (v *Validator) Validate(meds []models.Medication, occs []models.Occurrence) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	live := make(map[string]models.Medication)
	nameIDs := make(map[string][]string)
	for _, med := range meds {
		if med.DeletedAt != nil {
			continue
		}
		live[med.ID] = med
		if med.Name != "" {
			nameIDs[med.Name] = append(nameIDs[med.Name], med.ID)
		}
		if err := ValidateMedication(med); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:          ConflictInvalidMedication,
				Description:   fmt.Sprintf("Medication \"%s\": %v", med.Name, err),
				MedicationIDs: []string{med.ID},
			})
		}
	}

	names := make([]string, 0, len(nameIDs))
	for name := range nameIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ids := nameIDs[name]; len(ids) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:          ConflictDuplicateMedicationName,
				Description:   fmt.Sprintf("Duplicate medication name: \"%s\" (IDs: %v)", name, ids),
				MedicationIDs: ids,
			})
		}
	}

	type medDay struct{ med, day string }
	scheduled := make(map[medDay][]string)
	var keys []medDay

	for _, occ := range occs {
		med, ok := live[occ.MedicationID]
		if !ok {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:          ConflictOrphanOccurrence,
				Description:   fmt.Sprintf("Occurrence %s on %s references a missing medication %s", occ.ID, occ.Day, occ.MedicationID),
				Day:           occ.Day,
				MedicationIDs: []string{occ.MedicationID},
				OccurrenceIDs: []string{occ.ID},
			})
			continue
		}
		if !occ.IsScheduled() {
			continue
		}

		k := medDay{occ.MedicationID, occ.Day}
		if _, seen := scheduled[k]; !seen {
			keys = append(keys, k)
		}
		scheduled[k] = append(scheduled[k], occ.ID)

		day, err := utils.ParseDay(occ.Day)
		if err != nil || (med.Active && med.IsScheduled() && !utils.IsDue(med, day)) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:          ConflictOffScheduleOccurrence,
				Description:   fmt.Sprintf("Medication \"%s\" has a scheduled occurrence on %s, which is not a due day", med.Name, occ.Day),
				Day:           occ.Day,
				MedicationIDs: []string{med.ID},
				OccurrenceIDs: []string{occ.ID},
			})
		}
	}

	for _, k := range keys {
		if ids := scheduled[k]; len(ids) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:          ConflictDuplicateOccurrence,
				Description:   fmt.Sprintf("Medication \"%s\" has %d scheduled occurrences on %s", live[k.med].Name, len(ids), k.day),
				Day:           k.day,
				MedicationIDs: []string{k.med},
				OccurrenceIDs: ids,
			})
		}
	}

	return result
}
