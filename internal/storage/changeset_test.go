package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/julianstephens/dosekeep/internal/models"
)

func TestChangesetMergeAndEmpty(t *testing.T) {
	var cs Changeset
	assert.True(t, cs.IsEmpty())

	cs.Merge(Changeset{DeleteOccurrences: []string{"a"}})
	cs.Merge(Changeset{InsertLogs: []models.LogEntry{{ID: "l1"}}, DeleteOccurrences: []string{"b"}})

	assert.False(t, cs.IsEmpty())
	assert.Equal(t, []string{"a", "b"}, cs.DeleteOccurrences)
	assert.Len(t, cs.InsertLogs, 1)
	assert.Contains(t, cs.Summary(), "occurrences_deleted")
}

func TestChangesetDeleteLogsOnlyIsNotEmpty(t *testing.T) {
	cs := Changeset{DeleteLogs: []string{"l1"}}
	assert.False(t, cs.IsEmpty())
}
