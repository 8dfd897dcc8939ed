package migration

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func files(m map[string]string) fstest.MapFS {
	out := fstest.MapFS{}
	for name, body := range m {
		out[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return out
}

func TestDialectBind(t *testing.T) {
	assert.Equal(t, "?", SQLite.bind(1))
	assert.Equal(t, "$1", Postgres.bind(1))
	assert.Equal(t, "$3", Postgres.bind(3))
}

func TestVersionRoundTrip(t *testing.T) {
	r := NewRunner(openDB(t), SQLite, files(map[string]string{"001_meds.sql": "CREATE TABLE meds (id TEXT);"}))

	v, err := r.CurrentVersion()
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, r.SetVersion(5))
	require.NoError(t, r.SetVersion(6))

	v, err = r.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 6, v)
}

func TestVersionIsBoundNotFormatted(t *testing.T) {
	db := openDB(t)
	r := NewRunner(db, SQLite, files(nil))
	require.NoError(t, r.SetVersion(42))

	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM schema_version WHERE version = ?`, 42).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestLoad_OrdersAndSkipsOtherFiles(t *testing.T) {
	r := NewRunner(openDB(t), SQLite, files(map[string]string{
		"002_logs.sql": "CREATE TABLE logs (id TEXT);",
		"001_meds.sql": "CREATE TABLE meds (id TEXT);",
		"notes.txt":    "ignored",
	}))

	all, err := r.Load()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, Migration{Version: 1, Name: "meds", SQL: "CREATE TABLE meds (id TEXT);"}, all[0])
	assert.Equal(t, 2, all[1].Version)
	assert.Equal(t, "logs", all[1].Name)
}

func TestLoad_RejectsBadNames(t *testing.T) {
	db := openDB(t)
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"no separator", map[string]string{"001.sql": "SELECT 1;"}},
		{"not a number", map[string]string{"one_meds.sql": "SELECT 1;"}},
		{"zero", map[string]string{"000_meds.sql": "SELECT 1;"}},
		{"shared version", map[string]string{"001_a.sql": "SELECT 1;", "1_b.sql": "SELECT 1;"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(db, SQLite, files(tt.files)).Load()
			assert.Error(t, err)
		})
	}
}

func TestApply(t *testing.T) {
	r := NewRunner(openDB(t), SQLite, files(map[string]string{
		"001_meds.sql": "CREATE TABLE meds (id TEXT);",
		"002_logs.sql": "CREATE TABLE logs (id TEXT);",
	}))

	var lines []string
	n, err := r.Apply(func(s string) { lines = append(lines, s) })
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], "schema at version 2")

	n, err = r.Apply(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, r.Check())
}

func TestApply_StopsAtFailingStep(t *testing.T) {
	r := NewRunner(openDB(t), SQLite, files(map[string]string{
		"001_meds.sql":   "CREATE TABLE meds (id TEXT);",
		"002_broken.sql": "CREATE TABLE oops (",
	}))

	n, err := r.Apply(nil)
	require.Error(t, err)
	assert.Equal(t, 1, n)

	v, err := r.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.ErrorIs(t, r.Check(), ErrSchemaBehind)
}

func TestApply_RefusesNewerDatabase(t *testing.T) {
	r := NewRunner(openDB(t), SQLite, files(map[string]string{"001_meds.sql": "SELECT 1;"}))
	require.NoError(t, r.SetVersion(9))

	_, err := r.Apply(nil)
	assert.ErrorIs(t, err, ErrSchemaAhead)
	assert.ErrorIs(t, r.Check(), ErrSchemaAhead)
}
