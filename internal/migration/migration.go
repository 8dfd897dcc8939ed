// Package migration moves a SQL store's schema forward one numbered file at a
// time and records where it stands in a single-row schema_version table.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrSchemaAhead means the database was migrated by a newer dosekeep.
	ErrSchemaAhead = errors.New("schema is ahead of this build")
	// ErrSchemaBehind means files exist that the database has not seen yet.
	ErrSchemaBehind = errors.New("schema needs migrating")
)

// Dialect picks the bind-parameter syntax of the driver behind a Runner.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// bind returns the placeholder for the n-th (1-based) statement argument.
func (d Dialect) bind(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Migration is one NNN_name.sql file.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type Runner struct {
	db      *sql.DB
	dialect Dialect
	files   fs.FS
}

// NewRunner reads migrations from the root of files.
func NewRunner(db *sql.DB, dialect Dialect, files fs.FS) *Runner {
	return &Runner{db: db, dialect: dialect, files: files}
}

func (r *Runner) ensureTable() error {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}
	return nil
}

// CurrentVersion is 0 for a database that was never migrated.
func (r *Runner) CurrentVersion() (int, error) {
	if err := r.ensureTable(); err != nil {
		return 0, err
	}
	var v int
	switch err := r.db.QueryRow(`SELECT version FROM schema_version`).Scan(&v); {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// SetVersion overwrites the recorded version without running anything.
func (r *Runner) SetVersion(v int) error {
	if err := r.ensureTable(); err != nil {
		return err
	}
	return r.writeVersion(r.db, v)
}

func (r *Runner) writeVersion(x execer, v int) error {
	if _, err := x.Exec(`DELETE FROM schema_version`); err != nil {
		return fmt.Errorf("clear schema version: %w", err)
	}
	if _, err := x.Exec(`INSERT INTO schema_version (version) VALUES (`+r.dialect.bind(1)+`)`, v); err != nil {
		return fmt.Errorf("record schema version %d: %w", v, err)
	}
	return nil
}

// Load parses every .sql file in the runner's directory, ordered by version.
// Other files are ignored.
func (r *Runner) Load() ([]Migration, error) {
	entries, err := fs.ReadDir(r.files, ".")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		num, rest, ok := strings.Cut(strings.TrimSuffix(name, ".sql"), "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: want NNN_name.sql", name)
		}
		v, err := strconv.Atoi(num)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("migration %s: version must be a positive number", name)
		}
		if prev, dup := seen[v]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", prev, name, v)
		}
		seen[v] = name

		body, err := fs.ReadFile(r.files, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, Migration{Version: v, Name: rest, SQL: string(body)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// LatestVersion is the highest version on disk, 0 when there are none.
func (r *Runner) LatestVersion() (int, error) {
	all, err := r.Load()
	if err != nil || len(all) == 0 {
		return 0, err
	}
	return all[len(all)-1].Version, nil
}

// Apply runs every migration newer than the recorded version, each in its own
// transaction together with the version bump. report receives progress lines
// and may be nil. It returns how many migrations ran, including when a later
// one fails.
func (r *Runner) Apply(report func(string)) (int, error) {
	if report == nil {
		report = func(string) {}
	}

	from, err := r.CurrentVersion()
	if err != nil {
		return 0, err
	}
	all, err := r.Load()
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		report("no migration files bundled")
		return 0, nil
	}
	to := all[len(all)-1].Version
	if from > to {
		return 0, fmt.Errorf("%w: database at %d, build knows %d", ErrSchemaAhead, from, to)
	}

	pending := all[:0:0]
	for _, m := range all {
		if m.Version > from {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		report(fmt.Sprintf("schema current at version %d", from))
		return 0, nil
	}

	report(fmt.Sprintf("migrating schema %d -> %d", from, to))
	began := time.Now()
	for i, m := range pending {
		report(fmt.Sprintf("  %03d %s", m.Version, m.Name))
		if err := r.step(m); err != nil {
			return i, err
		}
	}
	report(fmt.Sprintf("schema at version %d, %d step(s) in %s", to, len(pending), time.Since(began).Round(time.Millisecond)))
	return len(pending), nil
}

func (r *Runner) step(m Migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("migration %03d: begin: %w", m.Version, err)
	}
	if _, err := tx.Exec(m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %03d %s: %w", m.Version, m.Name, err)
	}
	if err := r.writeVersion(tx, m.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %03d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %03d: commit: %w", m.Version, err)
	}
	return nil
}

// Check reports ErrSchemaAhead or ErrSchemaBehind unless the database matches
// the bundled migrations exactly.
func (r *Runner) Check() error {
	have, err := r.CurrentVersion()
	if err != nil {
		return err
	}
	want, err := r.LatestVersion()
	if err != nil {
		return err
	}
	switch {
	case have > want:
		return fmt.Errorf("%w: database at %d, build knows %d; upgrade dosekeep", ErrSchemaAhead, have, want)
	case have < want:
		return fmt.Errorf("%w: database at %d, latest is %d; run 'dosekeep migrate'", ErrSchemaBehind, have, want)
	}
	return nil
}
