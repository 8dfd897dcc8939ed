package system

import (
	"fmt"

	"github.com/julianstephens/dosekeep/internal/cli"
)

// migrator is implemented by the SQL stores.
type migrator interface {
	Open() error
	Migrate() (int, error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return fmt.Errorf("migrate command only supports SQLite and PostgreSQL storage")
	}

	if err := m.Open(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer ctx.Store.Close()

	count, err := m.Migrate()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("Successfully applied %d migration(s).\n", count)
	}
	return nil
}
