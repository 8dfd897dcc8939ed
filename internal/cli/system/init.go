package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/storage/sqlite"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting existing database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	fresh := true
	if store, ok := ctx.Store.(*sqlite.Store); ok {
		dbPath := store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			fresh = false
			if c.Force {
				// Close first to release the file handle
				if err := ctx.Store.Close(); err != nil {
					return fmt.Errorf("failed to close existing database: %w", err)
				}
				if err := os.Remove(dbPath); err != nil {
					return fmt.Errorf("failed to delete existing database: %w", err)
				}
				fmt.Printf("Deleted existing database at: %s\n", dbPath)
				fresh = true
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}

	// Initial settings from the config file only seed a new database
	if fresh {
		settings, err := ctx.Service.Settings()
		if err != nil {
			return fmt.Errorf("failed to read settings: %w", err)
		}
		if err := ctx.Service.UpdateSettings(ctx.Config.Settings.Apply(settings)); err != nil {
			return fmt.Errorf("failed to apply configured settings: %w", err)
		}
	}

	fmt.Printf("Initialized dosekeep storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
