package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/cli/doses"
	"github.com/julianstephens/dosekeep/internal/cli/meds"
	"github.com/julianstephens/dosekeep/internal/cli/schedule"
	"github.com/julianstephens/dosekeep/internal/cli/settings"
	"github.com/julianstephens/dosekeep/internal/cli/system"
	"github.com/julianstephens/dosekeep/internal/config"
	"github.com/julianstephens/dosekeep/internal/constants"
	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/logger"
	"github.com/julianstephens/dosekeep/internal/notifier"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"YAML config file path." type:"string" default:"~/.config/dosekeep/config.yaml"`
	DB      string `help:"SQLite path, :memory:, or PostgreSQL connection string. Credentials must NOT be embedded; use the DOSEKEEP_DB_CONNECTION environment variable, .pgpass, or the OS keyring instead." name:"db"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init     system.InitCmd     `cmd:"" help:"Initialize dosekeep storage."`
	Migrate  system.MigrateCmd  `cmd:"" help:"Run database migrations."`
	Validate system.ValidateCmd `cmd:"" help:"Check medications and occurrences for conflicts."`
	Serve    system.ServeCmd    `cmd:"" help:"Serve the HTTP API."`
	Med      struct {
		Add        meds.MedAddCmd        `cmd:"" help:"Add a medication."`
		List       meds.MedListCmd       `cmd:"" help:"List medications."`
		Show       meds.MedShowCmd       `cmd:"" help:"Show a medication and its upcoming doses."`
		Edit       meds.MedEditCmd       `cmd:"" help:"Edit a medication."`
		Activate   meds.MedActivateCmd   `cmd:"" help:"Activate a medication."`
		Deactivate meds.MedDeactivateCmd `cmd:"" help:"Deactivate a medication."`
		Skip       meds.MedSkipCmd       `cmd:"" help:"Skip a medication on one day."`
		Delete     meds.MedDeleteCmd     `cmd:"" help:"Delete a medication and its history."`
	} `cmd:"" help:"Manage medications."`
	Schedule   schedule.ScheduleCmd   `cmd:"" help:"Generate upcoming occurrences for all medications."`
	Regenerate schedule.RegenerateCmd `cmd:"" help:"Rebuild a medication's future occurrences."`
	Move       schedule.MoveCmd       `cmd:"" help:"Move an occurrence and re-anchor its schedule."`
	Dedupe     schedule.DedupeCmd     `cmd:"" help:"Remove duplicate occurrences."`
	Today      doses.TodayCmd         `cmd:"" help:"Show the doses for a day." default:"1"`
	Take       doses.TakeCmd          `cmd:"" help:"Mark a dose as taken."`
	Untake     doses.UntakeCmd        `cmd:"" help:"Clear a taken mark."`
	Pending    doses.PendingCmd       `cmd:"" help:"List missed doses."`
	Stock      doses.StockCmd         `cmd:"" help:"Show or update stock."`
	Settings   struct {
		Show settings.SettingsShowCmd `cmd:"" help:"Show settings." default:"1"`
		Set  settings.SettingsSetCmd  `cmd:"" help:"Update settings."`
	} `cmd:"" help:"Manage application settings."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability."`
	} `cmd:"" help:"Manage credentials in the OS keyring."`
	Notify system.NotifyCmd `cmd:"" hidden:"" help:"Send due-dose notifications (used by the tray app)."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Medication schedule and intake tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	configPath, err := config.ExpandHome(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug || cfg.Debug,
		ConfigDir: filepath.Dir(configPath),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := cli.OpenStore(cli.ResolveDatabase(CLI.DB, cfg))
	if err != nil {
		errors.Fatal(err)
	}
	defer store.Close()

	appCtx := cli.NewContext(store, cfg, notifier.New())

	// Init, migrate and keyring commands handle storage themselves
	command := ctx.Command()
	if !strings.HasPrefix(command, "init") &&
		!strings.HasPrefix(command, "migrate") &&
		!strings.HasPrefix(command, "keyring") {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		errors.Fatal(err)
	}
}
