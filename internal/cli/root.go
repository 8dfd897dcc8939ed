package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/dosekeep/internal/config"
	"github.com/julianstephens/dosekeep/internal/constants"
	"github.com/julianstephens/dosekeep/internal/keyring"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/notifier"
	"github.com/julianstephens/dosekeep/internal/service"
	"github.com/julianstephens/dosekeep/internal/storage"
	"github.com/julianstephens/dosekeep/internal/storage/memory"
	"github.com/julianstephens/dosekeep/internal/storage/postgres"
	"github.com/julianstephens/dosekeep/internal/storage/sqlite"
	"github.com/julianstephens/dosekeep/internal/utils"
)

type Context struct {
	Store   storage.Provider
	Service *service.Service
	Config  config.Config
}

var keyringLookup = keyring.DSN

// ResolveDatabase picks the database location. An explicit flag wins, then
// the connection environment variable, then a connection string stored in the
// OS keyring, then the config file.
func ResolveDatabase(flag string, cfg config.Config) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(constants.ConnectionEnvVar); env != "" {
		return env
	}
	if connStr, err := keyringLookup(); err == nil && connStr != "" {
		return connStr
	}
	return cfg.Database
}

// IsPostgres reports whether ref is a PostgreSQL connection string rather
// than a file path.
func IsPostgres(ref string) bool {
	return strings.HasPrefix(ref, "postgres://") ||
		strings.HasPrefix(ref, "postgresql://") ||
		strings.Contains(ref, "host=")
}

// OpenStore builds (but does not load) the provider for ref.
func OpenStore(ref string) (storage.Provider, error) {
	switch {
	case ref == ":memory:":
		return memory.New(), nil
	case IsPostgres(ref):
		if valid, err := postgres.ValidateConnString(ref); !valid {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL connection strings with embedded credentials are not allowed; "+
					"store it with 'dosekeep keyring set', export %s, or use .pgpass", constants.ConnectionEnvVar)
			}
			return nil, err
		}
		return postgres.New(ref), nil
	default:
		path, err := config.ExpandHome(ref)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(path), nil
	}
}

// Today is the current day in the settings timezone.
func (c *Context) Today() (time.Time, error) {
	return c.Service.Today()
}

// DayOrToday parses a YYYY-MM-DD day, defaulting to today when s is empty.
func (c *Context) DayOrToday(s string) (time.Time, error) {
	if s == "" {
		return c.Today()
	}
	day, err := utils.ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q (expected YYYY-MM-DD): %w", s, err)
	}
	return day, nil
}

// ParseMoment parses "YYYY-MM-DD HH:MM" in the settings timezone.
func (c *Context) ParseMoment(s string) (time.Time, error) {
	settings, err := c.Service.Settings()
	if err != nil {
		return time.Time{}, err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return time.Time{}, err
	}
	at, err := time.ParseInLocation(constants.DateFormat+" "+constants.TimeFormat, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (expected YYYY-MM-DD HH:MM): %w", s, err)
	}
	return at, nil
}

// FormatRecurrence formats a medication's cadence into a human-readable string
func FormatRecurrence(med models.Medication) string {
	if !med.IsScheduled() {
		return "as needed"
	}
	n := med.EffectiveInterval()
	switch med.RepeatUnit {
	case models.RepeatUnitMonth:
		if n == 1 {
			return "monthly"
		}
		return fmt.Sprintf("every %d months", n)
	default:
		if n == 1 {
			return "daily"
		}
		return fmt.Sprintf("every %d days", n)
	}
}

// FormatChangeset is the one-line summary printed after a write.
func FormatChangeset(cs storage.Changeset) string {
	if cs.IsEmpty() {
		return "No changes."
	}
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(len(cs.InsertOccurrences), "occurrence(s) added")
	add(len(cs.UpdateOccurrences), "occurrence(s) moved")
	add(len(cs.DeleteOccurrences), "occurrence(s) removed")
	add(len(cs.InsertLogs), "log(s) created")
	add(len(cs.UpdateLogs), "log(s) updated")
	add(len(cs.DeleteLogs), "log(s) removed")
	add(len(cs.UpdateMedications), "medication(s) updated")
	return strings.Join(parts, ", ")
}

// NewContext wires a service around store. The low-stock notification hook
// is registered when sender is not nil.
func NewContext(store storage.Provider, cfg config.Config, sender notifier.Sender, opts ...service.Option) *Context {
	if sender != nil {
		enabled := func() bool {
			settings, err := store.GetSettings()
			return err == nil && settings.NotificationsEnabled
		}
		opts = append(opts, service.WithHook(notifier.StockHook(sender, enabled)))
	}
	return &Context{
		Store:   store,
		Service: service.New(store, opts...),
		Config:  cfg,
	}
}
