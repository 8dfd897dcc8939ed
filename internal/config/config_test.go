package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/dosekeep/internal/constants"
	"github.com/julianstephens/dosekeep/internal/models"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database: /tmp/meds.db
debug: true
api:
  addr: 0.0.0.0:9000
  allowed_origins: ["http://localhost:5173"]
settings:
  timezone: Europe/Paris
  horizon_days: 90
  exclude_daily_from_missed: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/meds.db", cfg.Database)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "0.0.0.0:9000", cfg.API.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.API.AllowedOrigins)

	settings := cfg.Settings.Apply(models.DefaultSettings())
	assert.Equal(t, "Europe/Paris", settings.Timezone)
	assert.Equal(t, 90, settings.HorizonDays)
	assert.False(t, settings.ExcludeDailyFromMissed)
	assert.Equal(t, constants.DefaultLookbackDays, settings.LookbackDays)
	assert.True(t, settings.NotificationsEnabled)
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	tests := map[string]string{
		"timezone": "settings:\n  timezone: Mars/Olympus\n",
		"time":     "settings:\n  default_time_of_day: 25:99\n",
		"negative": "settings:\n  horizon_days: -1\n",
		"syntax":   "database: [unterminated\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Database = ":memory:"
	cfg.Settings.HorizonDays = 45

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", loaded.Database)
	assert.Equal(t, 45, loaded.Settings.HorizonDays)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/x/y.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x/y.db"), got)

	got, err = ExpandHome("/abs/path.db")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path.db", got)
}
