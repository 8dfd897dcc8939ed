// Package config reads the optional YAML config file. Values in the file are
// defaults only: command-line flags and persisted settings take precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/dosekeep/internal/constants"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/utils"
)

type Config struct {
	// Database is a SQLite path, ":memory:", or a postgres:// connection
	// string without a password.
	Database string      `yaml:"database,omitempty"`
	API      APIConfig   `yaml:"api,omitempty"`
	Debug    bool        `yaml:"debug,omitempty"`
	Settings SettingsSet `yaml:"settings,omitempty"`
}

type APIConfig struct {
	Addr           string   `yaml:"addr,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// SettingsSet holds the initial values written to a freshly initialized
// store. Zero values mean "use the built-in default".
type SettingsSet struct {
	Timezone               string `yaml:"timezone,omitempty"`
	DefaultTimeOfDay       string `yaml:"default_time_of_day,omitempty"`
	HorizonDays            int    `yaml:"horizon_days,omitempty"`
	LookbackDays           int    `yaml:"lookback_days,omitempty"`
	ExcludeDailyFromMissed *bool  `yaml:"exclude_daily_from_missed,omitempty"`
	NotificationsEnabled   *bool  `yaml:"notifications_enabled,omitempty"`
}

const DefaultAPIAddr = "127.0.0.1:8765"

func Default() Config {
	return Config{
		Database: constants.DefaultConfigPath,
		API:      APIConfig{Addr: DefaultAPIAddr},
	}
}

// Load reads path. A missing file is not an error and yields Default().
func Load(path string) (Config, error) {
	cfg := Default()

	path, err := ExpandHome(path)
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Database == "" {
		cfg.Database = constants.DefaultConfigPath
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = DefaultAPIAddr
	}

	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate checks the initial settings block.
func (c Config) Validate() error {
	s := c.Settings
	if s.Timezone != "" && !utils.ValidateTimezone(s.Timezone) {
		return fmt.Errorf("invalid timezone in config: %s", s.Timezone)
	}
	if s.DefaultTimeOfDay != "" && !utils.ValidateTimeFormat(s.DefaultTimeOfDay) {
		return fmt.Errorf("invalid default_time_of_day in config: %s (expected HH:MM)", s.DefaultTimeOfDay)
	}
	if s.HorizonDays < 0 || s.LookbackDays < 0 {
		return fmt.Errorf("horizon_days and lookback_days must not be negative")
	}
	return nil
}

// Apply overlays the configured initial settings onto base.
func (s SettingsSet) Apply(base models.Settings) models.Settings {
	if s.Timezone != "" {
		base.Timezone = s.Timezone
	}
	if s.DefaultTimeOfDay != "" {
		base.DefaultTimeOfDay = s.DefaultTimeOfDay
	}
	if s.HorizonDays > 0 {
		base.HorizonDays = s.HorizonDays
	}
	if s.LookbackDays > 0 {
		base.LookbackDays = s.LookbackDays
	}
	if s.ExcludeDailyFromMissed != nil {
		base.ExcludeDailyFromMissed = *s.ExcludeDailyFromMissed
	}
	if s.NotificationsEnabled != nil {
		base.NotificationsEnabled = *s.NotificationsEnabled
	}
	return base
}

// Save writes c to path as YAML, creating the directory if needed.
func Save(path string, c Config) error {
	path, err := ExpandHome(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// ExpandHome resolves a leading "~/" against the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
