package models

import (
	"fmt"

	"github.com/julianstephens/dosekeep/internal/constants"
)

// DefaultSettings returns the settings used for a freshly initialized store.
func DefaultSettings() Settings {
	return Settings{
		Timezone:               constants.DefaultTimezone,
		DefaultTimeOfDay:       constants.DefaultTimeOfDay,
		HorizonDays:            constants.DefaultHorizonDays,
		LookbackDays:           constants.DefaultLookbackDays,
		ExcludeDailyFromMissed: constants.DefaultExcludeDailyFromMissed,
		NotificationsEnabled:   constants.DefaultNotificationsEnabled,
	}
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Keys missing from data keep their default value.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingDefaultTimeOfDay:
			settings.DefaultTimeOfDay = value
		case constants.SettingHorizonDays:
			if _, err := fmt.Sscanf(value, "%d", &settings.HorizonDays); err != nil {
				return Settings{}, fmt.Errorf("parsing horizon_days: %w", err)
			}
		case constants.SettingLookbackDays:
			if _, err := fmt.Sscanf(value, "%d", &settings.LookbackDays); err != nil {
				return Settings{}, fmt.Errorf("parsing lookback_days: %w", err)
			}
		case constants.SettingExcludeDailyFromMissed:
			settings.ExcludeDailyFromMissed = value == "true"
		case constants.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true"
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:               settings.Timezone,
		constants.SettingDefaultTimeOfDay:       settings.DefaultTimeOfDay,
		constants.SettingHorizonDays:            fmt.Sprintf("%d", settings.HorizonDays),
		constants.SettingLookbackDays:           fmt.Sprintf("%d", settings.LookbackDays),
		constants.SettingExcludeDailyFromMissed: fmt.Sprintf("%v", settings.ExcludeDailyFromMissed),
		constants.SettingNotificationsEnabled:   fmt.Sprintf("%v", settings.NotificationsEnabled),
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.DefaultTimeOfDay == "" {
		settings.DefaultTimeOfDay = constants.DefaultTimeOfDay
	}
	if settings.HorizonDays <= 0 {
		settings.HorizonDays = constants.DefaultHorizonDays
	}
	if settings.LookbackDays <= 0 {
		settings.LookbackDays = constants.DefaultLookbackDays
	}
}
