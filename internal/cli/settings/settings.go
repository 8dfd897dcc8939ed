package settings

import (
	"fmt"

	"github.com/julianstephens/dosekeep/internal/cli"
)

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Service.Settings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	fmt.Println("Current Settings:")
	fmt.Printf("  Timezone:                %s\n", settings.Timezone)
	fmt.Printf("  Default Time of Day:     %s\n", settings.DefaultTimeOfDay)
	fmt.Printf("  Horizon Days:            %d\n", settings.HorizonDays)
	fmt.Printf("  Lookback Days:           %d\n", settings.LookbackDays)
	fmt.Printf("  Exclude Daily (missed):  %v\n", settings.ExcludeDailyFromMissed)
	fmt.Println("\nNotification Settings:")
	fmt.Printf("  Notifications Enabled:   %v\n", settings.NotificationsEnabled)
	return nil
}

type SettingsSetCmd struct {
	Timezone               *string `help:"IANA timezone name, or Local."`
	DefaultTimeOfDay       *string `help:"Time used for generated occurrences (HH:MM)."`
	HorizonDays            *int    `help:"Days of occurrences generated ahead."`
	LookbackDays           *int    `help:"Missed-dose window in days."`
	ExcludeDailyFromMissed *bool   `help:"Leave plain daily medications out of missed-dose counts."`
	NotificationsEnabled   *bool   `help:"Enable or disable notifications."`
}

func (c *SettingsSetCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Service.Settings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	updated := false
	if c.Timezone != nil {
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.DefaultTimeOfDay != nil {
		settings.DefaultTimeOfDay = *c.DefaultTimeOfDay
		updated = true
	}
	if c.HorizonDays != nil {
		settings.HorizonDays = *c.HorizonDays
		updated = true
	}
	if c.LookbackDays != nil {
		settings.LookbackDays = *c.LookbackDays
		updated = true
	}
	if c.ExcludeDailyFromMissed != nil {
		settings.ExcludeDailyFromMissed = *c.ExcludeDailyFromMissed
		updated = true
	}
	if c.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *c.NotificationsEnabled
		updated = true
	}

	if !updated {
		fmt.Println("No changes specified. Use 'settings show' to view settings or flags to update them.")
		return nil
	}
	if err := ctx.Service.UpdateSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Println("Settings updated successfully.")
	return nil
}
