package models

// Settings represents application-wide settings
type Settings struct {
	Timezone               string `json:"timezone"`                  // IANA timezone name or "Local"
	DefaultTimeOfDay       string `json:"default_time_of_day"`       // time used for generated occurrences, e.g. "08:00"
	HorizonDays            int    `json:"horizon_days"`              // how far ahead occurrences are generated
	LookbackDays           int    `json:"lookback_days"`             // missed-dose window
	ExcludeDailyFromMissed bool   `json:"exclude_daily_from_missed"` // leave plain daily medications out of missed-dose counts
	NotificationsEnabled   bool   `json:"notifications_enabled"`
}
