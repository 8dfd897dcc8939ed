package constants

const (
	SettingTimezone               = "timezone"
	SettingDefaultTimeOfDay       = "default_time_of_day"
	SettingHorizonDays            = "horizon_days"
	SettingLookbackDays           = "lookback_days"
	SettingExcludeDailyFromMissed = "exclude_daily_from_missed"
	SettingNotificationsEnabled   = "notifications_enabled"

	DefaultTimezone               = "Local" // Use system local timezone by default
	DefaultTimeOfDay              = "08:00"
	DefaultHorizonDays            = 30
	DefaultLookbackDays           = 30
	DefaultExcludeDailyFromMissed = true
	DefaultNotificationsEnabled   = true
)
