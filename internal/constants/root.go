package constants

const (
	AppName            = "dosekeep"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/dosekeep/dosekeep.db"
	DefaultConfigFile  = "~/.config/dosekeep/config.yaml"
	ConnectionEnvVar   = "DOSEKEEP_DB_CONNECTION"
	Version            = "v0.3.0"

	// DateFormat is the day-key format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// MinGenerationHorizonDays is the shortest window GenerateInitial will ever walk.
	MinGenerationHorizonDays = 30

	// StockProjectionMaxDays bounds the stock run-out walk (20 years).
	StockProjectionMaxDays = 20*365 + 5

	// EligibilityScanMaxDays bounds the "any occurrence between anchor and end" scan.
	EligibilityScanMaxDays = 20*365 + 5
)
