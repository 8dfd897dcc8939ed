package constants

import "time"

const (
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "dosekeep-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.dosekeep"

	// LowStockDays is the remaining supply, in days, at which refill warnings start.
	LowStockDays = 7
)
