package system

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/constants"
	"github.com/julianstephens/dosekeep/internal/notifier"
	"github.com/julianstephens/dosekeep/internal/utils"
)

var newSender = func() notifier.Sender { return notifier.New() }

// NotifyCmd is run every minute by the tray app. It sends a reminder for each
// dose due at the current minute that has not been taken yet.
type NotifyCmd struct {
	DryRun bool   `help:"Print notifications to stdout instead of sending them."`
	Text   string `help:"Send this text instead of checking for due doses."`

	now func() time.Time
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	n := newSender()
	send := func(msg string) {
		if c.DryRun {
			fmt.Println("[DryRun] " + msg)
			return
		}
		if err := n.Notify(msg); err != nil {
			// Keep going so one failed send doesn't drop the rest
			fmt.Printf("Failed to send notification: %v\n", err)
		}
	}

	if c.Text != "" {
		send(c.Text)
		return nil
	}

	settings, err := ctx.Service.Settings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.NotificationsEnabled {
		if c.DryRun {
			fmt.Println("Notifications are disabled in settings.")
		}
		return nil
	}

	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return err
	}
	nowFn := c.now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn().In(loc)
	current := now.Format(constants.TimeFormat)

	doses, err := ctx.Service.DaySheet(context.Background(), utils.Day(now))
	if err != nil {
		return err
	}

	for _, dose := range doses {
		if dose.Log.Taken {
			continue
		}
		at := dose.Medication.TimeOfDay
		if dose.Occurrence != nil {
			at = dose.Occurrence.Time
		}
		if at != current {
			continue
		}
		msg := fmt.Sprintf("Time to take %s (%s)", dose.Medication.Name, at)
		if dose.Medication.Dosage != "" {
			msg = fmt.Sprintf("Time to take %s %s (%s)", dose.Medication.Name, dose.Medication.Dosage, at)
		}
		send(msg)
	}
	return nil
}
