package doses

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// TakeCmd marks a dose as taken.
type TakeCmd struct {
	Ref string `arg:"" help:"Medication name or ID, or a log entry ID."`
	Day string `help:"Day of the dose (YYYY-MM-DD). Defaults to today."`
	At  string `help:"When it was taken (YYYY-MM-DD HH:MM). Required to record a time for past days."`
}

func (c *TakeCmd) Run(ctx *cli.Context) error {
	return setTaken(ctx, c.Ref, c.Day, c.At, true)
}

// UntakeCmd clears a taken mark.
type UntakeCmd struct {
	Ref string `arg:"" help:"Medication name or ID, or a log entry ID."`
	Day string `help:"Day of the dose (YYYY-MM-DD). Defaults to today."`
}

func (c *UntakeCmd) Run(ctx *cli.Context) error {
	return setTaken(ctx, c.Ref, c.Day, "", false)
}

func setTaken(ctx *cli.Context, ref, dayStr, atStr string, taken bool) error {
	logID, name, err := resolveLog(ctx, ref, dayStr, taken)
	if err != nil {
		return err
	}

	var override *time.Time
	if atStr != "" {
		at, err := ctx.ParseMoment(atStr)
		if err != nil {
			return err
		}
		override = &at
	}

	entry, err := ctx.Service.SetTaken(context.Background(), logID, taken, override)
	if err != nil {
		return fmt.Errorf("failed to update dose: %w", err)
	}

	if taken {
		fmt.Printf("%s %s on %s\n", cli.TakenStyle.Render("Took"), name, entry.Day)
	} else {
		fmt.Printf("Cleared %s on %s\n", name, entry.Day)
	}
	return nil
}

// resolveLog finds the log entry ref points at. A log ID is used as is;
// otherwise ref names a medication and the first entry of the day whose taken
// state differs from want is picked.
func resolveLog(ctx *cli.Context, ref, dayStr string, want bool) (string, string, error) {
	if entry, err := ctx.Store.GetLog(ref); err == nil {
		name := entry.MedicationID
		if med, err := ctx.Store.GetMedication(entry.MedicationID); err == nil {
			name = med.Name
		}
		return entry.ID, name, nil
	}

	med, err := ctx.Service.FindMedication(ref)
	if err != nil {
		return "", "", err
	}
	day, err := ctx.DayOrToday(dayStr)
	if err != nil {
		return "", "", err
	}
	doses, err := ctx.Service.DaySheet(context.Background(), day)
	if err != nil {
		return "", "", err
	}

	found := false
	for _, dose := range doses {
		if dose.Medication.ID != med.ID {
			continue
		}
		found = true
		if dose.Log.Taken != want {
			return dose.Log.ID, med.Name, nil
		}
	}
	if found {
		state := "taken"
		if !want {
			state = "untaken"
		}
		return "", "", fmt.Errorf("%s is already %s on %s", med.Name, state, utils.DayKey(day))
	}
	return "", "", fmt.Errorf("no dose of %s on %s: %w", med.Name, utils.DayKey(day), errors.ErrNotFound)
}
