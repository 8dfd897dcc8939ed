package schedule

import (
	"context"
	"fmt"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// ScheduleCmd generates occurrences for every active scheduled medication
// and removes duplicates.
type ScheduleCmd struct {
	Day     string `help:"Reference day (YYYY-MM-DD). Defaults to today."`
	Horizon int    `help:"Days ahead to generate. Defaults to the settings value."`
}

func (c *ScheduleCmd) Run(ctx *cli.Context) error {
	day, err := ctx.DayOrToday(c.Day)
	if err != nil {
		return err
	}
	cs, err := ctx.Service.BootstrapScheduledOccurrences(context.Background(), day, c.Horizon)
	if err != nil {
		return fmt.Errorf("failed to generate schedule: %w", err)
	}
	fmt.Printf("Schedule from %s: %s\n", utils.DayKey(day), cli.FormatChangeset(cs))
	return nil
}

type RegenerateCmd struct {
	Ref  string `arg:"" help:"Medication name or ID."`
	From string `help:"Pivot day (YYYY-MM-DD). Defaults to today."`
}

func (c *RegenerateCmd) Run(ctx *cli.Context) error {
	med, err := ctx.Service.FindMedication(c.Ref)
	if err != nil {
		return err
	}
	pivot, err := ctx.DayOrToday(c.From)
	if err != nil {
		return err
	}
	cs, err := ctx.Service.RegenerateFuture(context.Background(), med.ID, pivot)
	if err != nil {
		return fmt.Errorf("failed to regenerate schedule: %w", err)
	}
	fmt.Printf("Regenerated %s from %s: %s\n", med.Name, utils.DayKey(pivot), cli.FormatChangeset(cs))
	return nil
}

// MoveCmd moves one occurrence and re-anchors the schedule on the new day.
type MoveCmd struct {
	OccurrenceID string `arg:"" help:"Occurrence ID (see 'med show')."`
	Day          string `arg:"" help:"New day (YYYY-MM-DD)."`
}

func (c *MoveCmd) Run(ctx *cli.Context) error {
	day, err := utils.ParseDay(c.Day)
	if err != nil {
		return fmt.Errorf("invalid day %q (expected YYYY-MM-DD): %w", c.Day, err)
	}
	cs, err := ctx.Service.MoveAndReflow(context.Background(), c.OccurrenceID, day)
	if err != nil {
		return fmt.Errorf("failed to move occurrence: %w", err)
	}
	fmt.Printf("Moved to %s: %s\n", utils.DayKey(day), cli.FormatChangeset(cs))
	return nil
}

type DedupeCmd struct {
	Ref string `arg:"" optional:"" help:"Medication name or ID. All medications when omitted."`
}

func (c *DedupeCmd) Run(ctx *cli.Context) error {
	if c.Ref == "" {
		cs, err := ctx.Service.DeduplicateAll(context.Background())
		if err != nil {
			return fmt.Errorf("failed to remove duplicates: %w", err)
		}
		fmt.Println(cli.FormatChangeset(cs))
		return nil
	}

	med, err := ctx.Service.FindMedication(c.Ref)
	if err != nil {
		return err
	}
	cs, err := ctx.Service.Deduplicate(context.Background(), med.ID)
	if err != nil {
		return fmt.Errorf("failed to remove duplicates: %w", err)
	}
	fmt.Printf("%s: %s\n", med.Name, cli.FormatChangeset(cs))
	return nil
}
