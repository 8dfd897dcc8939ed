package meds

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/dosekeep/internal/cli"
)

type MedActivateCmd struct {
	Ref   string `arg:"" help:"Medication name or ID."`
	Start string `help:"New anchor day (YYYY-MM-DD). Keeps the current anchor when omitted."`
}

func (c *MedActivateCmd) Run(ctx *cli.Context) error {
	med, err := ctx.Service.FindMedication(c.Ref)
	if err != nil {
		return err
	}

	var start *time.Time
	if c.Start != "" {
		day, err := ctx.DayOrToday(c.Start)
		if err != nil {
			return err
		}
		start = &day
	}

	cs, err := ctx.Service.Activate(context.Background(), med.ID, start)
	if err != nil {
		return fmt.Errorf("failed to activate medication: %w", err)
	}
	fmt.Printf("Activated %s: %s\n", med.Name, cli.FormatChangeset(cs))
	return nil
}

type MedDeactivateCmd struct {
	Ref string `arg:"" help:"Medication name or ID."`
}

func (c *MedDeactivateCmd) Run(ctx *cli.Context) error {
	med, err := ctx.Service.FindMedication(c.Ref)
	if err != nil {
		return err
	}
	cs, err := ctx.Service.Deactivate(context.Background(), med.ID)
	if err != nil {
		return fmt.Errorf("failed to deactivate medication: %w", err)
	}
	fmt.Printf("Deactivated %s: %s\n", med.Name, cli.FormatChangeset(cs))
	return nil
}

type MedSkipCmd struct {
	Ref string `arg:"" help:"Medication name or ID."`
	Day string `arg:"" optional:"" help:"Day to skip (YYYY-MM-DD). Defaults to today."`
}

func (c *MedSkipCmd) Run(ctx *cli.Context) error {
	med, err := ctx.Service.FindMedication(c.Ref)
	if err != nil {
		return err
	}
	day, err := ctx.DayOrToday(c.Day)
	if err != nil {
		return err
	}
	cs, err := ctx.Service.SkipDay(context.Background(), med.ID, day)
	if err != nil {
		return fmt.Errorf("failed to skip day: %w", err)
	}
	fmt.Printf("Skipped %s on %s: %s\n", med.Name, day.Format("2006-01-02"), cli.FormatChangeset(cs))
	return nil
}

type MedDeleteCmd struct {
	Ref string `arg:"" help:"Medication name or ID."`
	Yes bool   `help:"Skip the confirmation prompt." short:"y"`
}

func (c *MedDeleteCmd) Run(ctx *cli.Context) error {
	med, err := ctx.Service.FindMedication(c.Ref)
	if err != nil {
		return err
	}
	if !c.Yes {
		fmt.Printf("This deletes %s and its whole intake history. Re-run with --yes to confirm.\n", med.Name)
		return nil
	}
	if err := ctx.Service.DeleteMedication(context.Background(), med.ID); err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}
	fmt.Printf("Deleted medication: %s\n", med.Name)
	return nil
}
