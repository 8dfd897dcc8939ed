package meds

import (
	"context"
	"fmt"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/utils"
)

type MedListCmd struct {
	All     bool `help:"Include inactive and deleted medications."`
	ShowIDs bool `help:"Show medication IDs." name:"show-ids"`
}

func (c *MedListCmd) Run(ctx *cli.Context) error {
	meds, err := ctx.Store.GetAllMedications(c.All)
	if err != nil {
		return fmt.Errorf("failed to get medications: %w", err)
	}
	if len(meds) == 0 {
		fmt.Println("No medications found")
		return nil
	}

	fmt.Println(cli.HeaderStyle.Render("Medications:"))
	for _, med := range meds {
		if !c.All && !med.Active {
			continue
		}

		status := "active"
		switch {
		case med.DeletedAt != nil:
			status = "deleted"
		case !med.Active:
			status = "inactive"
		}

		idStr := ""
		if c.ShowIDs {
			idStr = fmt.Sprintf(" (ID: %s)", med.ID)
		}

		fmt.Printf("  [%s] %s%s - %s", status, med.Name, idStr, cli.FormatRecurrence(med))
		if med.Dosage != "" {
			fmt.Printf(", %s", med.Dosage)
		}
		if med.TimeOfDay != "" {
			fmt.Printf(" at %s", med.TimeOfDay)
		}
		fmt.Println()
		if med.TrackStock {
			fmt.Printf("      Stock: %s\n", med.Stock.String())
		}
	}
	return nil
}

type MedShowCmd struct {
	Ref      string `arg:"" help:"Medication name or ID."`
	Upcoming int    `help:"Number of upcoming occurrences to list." default:"5"`
}

func (c *MedShowCmd) Run(ctx *cli.Context) error {
	med, err := ctx.Service.FindMedication(c.Ref)
	if err != nil {
		return err
	}

	fmt.Println(cli.HeaderStyle.Render(med.Name))
	fmt.Printf("  ID:        %s\n", med.ID)
	fmt.Printf("  Schedule:  %s\n", cli.FormatRecurrence(med))
	fmt.Printf("  Active:    %v\n", med.Active)
	if med.StartDate != "" {
		fmt.Printf("  Start:     %s\n", med.StartDate)
	}
	if med.EndDate != "" {
		fmt.Printf("  End:       %s\n", med.EndDate)
	}
	if med.Dosage != "" {
		fmt.Printf("  Dosage:    %s\n", med.Dosage)
	}
	if med.TimeOfDay != "" {
		fmt.Printf("  Time:      %s\n", med.TimeOfDay)
	}
	if len(med.SkippedDays) > 0 {
		fmt.Printf("  Skipped:   %v\n", med.SkippedDays)
	}
	if med.Notes != "" {
		fmt.Printf("  Notes:     %s\n", med.Notes)
	}

	today, err := ctx.Today()
	if err != nil {
		return err
	}

	if med.TrackStock {
		out, err := ctx.Service.EstimatedRunOutDate(context.Background(), med.ID, today)
		if err != nil {
			return err
		}
		fmt.Printf("  Stock:     %s (dose %s)\n", med.Stock.String(), med.EffectiveDoseAmount().String())
		if out.Known {
			fmt.Printf("  Runs out:  %s (%d days)\n", out.Day, out.DaysOfSupply)
		}
	}

	occs, err := ctx.Store.GetOccurrencesForMedication(med.ID)
	if err != nil {
		return fmt.Errorf("failed to get occurrences: %w", err)
	}
	todayKey := utils.DayKey(today)
	shown := 0
	for _, occ := range occs {
		if occ.Day < todayKey || shown >= c.Upcoming {
			continue
		}
		if shown == 0 {
			fmt.Println("  Upcoming:")
		}
		fmt.Printf("    %s %s  %s\n", occ.Day, occ.Time, cli.MutedStyle.Render(occ.ID))
		shown++
	}
	return nil
}
