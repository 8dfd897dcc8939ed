package doses

import (
	"context"
	"fmt"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// PendingCmd lists medications with a missed dose in the lookback window.
type PendingCmd struct {
	Day   string `help:"Reference day (YYYY-MM-DD). Defaults to today."`
	Count bool   `help:"Print only the number of medications."`
}

func (c *PendingCmd) Run(ctx *cli.Context) error {
	day, err := ctx.DayOrToday(c.Day)
	if err != nil {
		return err
	}
	pending, err := ctx.Service.PendingMedications(context.Background(), day)
	if err != nil {
		return err
	}

	if c.Count {
		fmt.Println(len(pending))
		return nil
	}
	if len(pending) == 0 {
		fmt.Println(cli.TakenStyle.Render("No missed doses."))
		return nil
	}

	fmt.Println(cli.HeaderStyle.Render(fmt.Sprintf("Missed doses as of %s:", utils.DayKey(day))))
	for _, p := range pending {
		name := p.MedicationID
		if med, err := ctx.Store.GetMedication(p.MedicationID); err == nil {
			name = med.Name
		}
		fmt.Printf("  %s %s (last missed %s)\n", cli.DangerStyle.Render("!"), name, p.Day)
	}
	return nil
}
