package doses

import (
	"context"
	"fmt"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/service"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// TodayCmd reconciles a day's log entries and prints them.
type TodayCmd struct {
	Day     string `help:"Day to show (YYYY-MM-DD). Defaults to today."`
	ShowIDs bool   `help:"Show log entry IDs." name:"show-ids"`
}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	day, err := ctx.DayOrToday(c.Day)
	if err != nil {
		return err
	}
	doses, err := ctx.Service.DaySheet(context.Background(), day)
	if err != nil {
		return err
	}

	fmt.Println(cli.HeaderStyle.Render("Doses for " + utils.DayKey(day)))
	if len(doses) == 0 {
		fmt.Println(cli.MutedStyle.Render("  Nothing due."))
		return nil
	}
	for _, dose := range doses {
		fmt.Println("  " + formatDose(dose, c.ShowIDs))
	}
	return nil
}

func formatDose(dose service.Dose, showIDs bool) string {
	at := dose.Medication.TimeOfDay
	if dose.Occurrence != nil {
		at = dose.Occurrence.Time
	}
	if at == "" {
		at = "--:--"
	}

	mark := cli.DueStyle.Render("[ ]")
	if dose.Log.Taken {
		mark = cli.TakenStyle.Render("[x]")
	}

	line := fmt.Sprintf("%s %s %s", mark, at, dose.Medication.Name)
	if dose.Medication.Dosage != "" {
		line += " " + dose.Medication.Dosage
	}
	if dose.Log.Taken && dose.Log.TakenAt != nil {
		line += cli.MutedStyle.Render(fmt.Sprintf(" (taken %s)", dose.Log.TakenAt.Format("2006-01-02 15:04")))
	}
	if showIDs {
		line += cli.MutedStyle.Render(" " + dose.Log.ID)
	}
	return line
}
