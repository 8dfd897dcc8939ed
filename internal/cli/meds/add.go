package meds

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/models"
)

type MedAddCmd struct {
	Name       string `arg:"" help:"Medication name."`
	Dosage     string `help:"Free-form dosage label, e.g. 500mg."`
	Notes      string `help:"Notes."`
	Occasional bool   `help:"Taken as needed, no schedule."`
	Every      int    `help:"Repeat interval." default:"1"`
	Unit       string `help:"Repeat unit (day, month)." enum:"day,month" default:"day"`
	Start      string `help:"Anchor day (YYYY-MM-DD). Defaults to today."`
	End        string `help:"Last day (YYYY-MM-DD), inclusive."`
	Time       string `help:"Time of day (HH:MM). Defaults to the settings value."`
	Inactive   bool   `help:"Add without scheduling."`
	Dose       string `help:"Units consumed per intake." default:"1"`
	Stock      string `help:"Units on hand. Enables stock tracking."`
}

func (c *MedAddCmd) Run(ctx *cli.Context) error {
	med := models.Medication{
		Name:       c.Name,
		Dosage:     c.Dosage,
		Notes:      c.Notes,
		Kind:       models.MedicationKindScheduled,
		Active:     !c.Inactive,
		RepeatUnit: models.RepeatUnit(c.Unit),
		Interval:   c.Every,
		StartDate:  c.Start,
		EndDate:    c.End,
		TimeOfDay:  c.Time,
	}
	if c.Occasional {
		med.Kind = models.MedicationKindOccasional
	}

	dose, err := decimal.NewFromString(c.Dose)
	if err != nil {
		return fmt.Errorf("invalid dose %q: %w", c.Dose, err)
	}
	med.DoseAmount = dose
	if c.Stock != "" {
		stock, err := decimal.NewFromString(c.Stock)
		if err != nil {
			return fmt.Errorf("invalid stock %q: %w", c.Stock, err)
		}
		med.Stock = stock
		med.TrackStock = true
	}

	created, err := ctx.Service.AddMedication(context.Background(), med)
	if err != nil {
		return fmt.Errorf("failed to add medication: %w", err)
	}

	fmt.Printf("Added medication: %s (%s)\n", created.Name, cli.FormatRecurrence(created))
	fmt.Printf("  ID: %s\n", created.ID)
	return nil
}
