package meds

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/models"
)

// MedEditCmd changes a medication. Only flags that are given are applied;
// schedule changes take effect from today.
type MedEditCmd struct {
	Ref string `arg:"" help:"Medication name or ID."`

	Name      *string `help:"New name."`
	Dosage    *string `help:"Dosage label."`
	Notes     *string `help:"Notes."`
	Every     *int    `help:"Repeat interval."`
	Unit      *string `help:"Repeat unit (day, month)."`
	Start     *string `help:"Anchor day (YYYY-MM-DD)."`
	End       *string `help:"Last day (YYYY-MM-DD). Pass an empty value to clear."`
	Time      *string `help:"Time of day (HH:MM)."`
	Dose      *string `help:"Units consumed per intake."`
	NoTrack   bool    `help:"Stop tracking stock." name:"no-track-stock"`
	Scheduled *bool   `help:"Switch between scheduled and as-needed."`
}

func (c *MedEditCmd) Run(ctx *cli.Context) error {
	med, err := ctx.Service.FindMedication(c.Ref)
	if err != nil {
		return err
	}

	updated := apply(&med, c)
	if c.Dose != nil {
		dose, err := decimal.NewFromString(*c.Dose)
		if err != nil {
			return fmt.Errorf("invalid dose %q: %w", *c.Dose, err)
		}
		med.DoseAmount = dose
		updated = true
	}
	if !updated {
		fmt.Println("No changes specified.")
		return nil
	}

	if _, err := ctx.Service.UpdateMedication(context.Background(), med); err != nil {
		return fmt.Errorf("failed to update medication: %w", err)
	}
	fmt.Printf("Updated medication: %s\n", med.Name)
	return nil
}

func apply(med *models.Medication, c *MedEditCmd) bool {
	updated := false
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
			updated = true
		}
	}
	set(&med.Name, c.Name)
	set(&med.Dosage, c.Dosage)
	set(&med.Notes, c.Notes)
	set(&med.StartDate, c.Start)
	set(&med.EndDate, c.End)
	set(&med.TimeOfDay, c.Time)
	if c.Every != nil {
		med.Interval = *c.Every
		updated = true
	}
	if c.Unit != nil && *c.Unit != "" {
		med.RepeatUnit = models.RepeatUnit(*c.Unit)
		updated = true
	}
	if c.Scheduled != nil {
		med.Kind = models.MedicationKindOccasional
		if *c.Scheduled {
			med.Kind = models.MedicationKindScheduled
		}
		updated = true
	}
	if c.NoTrack {
		med.TrackStock = false
		updated = true
	}
	return updated
}
