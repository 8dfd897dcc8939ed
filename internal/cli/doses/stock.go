package doses

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/constants"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/projection"
)

// StockCmd shows or updates on-hand stock.
type StockCmd struct {
	Ref string `arg:"" optional:"" help:"Medication name or ID. All stock-tracked medications when omitted."`
	Set string `help:"Replace the on-hand amount."`
	Add string `help:"Add a refill to the on-hand amount."`
}

func (c *StockCmd) Run(ctx *cli.Context) error {
	if c.Set != "" || c.Add != "" {
		if c.Ref == "" {
			return fmt.Errorf("a medication is required with --set or --add")
		}
		return c.update(ctx)
	}

	var meds []models.Medication
	if c.Ref != "" {
		med, err := ctx.Service.FindMedication(c.Ref)
		if err != nil {
			return err
		}
		meds = append(meds, med)
	} else {
		all, err := ctx.Store.GetAllMedications(false)
		if err != nil {
			return fmt.Errorf("failed to get medications: %w", err)
		}
		for _, med := range all {
			if med.TrackStock {
				meds = append(meds, med)
			}
		}
	}
	if len(meds) == 0 {
		fmt.Println("No medications track stock")
		return nil
	}

	today, err := ctx.Today()
	if err != nil {
		return err
	}
	fmt.Println(cli.HeaderStyle.Render("Stock:"))
	for _, med := range meds {
		fmt.Println("  " + formatStock(med, today))
	}
	return nil
}

func (c *StockCmd) update(ctx *cli.Context) error {
	med, err := ctx.Service.FindMedication(c.Ref)
	if err != nil {
		return err
	}

	stock := med.Stock
	if !med.TrackStock {
		stock = decimal.Zero
	}
	if c.Set != "" {
		if stock, err = decimal.NewFromString(c.Set); err != nil {
			return fmt.Errorf("invalid amount %q: %w", c.Set, err)
		}
	}
	if c.Add != "" {
		refill, err := decimal.NewFromString(c.Add)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", c.Add, err)
		}
		stock = stock.Add(refill)
	}

	updated, err := ctx.Service.SetStock(context.Background(), med.ID, stock)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	today, err := ctx.Today()
	if err != nil {
		return err
	}
	fmt.Println(formatStock(updated, today))
	return nil
}

func formatStock(med models.Medication, today time.Time) string {
	if !med.TrackStock {
		return med.Name + ": stock not tracked"
	}
	line := fmt.Sprintf("%s: %s on hand", med.Name, med.Stock.String())
	days, ok := projection.DaysOfSupply(med, today)
	switch {
	case !med.Stock.IsPositive():
		line += " " + cli.DangerStyle.Render("(out of stock)")
	case ok && days <= constants.LowStockDays:
		line += " " + cli.DangerStyle.Render(fmt.Sprintf("(%d days left)", days))
	case ok:
		line += fmt.Sprintf(" (%d days left)", days)
	}
	return line
}
