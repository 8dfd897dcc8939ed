package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/validation"
)

type ValidateCmd struct {
	Fix bool `help:"Remove duplicate occurrences after reporting."`
}

func (cmd *ValidateCmd) Run(ctx *cli.Context) error {
	meds, err := ctx.Store.GetAllMedications(false)
	if err != nil {
		return fmt.Errorf("failed to load medications: %w", err)
	}
	occs, err := ctx.Store.GetOccurrencesInRange("0000-01-01", "9999-12-31")
	if err != nil {
		return fmt.Errorf("failed to load occurrences: %w", err)
	}

	fmt.Println("Validating medications and occurrences...")
	result := validation.New().Validate(meds, occs)
	fmt.Println()
	fmt.Println(result.FormatReport())

	if cmd.Fix && result.Count(validation.ConflictDuplicateOccurrence) > 0 {
		cs, err := ctx.Service.DeduplicateAll(context.Background())
		if err != nil {
			return fmt.Errorf("failed to remove duplicates: %w", err)
		}
		fmt.Println(cli.FormatChangeset(cs))
	}
	return nil
}
