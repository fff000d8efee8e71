package commands

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/storage"
)

// statusCmd prints the current portfolio and latest validation verdict.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the paper portfolio and latest validation verdict",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, cleanup, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()

	var port contracts.Portfolio
	err = a.store.GetJSON(ctx, storage.KeyPortfolio, &port)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fmt.Println("no portfolio yet, run a rebalance first")
	case err != nil:
		return fmt.Errorf("load portfolio: %w", err)
	default:
		port.Normalize()
		printPortfolio(&port)
	}

	var report contracts.ValidationReport
	err = a.store.GetJSON(ctx, storage.KeyValidation, &report)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fmt.Println("no validation report yet")
	case err != nil:
		return fmt.Errorf("load validation report: %w", err)
	default:
		fmt.Printf("last validation: %s (%d errors, %d warnings)\n",
			report.Status, len(report.Errors), len(report.Warnings))
	}

	return nil
}

func printPortfolio(port *contracts.Portfolio) {
	nav := port.NAV()

	ids := make([]string, 0, len(port.Positions))
	for id := range port.Positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println("positions:")
	for _, id := range ids {
		mv := port.Positions[id]
		weight := 0.0
		if nav > 0 {
			weight = mv / nav
		}
		fmt.Printf("  %-8s %12.2f  (%.2f%%)\n", id, mv, weight*100)
	}
	fmt.Printf("cash: %.2f | nav: %.2f | history entries: %d\n", port.Cash, nav, len(port.History))
}
