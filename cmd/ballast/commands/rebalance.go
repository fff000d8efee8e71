package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// rebalanceCmd executes the latest plan against the paper portfolio.
var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Execute the latest plan against the paper portfolio",
	Long: `Runs one paper execution cycle: liquidate off-plan holdings, then
delta-rebalance toward the plan's target weights. The updated portfolio is
persisted atomically and every fill is appended to the execution log.

Example:
  go run ./cmd/ballast rebalance
  go run ./cmd/ballast rebalance --seed-cash 25000`,
	RunE: runRebalance,
}

var seedCash float64

func init() {
	rootCmd.AddCommand(rebalanceCmd)
	rebalanceCmd.Flags().Float64Var(&seedCash, "seed-cash", 0, "starting cash when no portfolio exists yet (default 10000)")
}

func runRebalance(cmd *cobra.Command, args []string) error {
	a, cleanup, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	if seedCash > 0 {
		a.runner.SeedCash = seedCash
	}

	executions, summary, err := a.runner.Execute(cmd.Context())
	if err != nil {
		return err
	}

	for _, exec := range executions {
		side := "buy"
		if exec.IsSell() {
			side = "sell"
		}
		fmt.Printf("  %-4s %-8s qty %.6f @ %.2f\n", side, exec.InstrumentID, exec.Qty, exec.AvgFill)
	}
	fmt.Printf("executions: %d | cash: %.2f | nav: %.2f\n", summary.Executions, summary.Cash, summary.NAV)
	return nil
}
