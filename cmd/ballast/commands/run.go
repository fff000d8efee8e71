package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// runCmd performs one full pipeline cycle.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full cycle: signals, plan, validate, rebalance",
	Long: `Chains every stage in order. With --dry-run the cycle stops after
validation and the stored portfolio is never touched.

Example:
  go run ./cmd/ballast run
  go run ./cmd/ballast run --dry-run`,
	RunE: runCycle,
}

var (
	dryRun      bool
	runSeedCash float64
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "stop after validation, do not execute")
	runCmd.Flags().Float64Var(&runSeedCash, "seed-cash", 0, "starting cash when no portfolio exists yet (default 10000)")
}

func runCycle(cmd *cobra.Command, args []string) error {
	a, cleanup, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	if runSeedCash > 0 {
		a.runner.SeedCash = runSeedCash
	}

	result, err := a.runner.Run(cmd.Context(), dryRun)
	if err != nil {
		return err
	}

	fmt.Printf("run %s\n", result.RunID)
	fmt.Printf("  signals:    %d\n", result.SignalCount)
	if result.Report != nil {
		fmt.Printf("  validation: %s\n", result.Report.Status)
	}
	if result.DryRun {
		fmt.Println("  dry run, execution skipped")
		return nil
	}
	if result.Summary != nil {
		fmt.Printf("  executions: %d\n", result.Summary.Executions)
		fmt.Printf("  cash:       %.2f\n", result.Summary.Cash)
		fmt.Printf("  nav:        %.2f\n", result.Summary.NAV)
	}
	return nil
}
