package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ogaspar/ballast/internal/contracts"
)

// validateCmd checks the latest plan against the strategy policy.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the latest plan against the policy",
	Long: `Runs every plan check, stores the report, appends it to the
validation history, and prints the diagnostics. Exits with status 1 on FAIL
so automation can gate on it; validation never blocks the rebalance stage
by itself.

Example:
  go run ./cmd/ballast validate`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, cleanup, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := a.runner.Validate(cmd.Context())
	if err != nil {
		return err
	}

	printReport(report)

	if !report.Passed() {
		cleanup()
		os.Exit(1)
	}
	return nil
}

func printReport(report *contracts.ValidationReport) {
	fmt.Printf("status: %s | total weight: %.2f%%\n", report.Status, report.TotalWeight*100)

	for _, note := range report.Notes {
		fmt.Printf("  note:    %s\n", note)
	}
	for _, warning := range report.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
	for _, e := range report.Errors {
		fmt.Printf("  error:   %s\n", e)
	}
}
