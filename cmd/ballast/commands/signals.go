package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// signalsCmd collects signals from the market-data providers.
var signalsCmd = &cobra.Command{
	Use:   "signals [class]",
	Short: "Collect signals for one asset class (or all)",
	Long: `Runs the signal agents and stores one feed per asset class.

Classes: equities, crypto, fixed_income, reits. Without an argument every
agent runs.

Example:
  go run ./cmd/ballast signals
  go run ./cmd/ballast signals crypto`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSignals,
}

func init() {
	rootCmd.AddCommand(signalsCmd)
}

func runSignals(cmd *cobra.Command, args []string) error {
	a, cleanup, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	class := ""
	if len(args) == 1 {
		class = args[0]
	}

	count, err := a.runner.CollectSignals(cmd.Context(), class)
	if err != nil {
		return err
	}

	fmt.Printf("collected %d signals\n", count)
	return nil
}
