package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dataDir    string
	policyPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ballast",
	Short: "ballast - signal-driven multi-asset paper trading pipeline",
	Long: `ballast runs a signals → plan → validate → execute pipeline over a
durable document store.

Stages:
  signals    collect per-asset-class signals from market data providers
  plan       build the allocation plan from the current signals
  validate   check the plan against the strategy policy
  rebalance  execute the plan against the paper portfolio
  run        full cycle (all of the above)

Examples:
  go run ./cmd/ballast run --dry-run
  go run ./cmd/ballast signals crypto
  go run ./cmd/ballast validate && go run ./cmd/ballast rebalance
  go run ./cmd/ballast serve`,
	SilenceUsage: true,
}

// Execute runs the CLI. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the file store (default from env)")
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "strategy policy file (default from env)")
}
