package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// planCmd builds the allocation plan from the stored signals.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build the allocation plan from the current signals",
	Long: `Reads every stored signal feed, builds the allocation plan, and
stores it as the latest plan snapshot. Missing feeds count as zero signals.

Example:
  go run ./cmd/ballast plan`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, cleanup, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	plan, err := a.runner.BuildPlan(cmd.Context())
	if err != nil {
		return err
	}

	classes := make([]string, 0, len(plan.Classes))
	for class := range plan.Classes {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		instruments := plan.Classes[class]
		ids := make([]string, 0, len(instruments))
		for id := range instruments {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Printf("%s:\n", class)
		for _, id := range ids {
			fmt.Printf("  %-8s %.2f%%\n", id, instruments[id]*100)
		}
	}
	fmt.Printf("total weight: %.2f%% across %d orders\n", plan.TotalWeight()*100, len(plan.Orders))
	return nil
}
