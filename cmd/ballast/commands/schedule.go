package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ogaspar/ballast/internal/scheduler"
)

// scheduleCmd runs the pipeline on cron schedules.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on cron schedules",
	Long: `Starts a scheduler daemon with two jobs:
- full_cycle: signals, plan, validate, rebalance (default daily at 18:00)
- signal_refresh: signal collection only (default hourly on weekdays)

Stop with Ctrl+C.

Example:
  go run ./cmd/ballast schedule
  go run ./cmd/ballast schedule --cycle-cron "30 17 * * 1-5"`,
	RunE: runSchedule,
}

var (
	cycleCron   string
	signalsCron string
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().StringVar(&cycleCron, "cycle-cron", "0 18 * * *", "cron schedule for the full cycle")
	scheduleCmd.Flags().StringVar(&signalsCron, "signals-cron", "0 9-17 * * 1-5", "cron schedule for signal refreshes")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, cleanup, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	sched := scheduler.New(a.logger)
	if err := sched.AddJob(scheduler.NewCycleJob(a.runner, cycleCron, a.logger)); err != nil {
		return err
	}
	if err := sched.AddJob(scheduler.NewSignalsJob(a.runner, signalsCron, a.logger)); err != nil {
		return err
	}

	sched.Start()

	fmt.Println("scheduler started, registered jobs:")
	for _, job := range sched.Jobs() {
		fmt.Printf("  %-16s %s\n", job.Name(), job.Schedule())
	}
	fmt.Println("press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
