package scheduler

import (
	"context"

	"github.com/ogaspar/ballast/internal/pipeline"
	"github.com/ogaspar/ballast/pkg/logger"
)

// CycleJob runs one full pipeline cycle: signals, plan, validate, rebalance.
type CycleJob struct {
	runner   *pipeline.Runner
	schedule string
	logger   *logger.Logger
}

// NewCycleJob creates the full-cycle job on the given cron schedule.
func NewCycleJob(runner *pipeline.Runner, schedule string, log *logger.Logger) *CycleJob {
	return &CycleJob{runner: runner, schedule: schedule, logger: log}
}

func (j *CycleJob) Name() string     { return "full_cycle" }
func (j *CycleJob) Schedule() string { return j.schedule }

func (j *CycleJob) Run(ctx context.Context) error {
	result, err := j.runner.Run(ctx, false)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"run_id":  result.RunID,
		"signals": result.SignalCount,
	}
	if result.Summary != nil {
		fields["nav"] = result.Summary.NAV
	}
	j.logger.WithFields(fields).Info("scheduled cycle finished")
	return nil
}

// SignalsJob refreshes the signal feeds without touching the portfolio.
type SignalsJob struct {
	runner   *pipeline.Runner
	schedule string
	logger   *logger.Logger
}

// NewSignalsJob creates the signal-refresh job on the given cron schedule.
func NewSignalsJob(runner *pipeline.Runner, schedule string, log *logger.Logger) *SignalsJob {
	return &SignalsJob{runner: runner, schedule: schedule, logger: log}
}

func (j *SignalsJob) Name() string     { return "signal_refresh" }
func (j *SignalsJob) Schedule() string { return j.schedule }

func (j *SignalsJob) Run(ctx context.Context) error {
	count, err := j.runner.CollectSignals(ctx, "")
	if err != nil {
		return err
	}
	j.logger.WithField("count", count).Info("scheduled signal refresh finished")
	return nil
}
