// Package pipeline wires the stages into run-to-completion cycles:
// signals → plan → validate → execute. Each stage reads its input as the
// latest snapshot from the store and writes its output back, so stages can
// also run standalone from the CLI. Validation is advisory and never gates
// execution.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ogaspar/ballast/internal/assetclass"
	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/engine"
	"github.com/ogaspar/ballast/internal/planner"
	"github.com/ogaspar/ballast/internal/signals"
	"github.com/ogaspar/ballast/internal/storage"
	"github.com/ogaspar/ballast/internal/validator"
	"github.com/ogaspar/ballast/pkg/logger"
)

// DefaultSeedCash funds a brand-new portfolio on its first execution cycle.
const DefaultSeedCash = 10_000.0

// Runner executes pipeline stages against a shared store.
type Runner struct {
	store     storage.Store
	agents    []signals.Agent
	builder   *planner.Builder
	validator *validator.Validator
	engine    *engine.Engine
	logger    *logger.Logger

	// SeedCash is the starting cash used when no portfolio snapshot exists.
	SeedCash float64
}

// New assembles a runner. The agents slice may be empty when only plan,
// validate, or execute stages will run.
func New(store storage.Store, agents []signals.Agent, builder *planner.Builder, val *validator.Validator, eng *engine.Engine, log *logger.Logger) *Runner {
	return &Runner{
		store:     store,
		agents:    agents,
		builder:   builder,
		validator: val,
		engine:    eng,
		logger:    log,
		SeedCash:  DefaultSeedCash,
	}
}

// RunResult is the outcome of one full cycle.
type RunResult struct {
	RunID       string                      `json:"run_id"`
	StartedAt   time.Time                   `json:"started_at"`
	SignalCount int                         `json:"signal_count"`
	Plan        *contracts.AllocationPlan   `json:"plan,omitempty"`
	Report      *contracts.ValidationReport `json:"report,omitempty"`
	Summary     *contracts.CycleSummary     `json:"summary,omitempty"`
	Executions  []contracts.ExecutionRecord `json:"executions,omitempty"`
	DryRun      bool                        `json:"dry_run"`
}

// CollectSignals runs the agents for one class (or all when class is empty)
// and stores each class feed. A failing agent degrades to zero signals for
// its class; a store write failure is fatal.
func (r *Runner) CollectSignals(ctx context.Context, class string) (int, error) {
	total := 0
	matched := false

	for _, agent := range r.agents {
		if class != "" && string(agent.Class()) != class {
			continue
		}
		matched = true

		collected, err := agent.Collect(ctx)
		if err != nil {
			r.logger.WithError(err).WithField("class", string(agent.Class())).
				Warn("signal agent failed, storing empty feed")
			collected = []contracts.Signal{}
		}

		key := storage.SignalsKey(string(agent.Class()))
		if err := r.store.PutJSON(ctx, key, collected); err != nil {
			return total, fmt.Errorf("store signals %s: %w", key, err)
		}

		r.logger.WithFields(map[string]interface{}{
			"class": string(agent.Class()),
			"count": len(collected),
		}).Info("signals collected")
		total += len(collected)
	}

	if class != "" && !matched {
		return 0, fmt.Errorf("no signal agent for class %q", class)
	}

	return total, nil
}

// LoadSignals reads every class feed from the store. Missing feeds count as
// zero signals for that class, not as errors.
func (r *Runner) LoadSignals(ctx context.Context) ([]contracts.Signal, error) {
	var all []contracts.Signal

	for _, class := range assetclass.All() {
		var feed []contracts.Signal
		err := r.store.GetJSON(ctx, storage.SignalsKey(string(class)), &feed)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load signals for %s: %w", class, err)
		}
		all = append(all, feed...)
	}

	return all, nil
}

// BuildPlan loads the current signals, builds the allocation plan, and
// stores it as the latest plan snapshot.
func (r *Runner) BuildPlan(ctx context.Context) (*contracts.AllocationPlan, error) {
	sigs, err := r.LoadSignals(ctx)
	if err != nil {
		return nil, err
	}

	plan := r.builder.Build(sigs)

	if err := r.store.PutJSON(ctx, storage.KeyPlan, plan); err != nil {
		return nil, fmt.Errorf("store plan: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"signals": len(sigs),
		"classes": len(plan.Classes),
		"orders":  len(plan.Orders),
	}).Info("allocation plan built")

	return plan, nil
}

// Validate checks the latest plan snapshot against the policy, stores the
// report, and appends it to the validation history log. A missing plan is
// validated as an empty plan, which the report flags.
func (r *Runner) Validate(ctx context.Context) (*contracts.ValidationReport, error) {
	var plan contracts.AllocationPlan
	err := r.store.GetJSON(ctx, storage.KeyPlan, &plan)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load plan: %w", err)
	}

	report := r.validator.Validate(&plan)

	if err := r.store.PutJSON(ctx, storage.KeyValidation, report); err != nil {
		return nil, fmt.Errorf("store validation report: %w", err)
	}
	if err := r.store.AppendJSON(ctx, storage.LogValidations, report); err != nil {
		return nil, fmt.Errorf("append validation log: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"status":   string(report.Status),
		"errors":   len(report.Errors),
		"warnings": len(report.Warnings),
	}).Info("plan validated")

	return report, nil
}

// Execute runs one rebalance cycle against the latest plan and portfolio
// snapshots. The portfolio write is the single persistence point: any
// earlier failure leaves the stored state untouched.
func (r *Runner) Execute(ctx context.Context) ([]contracts.ExecutionRecord, *contracts.CycleSummary, error) {
	var plan contracts.AllocationPlan
	if err := r.store.GetJSON(ctx, storage.KeyPlan, &plan); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("no allocation plan stored, run the plan stage first")
		}
		return nil, nil, fmt.Errorf("load plan: %w", err)
	}

	port := contracts.NewPortfolio(r.SeedCash)
	err := r.store.GetJSON(ctx, storage.KeyPortfolio, port)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		port = contracts.NewPortfolio(r.SeedCash)
		r.logger.WithField("seed_cash", r.SeedCash).Info("no portfolio snapshot, seeding a new one")
	case err != nil:
		return nil, nil, fmt.Errorf("load portfolio: %w", err)
	default:
		port.Normalize()
	}

	executions, summary := r.engine.Rebalance(ctx, port, &plan)

	if err := r.store.PutJSON(ctx, storage.KeyPortfolio, port); err != nil {
		return nil, nil, fmt.Errorf("persist portfolio: %w", err)
	}
	for _, exec := range executions {
		if err := r.store.AppendJSON(ctx, storage.LogExecutions, exec); err != nil {
			return nil, nil, fmt.Errorf("append execution log: %w", err)
		}
	}

	return executions, &summary, nil
}

// Run performs one full cycle. With dryRun the cycle stops after validation
// and the stored portfolio is never touched.
func (r *Runner) Run(ctx context.Context, dryRun bool) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DryRun:    dryRun,
	}
	log := r.logger.WithField("run_id", result.RunID)
	log.Info("pipeline run started")

	count, err := r.CollectSignals(ctx, "")
	if err != nil {
		return result, fmt.Errorf("collect stage: %w", err)
	}
	result.SignalCount = count

	plan, err := r.BuildPlan(ctx)
	if err != nil {
		return result, fmt.Errorf("plan stage: %w", err)
	}
	result.Plan = plan

	report, err := r.Validate(ctx)
	if err != nil {
		return result, fmt.Errorf("validate stage: %w", err)
	}
	result.Report = report

	if dryRun {
		log.Info("dry run, skipping execution")
		return result, nil
	}

	executions, summary, err := r.Execute(ctx)
	if err != nil {
		return result, fmt.Errorf("execute stage: %w", err)
	}
	result.Executions = executions
	result.Summary = summary

	log.WithFields(map[string]interface{}{
		"signals":    result.SignalCount,
		"executions": summary.Executions,
		"nav":        summary.NAV,
		"status":     string(report.Status),
	}).Info("pipeline run complete")

	return result, nil
}
