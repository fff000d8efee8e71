package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogaspar/ballast/internal/assetclass"
	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/engine"
	"github.com/ogaspar/ballast/internal/planner"
	"github.com/ogaspar/ballast/internal/policy"
	"github.com/ogaspar/ballast/internal/pricing"
	"github.com/ogaspar/ballast/internal/signals"
	"github.com/ogaspar/ballast/internal/storage"
	"github.com/ogaspar/ballast/internal/validator"
	"github.com/ogaspar/ballast/pkg/logger"
)

// stubAgent emits a fixed signal set for one class.
type stubAgent struct {
	class assetclass.Class
	out   []contracts.Signal
	err   error
}

func (a *stubAgent) Class() assetclass.Class { return a.class }

func (a *stubAgent) Collect(ctx context.Context) ([]contracts.Signal, error) {
	return a.out, a.err
}

func buySignal(id string, conf float64) contracts.Signal {
	return contracts.Signal{
		InstrumentID: id,
		Side:         contracts.SideBuy,
		Confidence:   conf,
		TTLDays:      0,
	}
}

func newRunner(t *testing.T, agents []signals.Agent, prices map[string]float64) (*Runner, storage.Store) {
	t.Helper()

	pol := &policy.Policy{
		AllocTarget: map[string]float64{"equities": 0.6, "crypto": 0.4},
		Rebalance:   policy.RebalanceConfig{Bands: 0.05},
		RiskLimits:  policy.RiskLimits{PositionMaxPct: 0.65},
	}
	require.NoError(t, policy.Validate(pol))

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	log := logger.NewNop()
	runner := New(
		store,
		agents,
		planner.New(pol, log),
		validator.New(pol),
		engine.New(pricing.NewStaticOracle(prices), log),
		log,
	)
	return runner, store
}

func TestRun_FullCycle(t *testing.T) {
	agents := []signals.Agent{
		&stubAgent{class: assetclass.Equities, out: []contracts.Signal{buySignal("AAPL", 0.8)}},
		&stubAgent{class: assetclass.Crypto, out: []contracts.Signal{buySignal("BTC", 0.6)}},
	}
	runner, store := newRunner(t, agents, map[string]float64{"AAPL": 100, "BTC": 50000})
	ctx := context.Background()

	result, err := runner.Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.SignalCount)
	assert.NotEmpty(t, result.RunID)
	require.NotNil(t, result.Report)
	assert.Equal(t, contracts.ValidationOK, result.Report.Status)
	require.NotNil(t, result.Summary)
	assert.InDelta(t, DefaultSeedCash, result.Summary.NAV, 1e-6)

	// Portfolio snapshot persisted with both positions funded.
	var port contracts.Portfolio
	require.NoError(t, store.GetJSON(ctx, storage.KeyPortfolio, &port))
	assert.InDelta(t, 6000, port.Positions["AAPL"], 1e-6)
	assert.InDelta(t, 4000, port.Positions["BTC"], 1e-6)
	require.Len(t, port.History, 1)
}

func TestRun_DryRunSkipsExecution(t *testing.T) {
	agents := []signals.Agent{
		&stubAgent{class: assetclass.Equities, out: []contracts.Signal{buySignal("AAPL", 0.8)}},
	}
	runner, store := newRunner(t, agents, map[string]float64{"AAPL": 100})
	ctx := context.Background()

	result, err := runner.Run(ctx, true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Nil(t, result.Summary)

	var port contracts.Portfolio
	err = store.GetJSON(ctx, storage.KeyPortfolio, &port)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCollectSignals_AgentFailureDegradesToEmptyFeed(t *testing.T) {
	agents := []signals.Agent{
		&stubAgent{class: assetclass.Equities, err: errors.New("provider down")},
		&stubAgent{class: assetclass.Crypto, out: []contracts.Signal{buySignal("BTC", 0.6)}},
	}
	runner, store := newRunner(t, agents, nil)
	ctx := context.Background()

	count, err := runner.CollectSignals(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The failed class still stored an (empty) feed.
	var feed []contracts.Signal
	require.NoError(t, store.GetJSON(ctx, storage.SignalsKey("equities"), &feed))
	assert.Empty(t, feed)
}

func TestCollectSignals_UnknownClass(t *testing.T) {
	runner, _ := newRunner(t, nil, nil)

	_, err := runner.CollectSignals(context.Background(), "bonds")
	assert.Error(t, err)
}

func TestLoadSignals_MissingFeedsAreZeroSignals(t *testing.T) {
	runner, store := newRunner(t, nil, nil)
	ctx := context.Background()

	require.NoError(t, store.PutJSON(ctx, storage.SignalsKey("crypto"),
		[]contracts.Signal{buySignal("BTC", 0.6)}))

	sigs, err := runner.LoadSignals(ctx)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, "BTC", sigs[0].InstrumentID)
}

func TestValidate_MissingPlanReportsFail(t *testing.T) {
	runner, store := newRunner(t, nil, nil)
	ctx := context.Background()

	report, err := runner.Validate(ctx)
	require.NoError(t, err)
	assert.Equal(t, contracts.ValidationFail, report.Status)

	// Report stored as latest snapshot too.
	var stored contracts.ValidationReport
	require.NoError(t, store.GetJSON(ctx, storage.KeyValidation, &stored))
	assert.Equal(t, contracts.ValidationFail, stored.Status)
}

func TestExecute_RequiresPlan(t *testing.T) {
	runner, _ := newRunner(t, nil, nil)

	_, _, err := runner.Execute(context.Background())
	assert.ErrorContains(t, err, "no allocation plan")
}

func TestExecute_SecondCycleIsNoop(t *testing.T) {
	agents := []signals.Agent{
		&stubAgent{class: assetclass.Equities, out: []contracts.Signal{buySignal("AAPL", 0.8)}},
		&stubAgent{class: assetclass.Crypto, out: []contracts.Signal{buySignal("BTC", 0.6)}},
	}
	runner, _ := newRunner(t, agents, map[string]float64{"AAPL": 100, "BTC": 50000})
	ctx := context.Background()

	_, err := runner.Run(ctx, false)
	require.NoError(t, err)

	// A second cycle against the already-balanced portfolio is a no-op.
	executions, summary, err := runner.Execute(ctx)
	require.NoError(t, err)
	assert.Empty(t, executions)
	assert.InDelta(t, DefaultSeedCash, summary.NAV, 1e-6)
}
