package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/policy"
	"github.com/ogaspar/ballast/pkg/logger"
)

var testTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newBuilder(t *testing.T, pol *policy.Policy) *Builder {
	t.Helper()
	require.NoError(t, policy.Validate(pol))
	b := New(pol, logger.NewNop())
	b.now = func() time.Time { return testTime }
	return b
}

func sig(id string, conf float64) contracts.Signal {
	return contracts.Signal{
		InstrumentID: id,
		Side:         contracts.SideBuy,
		Confidence:   conf,
		TTLDays:      14,
		CollectedAt:  testTime.AddDate(0, 0, -1),
	}
}

func twoClassPolicy() *policy.Policy {
	return &policy.Policy{
		AllocTarget: map[string]float64{"equities": 0.6, "crypto": 0.4},
		Rebalance:   policy.RebalanceConfig{Bands: 0.05},
		RiskLimits:  policy.RiskLimits{PositionMaxPct: 1.0},
	}
}

func TestBuild_SingleSignalPerClass(t *testing.T) {
	b := newBuilder(t, twoClassPolicy())

	plan := b.Build([]contracts.Signal{sig("AAPL", 0.8), sig("BTC", 0.6)})

	assert.Equal(t, map[string]float64{"AAPL": 0.6}, plan.Classes["equities"])
	assert.Equal(t, map[string]float64{"BTC": 0.4}, plan.Classes["crypto"])
	assert.InDelta(t, 1.0, plan.TotalWeight(), 1e-9)

	require.Len(t, plan.Orders, 2)
	for _, order := range plan.Orders {
		assert.Equal(t, contracts.ActionIncrease, order.Action)
		assert.Nil(t, order.MaxNotional)
	}
}

func TestBuild_EmptySignals(t *testing.T) {
	b := newBuilder(t, twoClassPolicy())

	plan := b.Build(nil)

	assert.Empty(t, plan.Classes)
	assert.Empty(t, plan.Orders)
	assert.Zero(t, plan.TotalWeight())
}

func TestBuild_ConfidenceShareWithinClass(t *testing.T) {
	pol := &policy.Policy{
		AllocTarget: map[string]float64{"equities": 1.0},
		RiskLimits:  policy.RiskLimits{PositionMaxPct: 1.0},
	}
	b := newBuilder(t, pol)

	plan := b.Build([]contracts.Signal{sig("AAPL", 0.6), sig("MSFT", 0.2)})

	assert.InDelta(t, 0.75, plan.Classes["equities"]["AAPL"], 1e-9)
	assert.InDelta(t, 0.25, plan.Classes["equities"]["MSFT"], 1e-9)
}

func TestBuild_DuplicateInstrumentKeepsMaxConfidence(t *testing.T) {
	pol := &policy.Policy{
		AllocTarget: map[string]float64{"equities": 1.0},
		RiskLimits:  policy.RiskLimits{PositionMaxPct: 1.0},
	}
	b := newBuilder(t, pol)

	plan := b.Build([]contracts.Signal{
		sig("AAPL", 0.3),
		sig("MSFT", 0.5),
		sig("AAPL", 0.5), // later, higher duplicate wins
	})

	assert.InDelta(t, 0.5, plan.Classes["equities"]["AAPL"], 1e-9)
	assert.InDelta(t, 0.5, plan.Classes["equities"]["MSFT"], 1e-9)
}

func TestBuild_ExpiredSignalsIgnored(t *testing.T) {
	b := newBuilder(t, twoClassPolicy())

	stale := sig("AAPL", 0.9)
	stale.TTLDays = 7
	stale.CollectedAt = testTime.AddDate(0, 0, -30)

	plan := b.Build([]contracts.Signal{stale, sig("BTC", 0.6)})

	assert.NotContains(t, plan.Classes, "equities")
	assert.Contains(t, plan.Classes, "crypto")
}

func TestBuild_ZeroConfidenceClassSkipped(t *testing.T) {
	b := newBuilder(t, twoClassPolicy())

	plan := b.Build([]contracts.Signal{sig("AAPL", 0), sig("BTC", 0.6)})

	// Equities has signals but zero aggregate confidence: silent gap.
	assert.NotContains(t, plan.Classes, "equities")
	assert.Equal(t, map[string]float64{"BTC": 0.4}, plan.Classes["crypto"])
}

func TestBuild_NegativeConfidenceCountsAsZero(t *testing.T) {
	pol := &policy.Policy{
		AllocTarget: map[string]float64{"equities": 1.0},
		RiskLimits:  policy.RiskLimits{PositionMaxPct: 1.0},
	}
	b := newBuilder(t, pol)

	plan := b.Build([]contracts.Signal{sig("AAPL", -0.4), sig("MSFT", 0.5)})

	assert.Zero(t, plan.Classes["equities"]["AAPL"])
	assert.InDelta(t, 1.0, plan.Classes["equities"]["MSFT"], 1e-9)
}

func TestBuild_ClassWithoutPolicyEntryDropped(t *testing.T) {
	pol := &policy.Policy{
		AllocTarget: map[string]float64{"equities": 1.0},
		RiskLimits:  policy.RiskLimits{PositionMaxPct: 1.0},
	}
	b := newBuilder(t, pol)

	plan := b.Build([]contracts.Signal{sig("AAPL", 0.8), sig("BTC", 0.9)})

	assert.Contains(t, plan.Classes, "equities")
	assert.NotContains(t, plan.Classes, "crypto")
	require.Len(t, plan.Orders, 1)
	assert.Equal(t, "AAPL", plan.Orders[0].InstrumentID)
}

func TestBuild_ZeroTargetClassEmitsHoldOrders(t *testing.T) {
	pol := &policy.Policy{
		AllocTarget: map[string]float64{"equities": 1.0, "crypto": 0},
		RiskLimits:  policy.RiskLimits{PositionMaxPct: 1.0},
	}
	b := newBuilder(t, pol)

	plan := b.Build([]contracts.Signal{sig("BTC", 0.9)})

	assert.Equal(t, map[string]float64{"BTC": 0}, plan.Classes["crypto"])
	require.Len(t, plan.Orders, 1)
	assert.Equal(t, contracts.ActionHold, plan.Orders[0].Action)
}

func TestBuild_Idempotent(t *testing.T) {
	b := newBuilder(t, twoClassPolicy())
	signals := []contracts.Signal{
		sig("AAPL", 0.8), sig("MSFT", 0.5), sig("BTC", 0.6), sig("ETH", 0.4),
	}

	first := b.Build(signals)
	second := b.Build(signals)

	assert.Equal(t, first, second)
}

func TestBuild_ClassSumMatchesTarget(t *testing.T) {
	pol := &policy.Policy{
		AllocTarget: map[string]float64{"equities": 0.55, "crypto": 0.25, "reits": 0.20},
		RiskLimits:  policy.RiskLimits{PositionMaxPct: 0.50},
	}
	b := newBuilder(t, pol)

	plan := b.Build([]contracts.Signal{
		sig("AAPL", 0.8), sig("MSFT", 0.7), sig("VOO", 0.9), sig("NVDA", 0.3),
		sig("BTC", 0.7), sig("ETH", 0.5),
		sig("VNQ", 0.6), sig("O", 0.55),
	})

	sums := plan.ClassSums()
	for class, target := range pol.AllocTarget {
		assert.InDelta(t, target, sums[class], 1e-5, "class %s", class)
	}
}

func TestCapWeights_NoCapNeeded(t *testing.T) {
	entries := capWeights([]weighted{
		{"A", 0.5}, {"B", 0.3}, {"C", 0.2},
	}, 0.6)

	assert.InDelta(t, 0.5, entries[0].weight, 1e-9)
	assert.InDelta(t, 0.3, entries[1].weight, 1e-9)
	assert.InDelta(t, 0.2, entries[2].weight, 1e-9)
}

func TestCapWeights_RedistributesExcess(t *testing.T) {
	entries := capWeights([]weighted{
		{"A", 0.5}, {"B", 0.3}, {"C", 0.2},
	}, 0.4)

	// A capped at 0.4; the remaining 0.6 splits 0.3:0.2 between B and C.
	assert.InDelta(t, 0.40, entries[0].weight, 1e-9)
	assert.InDelta(t, 0.36, entries[1].weight, 1e-9)
	assert.InDelta(t, 0.24, entries[2].weight, 1e-9)

	var sum float64
	for _, e := range entries {
		sum += e.weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestCapWeights_CascadingCaps(t *testing.T) {
	// After A is capped, redistribution pushes B over the cap too.
	entries := capWeights([]weighted{
		{"A", 0.6}, {"B", 0.25}, {"C", 0.15},
	}, 0.35)

	assert.InDelta(t, 0.35, entries[0].weight, 1e-9)
	assert.InDelta(t, 0.35, entries[1].weight, 1e-9)
	assert.InDelta(t, 0.30, entries[2].weight, 1e-9)
}

func TestCapWeights_InfeasibleCap(t *testing.T) {
	// cap*n < 1: every entry lands exactly on the cap and the sum falls short.
	entries := capWeights([]weighted{
		{"A", 0.5}, {"B", 0.3}, {"C", 0.2},
	}, 0.3)

	for _, e := range entries {
		assert.InDelta(t, 0.3, e.weight, 1e-9)
	}
}

func TestCapWeights_NeverExceedsCap(t *testing.T) {
	cases := [][]weighted{
		{{"A", 0.9}, {"B", 0.05}, {"C", 0.05}},
		{{"A", 0.25}, {"B", 0.25}, {"C", 0.25}, {"D", 0.25}},
		{{"A", 0.7}, {"B", 0.2}, {"C", 0.1}},
	}
	for _, entries := range cases {
		for _, cap := range []float64{0.2, 0.3, 0.5, 1.0} {
			out := capWeights(append([]weighted(nil), entries...), cap)
			for _, e := range out {
				assert.LessOrEqual(t, e.weight, cap+1e-9)
			}
		}
	}
}
