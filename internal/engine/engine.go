// Package engine is the paper broker: it reconciles the persisted portfolio
// against the current allocation plan in one deterministic pass. Off-plan
// holdings are liquidated first, on-plan holdings are then delta-rebalanced
// toward NAV * target_weight, and the cycle ends with pruning and a history
// entry. Positions are stored as market values, not share counts.
package engine

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ogaspar/ballast/internal/assetclass"
	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/pricing"
	"github.com/ogaspar/ballast/pkg/logger"
)

// epsilon bounds both the minimum actionable delta and the position-prune
// threshold.
const epsilon = 1e-6

// Engine executes one rebalance cycle at a time.
type Engine struct {
	oracle pricing.Oracle
	logger *logger.Logger
	now    func() time.Time
	newID  func() string
}

// New creates an engine over a price oracle.
func New(oracle pricing.Oracle, log *logger.Logger) *Engine {
	return &Engine{
		oracle: oracle,
		logger: log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Rebalance mutates the portfolio toward the plan and returns the ordered
// execution records plus a cycle summary. Persistence is the caller's job:
// a failed cycle must leave the stored portfolio untouched, so nothing is
// written here. An unpriceable instrument skips only its own action.
func (e *Engine) Rebalance(ctx context.Context, port *contracts.Portfolio, plan *contracts.AllocationPlan) ([]contracts.ExecutionRecord, contracts.CycleSummary) {
	port.Normalize()
	targets := orderedTargets(plan)
	executions := make([]contracts.ExecutionRecord, 0)

	// Phase 1: liquidate everything the plan no longer wants.
	for _, inst := range sortedPositions(port) {
		if _, wanted := targets.index[inst]; wanted {
			continue
		}
		currentMV := port.Positions[inst]
		if currentMV <= 0 {
			continue
		}

		price, err := e.price(ctx, inst)
		if err != nil {
			continue
		}

		qty := lotQuantity(inst, currentMV/price)
		if qty <= 0 {
			continue
		}

		execValue := qty * price
		port.Cash += execValue
		port.Positions[inst] = math.Max(0, currentMV-execValue)

		executions = append(executions, e.record(inst, price, -qty))
	}

	// Phase 2: delta-rebalance toward NAV * target weight.
	nav := port.NAV()
	for _, inst := range targets.order {
		targetWeight := targets.weight[inst]

		price, err := e.price(ctx, inst)
		if err != nil {
			continue
		}

		desiredMV := nav * targetWeight
		currentMV := port.Positions[inst]
		delta := desiredMV - currentMV
		if math.Abs(delta) < epsilon {
			continue
		}

		if delta > 0 {
			buyAmount := math.Min(delta, port.Cash)
			if buyAmount <= 0 {
				continue
			}
			qty := lotQuantity(inst, buyAmount/price)
			if qty <= 0 {
				continue
			}
			execValue := qty * price
			port.Positions[inst] = currentMV + execValue
			port.Cash -= execValue
			executions = append(executions, e.record(inst, price, qty))
		} else {
			sellAmount := math.Min(-delta, currentMV)
			if sellAmount <= 0 {
				continue
			}
			qty := lotQuantity(inst, sellAmount/price)
			if qty <= 0 {
				continue
			}
			execValue := qty * price
			port.Positions[inst] = currentMV - execValue
			port.Cash += execValue
			executions = append(executions, e.record(inst, price, -qty))
		}
	}

	// Phase 3: prune dust, round, and record the cycle.
	for inst, mv := range port.Positions {
		if math.Abs(mv) < epsilon {
			mv = 0
		}
		if mv <= 0 {
			delete(port.Positions, inst)
		} else {
			port.Positions[inst] = mv
		}
	}
	port.Cash = round6(port.Cash)

	newNAV := port.NAV()
	port.History = append(port.History, contracts.HistoryEntry{
		Event:     "rebalance",
		NAV:       round6(newNAV),
		Timestamp: e.timestamp(),
	})

	summary := contracts.CycleSummary{
		Executions: len(executions),
		Cash:       port.Cash,
		NAV:        round6(newNAV),
	}

	e.logger.WithFields(map[string]interface{}{
		"executions": summary.Executions,
		"cash":       summary.Cash,
		"nav":        summary.NAV,
	}).Info("rebalance cycle complete")

	return executions, summary
}

// price resolves one instrument, logging and skipping on failure.
func (e *Engine) price(ctx context.Context, instrumentID string) (float64, error) {
	price, err := e.oracle.Price(ctx, instrumentID)
	if err != nil || price <= 0 {
		e.logger.WithField("instrument", instrumentID).
			Warn("price unavailable, skipping instrument this cycle")
		if err == nil {
			err = pricing.ErrUnavailable
		}
		return 0, err
	}
	return price, nil
}

func (e *Engine) record(instrumentID string, price, qty float64) contracts.ExecutionRecord {
	return contracts.ExecutionRecord{
		OrderID:      e.newID(),
		InstrumentID: instrumentID,
		Status:       contracts.StatusFilled,
		AvgFill:      round6(price),
		Qty:          round6(qty),
		Fees:         0,
		Timestamp:    e.timestamp(),
	}
}

func (e *Engine) timestamp() time.Time {
	return e.now().UTC().Truncate(time.Second)
}

// lotQuantity applies the lot convention: crypto trades fractions floored to
// six decimals, everything else floors to whole units. Both directions floor
// so an execution never exceeds the cash or position that funds it.
func lotQuantity(instrumentID string, rawQty float64) float64 {
	if assetclass.IsFractional(instrumentID) {
		return floor6(rawQty)
	}
	return math.Floor(rawQty)
}

// targetSet holds the plan's target weights with a deterministic order.
type targetSet struct {
	order  []string
	weight map[string]float64
	index  map[string]struct{}
}

// orderedTargets flattens plan orders into instrument targets, keeping
// first-seen order and the maximum weight on duplicates.
func orderedTargets(plan *contracts.AllocationPlan) targetSet {
	set := targetSet{
		weight: make(map[string]float64),
		index:  make(map[string]struct{}),
	}
	if plan == nil {
		return set
	}

	weights := plan.TargetWeights()
	for _, order := range plan.Orders {
		inst := assetclass.Normalize(order.InstrumentID)
		if inst == "" {
			continue
		}
		w := weights[order.InstrumentID]
		if _, seen := set.index[inst]; !seen {
			set.order = append(set.order, inst)
			set.index[inst] = struct{}{}
			set.weight[inst] = w
		} else if w > set.weight[inst] {
			set.weight[inst] = w
		}
	}

	return set
}

func sortedPositions(port *contracts.Portfolio) []string {
	instruments := make([]string, 0, len(port.Positions))
	for inst := range port.Positions {
		instruments = append(instruments, inst)
	}
	sort.Strings(instruments)
	return instruments
}

func round6(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}

func floor6(x float64) float64 {
	return math.Floor(x*1e6) / 1e6
}
