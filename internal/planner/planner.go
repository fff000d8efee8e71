// Package planner builds the allocation plan: signals in, per-class target
// weights out, bounded by the strategy policy. Construction never rejects a
// gappy input; incomplete plans are produced as-is and flagged downstream by
// the validator.
package planner

import (
	"math"
	"time"

	"github.com/ogaspar/ballast/internal/assetclass"
	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/policy"
	"github.com/ogaspar/ballast/pkg/logger"
)

// Builder turns the current signal set into an allocation plan.
type Builder struct {
	policy *policy.Policy
	logger *logger.Logger
	now    func() time.Time
}

// New creates a plan builder over a validated policy.
func New(pol *policy.Policy, log *logger.Logger) *Builder {
	return &Builder{
		policy: pol,
		logger: log,
		now:    time.Now,
	}
}

// weighted is one instrument with its running weight, kept in a slice so
// first-seen order survives all the way to the emitted orders.
type weighted struct {
	id     string
	weight float64
}

// Build produces the plan. Per class: weight by confidence share, cap each
// position at risk_limits.position_max_pct with renormalization, then scale
// by the class target from policy. Classes with no policy entry or with
// non-positive aggregate confidence are dropped; the validator reports those
// gaps against the policy afterwards.
func (b *Builder) Build(signals []contracts.Signal) *contracts.AllocationPlan {
	now := b.now().UTC()
	byClass := b.group(signals, now)

	plan := contracts.NewAllocationPlan()
	posMax := b.policy.RiskLimits.PositionMaxPct

	for _, class := range assetclass.All() {
		entries := byClass[class]
		if len(entries) == 0 {
			continue
		}

		var confSum float64
		for _, e := range entries {
			confSum += e.weight
		}
		if confSum <= 0 {
			b.logger.WithField("class", string(class)).
				Warn("class has signals but zero aggregate confidence, skipping")
			continue
		}

		classTarget, ok := b.policy.ClassTarget(string(class))
		if !ok {
			b.logger.WithField("class", string(class)).
				Warn("class has signals but no policy target, dropping")
			continue
		}

		intra := make([]weighted, len(entries))
		for i, e := range entries {
			intra[i] = weighted{id: e.id, weight: e.weight / confSum}
		}
		intra = capWeights(intra, posMax)

		classPlan := make(map[string]float64, len(intra))
		for _, e := range intra {
			target := round6(classTarget * e.weight)
			classPlan[e.id] = target

			action := contracts.ActionHold
			if target > 0 {
				action = contracts.ActionIncrease
			}
			plan.Orders = append(plan.Orders, contracts.PlanOrder{
				InstrumentID: e.id,
				Action:       action,
				TargetWeight: target,
			})
		}
		plan.Classes[string(class)] = classPlan
	}

	return plan
}

// group buckets signals by asset class, deduplicating instruments on maximum
// confidence and dropping expired signals. Negative confidences count as
// zero. Instrument order within a class is first-seen order.
func (b *Builder) group(signals []contracts.Signal, now time.Time) map[assetclass.Class][]weighted {
	byClass := make(map[assetclass.Class][]weighted)
	index := make(map[string]int) // instrument id -> position in its class slice

	for i := range signals {
		sig := signals[i]
		id := assetclass.Normalize(sig.InstrumentID)
		if id == "" {
			continue
		}
		if sig.Expired(now) {
			b.logger.WithField("instrument", id).Debug("signal expired, ignoring")
			continue
		}

		conf := math.Max(0, sig.Confidence)
		class := assetclass.Classify(id)

		if pos, seen := index[id]; seen {
			if conf > byClass[class][pos].weight {
				byClass[class][pos].weight = conf
			}
			continue
		}
		index[id] = len(byClass[class])
		byClass[class] = append(byClass[class], weighted{id: id, weight: conf})
	}

	return byClass
}

// capWeights bounds every weight at cap and redistributes the excess among
// the uncapped entries, iterating until no entry exceeds the cap. Each round
// fixes at least one more entry at the cap, so it terminates in at most
// len(entries) rounds. When the cap makes a full distribution impossible
// (cap * n < 1) every entry ends at the cap and the class sum falls short,
// which the validator surfaces as a band violation.
func capWeights(entries []weighted, cap float64) []weighted {
	if len(entries) == 0 || cap <= 0 {
		return entries
	}

	raw := make([]float64, len(entries))
	for i, e := range entries {
		raw[i] = e.weight
	}
	capped := make([]bool, len(entries))

	for round := 0; round <= len(entries); round++ {
		var nCapped int
		var free float64
		for i := range entries {
			if capped[i] {
				nCapped++
			} else {
				free += raw[i]
			}
		}

		remaining := math.Max(0, 1-cap*float64(nCapped))
		if free <= 0 || remaining == 0 {
			for i := range entries {
				if !capped[i] {
					entries[i].weight = 0
				}
			}
			break
		}

		scale := remaining / free
		overflowed := false
		for i := range entries {
			if !capped[i] && raw[i]*scale > cap {
				capped[i] = true
				overflowed = true
			}
		}
		if !overflowed {
			for i := range entries {
				if !capped[i] {
					entries[i].weight = raw[i] * scale
				}
			}
			break
		}
	}

	for i := range entries {
		if capped[i] {
			entries[i].weight = cap
		}
	}

	return entries
}

func round6(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}
