// Package policy loads and validates the strategy policy: the sole source of
// target class weights, rebalance bands, and per-position risk limits. The
// core never mutates it.
package policy

import (
	"fmt"
	"math"
)

// Policy is the read-only strategy configuration.
type Policy struct {
	AllocTarget map[string]float64 `yaml:"alloc_target" json:"alloc_target"`
	Rebalance   RebalanceConfig    `yaml:"rebalance" json:"rebalance"`
	RiskLimits  RiskLimits         `yaml:"risk_limits" json:"risk_limits"`
}

// RebalanceConfig holds rebalance tolerances.
type RebalanceConfig struct {
	Bands float64 `yaml:"bands" json:"bands"` // tolerance around each class target
}

// RiskLimits holds portfolio-level risk limits.
type RiskLimits struct {
	PositionMaxPct float64 `yaml:"position_max_pct" json:"position_max_pct"`
}

// Error marks a malformed or missing strategy policy. Fatal to the planning
// run; persisted portfolio state is never touched under it.
type Error struct {
	Field   string
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("policy: %s: %s", e.Field, e.Message)
}

// Validate checks structural integrity. The "targets sum to 1" check is
// deliberately NOT here: the plan validator reports it as a diagnostic so a
// slightly off policy still produces a plan (and a FAIL report) instead of
// aborting the run.
func Validate(p *Policy) error {
	if len(p.AllocTarget) == 0 {
		return Error{"alloc_target", "must not be empty"}
	}

	sum := 0.0
	for class, target := range p.AllocTarget {
		if target < 0 {
			return Error{fmt.Sprintf("alloc_target.%s", class), "must be >= 0"}
		}
		sum += target
	}
	if sum <= 0 {
		return Error{"alloc_target", fmt.Sprintf("must sum to > 0, got %.4f", sum)}
	}

	if p.Rebalance.Bands < 0 {
		return Error{"rebalance.bands", "must be >= 0"}
	}

	if p.RiskLimits.PositionMaxPct <= 0 || p.RiskLimits.PositionMaxPct > 1 {
		return Error{"risk_limits.position_max_pct", "must be in (0, 1]"}
	}

	return nil
}

// TargetSum returns the sum of all class targets.
func (p *Policy) TargetSum() float64 {
	sum := 0.0
	for _, target := range p.AllocTarget {
		sum += target
	}
	return sum
}

// ClassTarget returns the target for a class clamped to [0, 1], and whether
// the class is present at all.
func (p *Policy) ClassTarget(class string) (float64, bool) {
	target, ok := p.AllocTarget[class]
	if !ok {
		return 0, false
	}
	return math.Max(0, math.Min(1, target)), true
}
