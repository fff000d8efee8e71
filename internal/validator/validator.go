// Package validator checks an allocation plan against the strategy policy
// and produces an itemized report. It is advisory: a FAIL report never
// blocks execution, it is a separate read path for operators and automation.
package validator

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/policy"
)

const (
	bandEpsilon  = 1e-6
	totalEpsilon = 1e-3
	posEpsilon   = 1e-9
)

// Validator runs the plan checks.
type Validator struct {
	policy *policy.Policy
	now    func() time.Time
}

// New creates a validator over a loaded policy.
func New(pol *policy.Policy) *Validator {
	return &Validator{
		policy: pol,
		now:    time.Now,
	}
}

// Validate runs every check regardless of earlier failures and returns the
// full report. Status is OK exactly when no check produced an error.
func (v *Validator) Validate(plan *contracts.AllocationPlan) *contracts.ValidationReport {
	report := &contracts.ValidationReport{
		Timestamp:      v.now().UTC(),
		AllocTarget:    v.policy.AllocTarget,
		Bands:          v.policy.Rebalance.Bands,
		PositionMaxPct: v.policy.RiskLimits.PositionMaxPct,
		Warnings:       []string{},
		Errors:         []string{},
		Notes:          []string{},
	}

	classes := map[string]map[string]float64{}
	if plan != nil && plan.Classes != nil {
		classes = plan.Classes
	}

	v.checkPolicySum(report)
	v.checkClassCoverage(report, classes)

	report.ClassSums = classSums(classes)
	v.checkClassBands(report)
	v.checkTotalWeight(report)
	v.checkPositionCap(report, classes)

	report.Status = contracts.ValidationOK
	if len(report.Errors) > 0 {
		report.Status = contracts.ValidationFail
	}

	return report
}

// checkPolicySum verifies policy integrity independent of the plan.
func (v *Validator) checkPolicySum(report *contracts.ValidationReport) {
	if len(v.policy.AllocTarget) == 0 {
		report.Errors = append(report.Errors, "policy alloc_target is empty")
		return
	}
	sum := v.policy.TargetSum()
	if sum <= 0 {
		report.Errors = append(report.Errors, fmt.Sprintf("policy alloc_target sums to %s (must be > 0)", pct(sum)))
		return
	}
	if math.Abs(sum-1.0) > bandEpsilon {
		report.Errors = append(report.Errors, fmt.Sprintf("policy alloc_target sums to %s (expected 100%%)", pct(sum)))
	}
}

// checkClassCoverage cross-references plan classes against policy classes.
func (v *Validator) checkClassCoverage(report *contracts.ValidationReport, classes map[string]map[string]float64) {
	if len(classes) == 0 {
		report.Errors = append(report.Errors, "plan has no classes")
	}

	for _, class := range sortedKeys(classes) {
		if _, ok := v.policy.AllocTarget[class]; !ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf("unknown class %q in plan (not in policy)", class))
		}
	}

	for _, class := range sortedKeys(v.policy.AllocTarget) {
		if _, ok := classes[class]; !ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf("policy class %q missing from plan (likely zero signals)", class))
		}
	}
}

// checkClassBands verifies each policy class present in the plan sits within
// target ± band.
func (v *Validator) checkClassBands(report *contracts.ValidationReport) {
	band := v.policy.Rebalance.Bands

	for _, class := range sortedKeys(v.policy.AllocTarget) {
		actual, ok := report.ClassSums[class]
		if !ok {
			continue // reported as a missing-class warning already
		}
		target := v.policy.AllocTarget[class]

		if actual < target-band-bandEpsilon || actual > target+band+bandEpsilon {
			report.Errors = append(report.Errors, fmt.Sprintf(
				"class %q: target %s, actual %s outside band ±%s", class, pct(target), pct(actual), pct(band)))
		} else {
			report.Notes = append(report.Notes, fmt.Sprintf(
				"class %q: ok (target %s, actual %s, band ±%s)", class, pct(target), pct(actual), pct(band)))
		}
	}
}

// checkTotalWeight verifies the plan closes at 100%.
func (v *Validator) checkTotalWeight(report *contracts.ValidationReport) {
	var total float64
	for _, sum := range report.ClassSums {
		total += sum
	}
	report.TotalWeight = total

	if math.Abs(total-1.0) > totalEpsilon {
		report.Errors = append(report.Errors, fmt.Sprintf("total plan weight %s does not close at 100%%", pct(total)))
	} else {
		report.Notes = append(report.Notes, fmt.Sprintf("total plan weight %s", pct(total)))
	}
}

// checkPositionCap lists every instrument above position_max_pct, sorted by
// descending weight.
func (v *Validator) checkPositionCap(report *contracts.ValidationReport, classes map[string]map[string]float64) {
	type violation struct {
		instrument string
		class      string
		weight     float64
	}
	posMax := v.policy.RiskLimits.PositionMaxPct

	var violators []violation
	for class, instruments := range classes {
		for instrument, weight := range instruments {
			if weight > posMax+posEpsilon {
				violators = append(violators, violation{instrument, class, weight})
			}
		}
	}

	if len(violators) == 0 {
		report.Notes = append(report.Notes, fmt.Sprintf("no position above %s", pct(posMax)))
		return
	}

	sort.Slice(violators, func(i, j int) bool {
		if violators[i].weight != violators[j].weight {
			return violators[i].weight > violators[j].weight
		}
		return violators[i].instrument < violators[j].instrument
	})
	for _, viol := range violators {
		report.Errors = append(report.Errors, fmt.Sprintf(
			"position over limit: %s in %s at %s > %s", viol.instrument, viol.class, pct(viol.weight), pct(posMax)))
	}
}

func classSums(classes map[string]map[string]float64) map[string]float64 {
	sums := make(map[string]float64, len(classes))
	for class, instruments := range classes {
		var total float64
		for _, weight := range instruments {
			total += weight
		}
		sums[class] = total
	}
	return sums
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pct(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}
