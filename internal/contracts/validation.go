package contracts

import "time"

// ValidationReport is the structured output of the plan validator. The
// warnings and errors lists are the primary surface for diagnosing
// plan-quality issues.
type ValidationReport struct {
	Timestamp      time.Time          `json:"timestamp"`
	Status         ValidationStatus   `json:"status"`
	AllocTarget    map[string]float64 `json:"alloc_target"`
	Bands          float64            `json:"bands"`
	PositionMaxPct float64            `json:"position_max_pct"`
	ClassSums      map[string]float64 `json:"class_sums"`
	TotalWeight    float64            `json:"total_weight"`
	Warnings       []string           `json:"warnings"`
	Errors         []string           `json:"errors"`
	Notes          []string           `json:"notes"`
}

// ValidationStatus is the overall pass/fail outcome.
type ValidationStatus string

const (
	ValidationOK   ValidationStatus = "OK"
	ValidationFail ValidationStatus = "FAIL"
)

// Passed reports whether the validation produced no errors.
func (r *ValidationReport) Passed() bool {
	return r.Status == ValidationOK
}
