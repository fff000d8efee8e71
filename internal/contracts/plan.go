package contracts

// AllocationPlan is the target weight of each instrument, organized by asset
// class. Produced by the plan builder, read by the validator and the paper
// execution engine.
type AllocationPlan struct {
	Classes map[string]map[string]float64 `json:"classes"`
	Orders  []PlanOrder                   `json:"orders"`
}

// PlanOrder is one target entry of the plan. MaxNotional is reserved for
// notional-capped orders and stays nil for plain weight targets.
type PlanOrder struct {
	InstrumentID string   `json:"instrument_id"`
	Action       Action   `json:"action"`
	TargetWeight float64  `json:"target_weight"`
	MaxNotional  *float64 `json:"max_notional"`
}

// Action represents the action a plan order asks for.
type Action string

const (
	ActionIncrease Action = "INCREASE"
	ActionHold     Action = "HOLD"
)

// NewAllocationPlan returns an empty plan with initialized containers.
func NewAllocationPlan() *AllocationPlan {
	return &AllocationPlan{
		Classes: make(map[string]map[string]float64),
		Orders:  make([]PlanOrder, 0),
	}
}

// TargetWeights flattens the plan orders into instrument -> target weight.
// Duplicate entries keep the maximum weight.
func (p *AllocationPlan) TargetWeights() map[string]float64 {
	targets := make(map[string]float64, len(p.Orders))
	for _, order := range p.Orders {
		if order.InstrumentID == "" {
			continue
		}
		if current, ok := targets[order.InstrumentID]; !ok || order.TargetWeight > current {
			targets[order.InstrumentID] = order.TargetWeight
		}
	}
	return targets
}

// ClassSums returns the sum of instrument weights per class.
func (p *AllocationPlan) ClassSums() map[string]float64 {
	sums := make(map[string]float64, len(p.Classes))
	for class, instruments := range p.Classes {
		total := 0.0
		for _, w := range instruments {
			total += w
		}
		sums[class] = total
	}
	return sums
}

// TotalWeight returns the sum of all instrument weights across classes.
func (p *AllocationPlan) TotalWeight() float64 {
	total := 0.0
	for _, sum := range p.ClassSums() {
		total += sum
	}
	return total
}
