package contracts

import "time"

// ExecutionRecord is one simulated fill, immutable once appended to the
// execution log. The sign of Qty is the sole indicator of trade direction:
// negative quantity means a sell.
type ExecutionRecord struct {
	OrderID      string    `json:"order_id"`
	InstrumentID string    `json:"instrument_id"`
	Status       Status    `json:"status"`
	AvgFill      float64   `json:"avg_fill"`
	Qty          float64   `json:"qty"`
	Fees         float64   `json:"fees"`
	Timestamp    time.Time `json:"timestamp"`
}

// Status represents the lifecycle state of an execution.
type Status string

const (
	StatusFilled Status = "FILLED"
)

// IsSell reports whether the record represents a sale.
func (r *ExecutionRecord) IsSell() bool {
	return r.Qty < 0
}

// Notional returns the absolute executed value.
func (r *ExecutionRecord) Notional() float64 {
	qty := r.Qty
	if qty < 0 {
		qty = -qty
	}
	return qty * r.AvgFill
}

// CycleSummary is the per-cycle outcome surface of the execution engine.
type CycleSummary struct {
	Executions int     `json:"executions"`
	Cash       float64 `json:"cash"`
	NAV        float64 `json:"nav"`
}
