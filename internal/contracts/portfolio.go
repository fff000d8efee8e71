package contracts

import "time"

// Portfolio is the persistent paper-trading state: cash plus the market value
// of every held position. Mutated exclusively by the execution engine, once
// per rebalance cycle.
type Portfolio struct {
	Cash      float64            `json:"cash"`
	Positions map[string]float64 `json:"positions"` // instrument -> market value
	History   []HistoryEntry     `json:"history"`   // append-only
}

// HistoryEntry records the portfolio NAV at a lifecycle event.
type HistoryEntry struct {
	Event     string    `json:"event"`
	NAV       float64   `json:"nav"`
	Timestamp time.Time `json:"ts"`
}

// NewPortfolio returns an empty portfolio seeded with cash.
func NewPortfolio(cash float64) *Portfolio {
	return &Portfolio{
		Cash:      cash,
		Positions: make(map[string]float64),
		History:   make([]HistoryEntry, 0),
	}
}

// NAV returns the net asset value: cash plus the sum of position values.
func (p *Portfolio) NAV() float64 {
	nav := p.Cash
	for _, mv := range p.Positions {
		nav += mv
	}
	return nav
}

// Position returns the market value held for an instrument (0 when absent).
func (p *Portfolio) Position(instrumentID string) float64 {
	return p.Positions[instrumentID]
}

// Normalize ensures the containers are non-nil after JSON decoding.
func (p *Portfolio) Normalize() {
	if p.Positions == nil {
		p.Positions = make(map[string]float64)
	}
	if p.History == nil {
		p.History = make([]HistoryEntry, 0)
	}
}
