package contracts

import "time"

// Signal is a scored directional recommendation for one instrument, emitted
// by a per-asset-class signal agent. Read-only to the planning core.
type Signal struct {
	InstrumentID string    `json:"instrument_id"`
	Side         Side      `json:"side"`
	Confidence   float64   `json:"confidence"` // 0.0 ~ 1.0
	Rationale    string    `json:"rationale"`
	TTLDays      int       `json:"ttl_days"`
	CollectedAt  time.Time `json:"collected_at"`
}

// Side represents the direction of a signal.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideHold Side = "HOLD"
)

// IsActionable reports whether the signal suggests taking a position.
func (s *Signal) IsActionable() bool {
	return s.Side == SideBuy && s.Confidence > 0
}

// Expired reports whether the signal's TTL has elapsed as of now.
func (s *Signal) Expired(now time.Time) bool {
	if s.TTLDays <= 0 {
		return false
	}
	return now.After(s.CollectedAt.AddDate(0, 0, s.TTLDays))
}
