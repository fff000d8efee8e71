// Package providers holds the external market-data collaborators: small HTTP
// clients with bounded timeouts, retry, client-side rate limiting, and a
// shared cache. Every call degrades gracefully; callers fall back to static
// data when a provider is unavailable.
package providers

import (
	"errors"
	"time"
)

// ErrUnavailable is returned when a provider cannot produce the requested
// datum after retries. Callers are expected to fall back, not abort.
var ErrUnavailable = errors.New("providers: data unavailable")

// PricePoint is one daily close.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// Fundamentals is the normalized company overview used by the equities
// scorer. Nil fields mean the source did not report the metric.
type Fundamentals struct {
	PE              *float64 `json:"pe"`
	ROE             *float64 `json:"roe"`
	ProfitMargin    *float64 `json:"profit_margin"`
	OperatingMargin *float64 `json:"operating_margin"`
	RevGrowth       *float64 `json:"rev_growth"`
	EPSGrowth       *float64 `json:"eps_growth"`
	DebtEBITDA      *float64 `json:"debt_ebitda"`
}

// lastPrice returns the final point of a history, or 0 when empty.
func lastPrice(history []PricePoint) float64 {
	if len(history) == 0 {
		return 0
	}
	return history[len(history)-1].Price
}

// firstPrice returns the first point of a history, or 0 when empty.
func firstPrice(history []PricePoint) float64 {
	if len(history) == 0 {
		return 0
	}
	return history[0].Price
}

// Return computes the simple return between the first and last point of a
// history. Zero when the history is too short or starts at a non-positive
// price.
func Return(history []PricePoint) float64 {
	first := firstPrice(history)
	last := lastPrice(history)
	if first <= 0 || last <= 0 {
		return 0
	}
	return last/first - 1
}
