// Package pricing resolves execution prices for the paper broker. The live
// path goes through the market-data providers; when those fail the oracle
// falls back to a static per-symbol table and finally to a flat default, so
// a rebalance never aborts on a pricing outage.
package pricing

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable means the oracle could not price the instrument at all.
// The execution engine skips the instrument and carries on.
var ErrUnavailable = errors.New("pricing: no price available")

// DefaultPrice is the last-resort price for symbols absent from the
// fallback table.
const DefaultPrice = 100.0

// Oracle resolves a positive execution price for an instrument.
type Oracle interface {
	Price(ctx context.Context, instrumentID string) (float64, error)
}

// Stale but plausible quotes, used when every live source fails.
var fallbackPrices = map[string]float64{
	// Crypto
	"BTC": 65000.0, "ETH": 3500.0, "SOL": 160.0, "ADA": 0.42, "DOGE": 0.15,
	// Equities and broad ETFs
	"VOO": 520.0, "QQQ": 470.0, "VGK": 70.0, "EZU": 55.0,
	"AAPL": 230.10, "MSFT": 415.30, "NVDA": 122.90, "GOOGL": 175.10, "AMZN": 190.75,
	"ASML": 1150.0, "LVMH": 730.0, "SAP": 200.0,
	// Bond ETFs
	"IEF": 100.0, "TLT": 100.0, "SHY": 100.0, "IEGA": 100.0, "IEAC": 100.0, "LQD": 100.0,
	// REITs
	"VNQ": 90.0, "IPRP": 6.0, "PLD": 120.0, "O": 55.0, "SPG": 150.0,
}

// FallbackPrice returns the static quote for a symbol, or DefaultPrice when
// the symbol is unknown.
func FallbackPrice(instrumentID string) float64 {
	sym := strings.ToUpper(strings.TrimSpace(instrumentID))
	if price, ok := fallbackPrices[sym]; ok {
		return price
	}
	return DefaultPrice
}

// StaticOracle prices from a fixed map, falling back to the static table.
// Used in tests and dry runs where live quotes are unwanted.
type StaticOracle struct {
	Prices map[string]float64
}

// NewStaticOracle builds an oracle over the given quotes. Symbols are
// normalized to upper case.
func NewStaticOracle(prices map[string]float64) *StaticOracle {
	normalized := make(map[string]float64, len(prices))
	for sym, price := range prices {
		normalized[strings.ToUpper(strings.TrimSpace(sym))] = price
	}
	return &StaticOracle{Prices: normalized}
}

// Price returns the configured quote, or the static fallback when the
// symbol is not configured. A configured non-positive price means the
// instrument is deliberately unpriceable.
func (o *StaticOracle) Price(ctx context.Context, instrumentID string) (float64, error) {
	sym := strings.ToUpper(strings.TrimSpace(instrumentID))
	if price, ok := o.Prices[sym]; ok {
		if price <= 0 {
			return 0, ErrUnavailable
		}
		return price, nil
	}
	return FallbackPrice(sym), nil
}
