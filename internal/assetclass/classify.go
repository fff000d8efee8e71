// Package assetclass owns the static instrument classification used by the
// whole pipeline: every instrument maps to exactly one asset class, and the
// same tables decide which instruments trade in fractional quantity.
package assetclass

import "strings"

// Class is a coarse allocation bucket.
type Class string

const (
	Equities    Class = "equities"
	Crypto      Class = "crypto"
	FixedIncome Class = "fixed_income"
	REITs       Class = "reits"
)

// All lists every known class in a stable order.
func All() []Class {
	return []Class{Equities, Crypto, FixedIncome, REITs}
}

// Membership sets. Instruments not listed anywhere default to equities.
var (
	cryptoSet = map[string]struct{}{
		"BTC": {}, "ETH": {}, "SOL": {}, "ADA": {}, "DOGE": {},
	}

	fixedIncomeSet = map[string]struct{}{
		"IEF": {}, "TLT": {}, "SHY": {}, "IEGA": {}, "IEAC": {}, "LQD": {}, "BUND": {},
	}

	reitSet = map[string]struct{}{
		"VNQ": {}, "IPRP": {}, "IWDP": {}, "PLD": {}, "O": {}, "SPG": {},
	}
)

// Classify maps an instrument id to its asset class. Pure and total:
// anything unknown is treated as an equity.
func Classify(instrumentID string) Class {
	sym := Normalize(instrumentID)

	if _, ok := reitSet[sym]; ok {
		return REITs
	}
	if _, ok := cryptoSet[sym]; ok {
		return Crypto
	}
	if _, ok := fixedIncomeSet[sym]; ok {
		return FixedIncome
	}
	return Equities
}

// IsFractional reports whether the instrument trades in continuous quantity.
// Crypto trades fractions rounded to a fixed precision; everything else
// trades floored integer units.
func IsFractional(instrumentID string) bool {
	_, ok := cryptoSet[Normalize(instrumentID)]
	return ok
}

// Normalize canonicalizes an instrument id for lookups.
func Normalize(instrumentID string) string {
	return strings.ToUpper(strings.TrimSpace(instrumentID))
}
