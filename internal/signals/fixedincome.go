package signals

import (
	"context"
	"fmt"
	"time"

	"github.com/ogaspar/ballast/internal/assetclass"
	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/providers"
	"github.com/ogaspar/ballast/pkg/logger"
)

var bondUniverse = []string{"IEF", "TLT", "SHY", "LQD", "IEAC", "IEGA"}

// Approximate effective durations, used to penalize ETFs far from the
// target duration.
var bondDurations = map[string]float64{
	"IEF": 7.5, "TLT": 18.0, "SHY": 2.0, "LQD": 8.5, "IEAC": 6.0, "IEGA": 7.0,
}

const (
	bondTargetDuration = 6.0
	bondTTLDays        = 30

	// Fallbacks when FRED is unreachable.
	defaultTreasury10Y  = 0.04
	defaultHighYieldOAS = 0.02
)

// macroSource is the FRED surface the agent needs.
type macroSource interface {
	Latest(ctx context.Context, seriesID string) (float64, error)
}

// FixedIncomeAgent blends a price-based ETF yield proxy with macro series
// from FRED: the 10-year treasury lifts the approximate yield, the high
// yield spread drags it, and duration far from target is penalized.
type FixedIncomeAgent struct {
	history  historySource
	macro    macroSource
	universe []string
	logger   *logger.Logger
	now      func() time.Time
}

// NewFixedIncomeAgent wires Yahoo history and the FRED macro source.
func NewFixedIncomeAgent(history *providers.Yahoo, macro *providers.FRED, log *logger.Logger) *FixedIncomeAgent {
	return &FixedIncomeAgent{
		history:  history,
		macro:    macro,
		universe: bondUniverse,
		logger:   log,
		now:      time.Now,
	}
}

// Class implements Agent.
func (a *FixedIncomeAgent) Class() assetclass.Class {
	return assetclass.FixedIncome
}

// Collect scores every bond ETF in the universe.
func (a *FixedIncomeAgent) Collect(ctx context.Context) ([]contracts.Signal, error) {
	now := a.now().UTC()

	// One macro read per cycle; both series tolerate failure.
	treasury := a.macroFraction(ctx, providers.SeriesTreasury10Y, defaultTreasury10Y)
	hyOAS := a.macroFraction(ctx, providers.SeriesHighYieldOAS, defaultHighYieldOAS)

	out := make([]contracts.Signal, 0, len(a.universe))
	for _, ticker := range a.universe {
		etfYield := a.etfYieldProxy(ctx, ticker)

		score, rationale := scoreBondETF(ticker, etfYield, treasury, hyOAS)

		side := contracts.SideHold
		if score >= buyThreshold {
			side = contracts.SideBuy
		}

		out = append(out, contracts.Signal{
			InstrumentID: ticker,
			Side:         side,
			Confidence:   round3(score),
			Rationale:    rationale,
			TTLDays:      bondTTLDays,
			CollectedAt:  now,
		})
	}

	return out, nil
}

// macroFraction reads a FRED series reported in percent and converts it to
// a fraction, falling back when the series is unavailable.
func (a *FixedIncomeAgent) macroFraction(ctx context.Context, seriesID string, fallback float64) float64 {
	value, err := a.macro.Latest(ctx, seriesID)
	if err != nil {
		a.logger.WithError(err).WithField("series", seriesID).
			Warn("fixed income: macro series unavailable, using fallback")
		return fallback
	}
	return value / 100
}

// etfYieldProxy derives a rough yield figure from the 12-month price return,
// anchored at 3% and bounded to [0%, 8%]. Not a SEC yield; only useful for
// relative ranking.
func (a *FixedIncomeAgent) etfYieldProxy(ctx context.Context, ticker string) float64 {
	history, err := a.history.History(ctx, ticker, 365)
	if err != nil {
		return 0.03
	}
	ret := providers.Return(history)
	return clamp(0.03+ret/3.0, 0.0, 0.08)
}

// scoreBondETF composes the approximate yield and scores it against a 3%
// hurdle, with a quadratic penalty for duration away from target:
//
//	approx_yield = etf_yield + 0.5*treasury - 0.3*hy_oas
//	score        = clamp(0.5 + 4*(approx_yield - 0.03) - 0.015*(dur - 6)^2)
func scoreBondETF(ticker string, etfYield, treasury, hyOAS float64) (float64, string) {
	approxYield := etfYield + 0.5*treasury - 0.3*hyOAS

	duration, ok := bondDurations[ticker]
	if !ok {
		duration = bondTargetDuration
	}
	durPenalty := 0.015 * (duration - bondTargetDuration) * (duration - bondTargetDuration)

	score := clamp01(0.5 + 4.0*(approxYield-0.03) - durPenalty)

	rationale := fmt.Sprintf("approx_yield=%.2f%%; DGS10=%.2f%%; HY_OAS=%.2f%%; dur~%.1f",
		approxYield*100, treasury*100, hyOAS*100, duration)

	return score, rationale
}
