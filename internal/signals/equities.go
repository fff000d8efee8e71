package signals

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ogaspar/ballast/internal/assetclass"
	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/providers"
	"github.com/ogaspar/ballast/pkg/logger"
)

// equitiesUniverse is the default US/EU stock and broad-ETF universe.
var equitiesUniverse = []string{
	"VOO", "QQQ", "VGK", "EZU",
	"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN",
	"ASML", "LVMH", "SAP",
}

// Broad ETFs get a small stability boost over single names.
var equityETFs = map[string]struct{}{
	"VOO": {}, "QQQ": {}, "VGK": {}, "EZU": {},
}

const (
	equityETFBoost = 0.06
	equityTTLDays  = 14
)

// historySource and fundamentalsSource are the provider surfaces the agent
// needs; Yahoo and AlphaVantage satisfy them.
type historySource interface {
	History(ctx context.Context, symbol string, days int) ([]providers.PricePoint, error)
}

type fundamentalsSource interface {
	Overview(ctx context.Context, symbol string) (*providers.Fundamentals, error)
}

// EquitiesAgent scores stocks and broad ETFs on 12-month momentum plus
// fundamentals: quality and growth add, rich valuation and leverage subtract.
type EquitiesAgent struct {
	history      historySource
	fundamentals fundamentalsSource
	universe     []string
	logger       *logger.Logger
	now          func() time.Time
}

// NewEquitiesAgent wires the live providers over the default universe.
func NewEquitiesAgent(history *providers.Yahoo, fundamentals *providers.AlphaVantage, log *logger.Logger) *EquitiesAgent {
	return &EquitiesAgent{
		history:      history,
		fundamentals: fundamentals,
		universe:     equitiesUniverse,
		logger:       log,
		now:          time.Now,
	}
}

// Class implements Agent.
func (a *EquitiesAgent) Class() assetclass.Class {
	return assetclass.Equities
}

// Collect scores every instrument in the universe. Instruments without
// history degrade to a neutral HOLD.
func (a *EquitiesAgent) Collect(ctx context.Context) ([]contracts.Signal, error) {
	out := make([]contracts.Signal, 0, len(a.universe))
	now := a.now().UTC()

	for _, ticker := range a.universe {
		history, err := a.history.History(ctx, ticker, 365)
		if err != nil {
			a.logger.WithError(err).WithField("instrument", ticker).
				Warn("equities: no price history, emitting neutral hold")
			out = append(out, contracts.Signal{
				InstrumentID: ticker,
				Side:         contracts.SideHold,
				Confidence:   0.50,
				Rationale:    "no price history",
				TTLDays:      equityTTLDays,
				CollectedAt:  now,
			})
			continue
		}
		momentum := providers.Return(history)

		// Fundamentals are best effort; ETFs and throttled calls come back
		// empty and every absent term scores zero.
		fundamentals, err := a.fundamentals.Overview(ctx, ticker)
		if err != nil {
			fundamentals = &providers.Fundamentals{}
		}

		_, isETF := equityETFs[ticker]
		score, rationale := scoreEquity(momentum, fundamentals, isETF)

		side := contracts.SideHold
		if score > buyThreshold {
			side = contracts.SideBuy
		}

		out = append(out, contracts.Signal{
			InstrumentID: ticker,
			Side:         side,
			Confidence:   round3(score),
			Rationale:    rationale,
			TTLDays:      equityTTLDays,
			CollectedAt:  now,
		})
	}

	return out, nil
}

// scoreEquity aggregates capped factor terms around a 0.5 baseline:
//
//	positives: momentum capped to [-30%, +60%], 0.5*min(ROE, 50%),
//	           0.3*min(op margin, 40%), 0.2*min(profit margin, 40%),
//	           0.4*growth terms capped to [-20%, +50%]
//	penalties: 0.20*(PE/25) for rich valuation, up to 0.25 for leverage
//	           ramping over Debt/EBITDA 2x..6x
//
// The result is clamped to [0, 1], with the ETF boost applied after.
func scoreEquity(momentum float64, f *providers.Fundamentals, isETF bool) (float64, string) {
	momTerm := clamp(momentum, -0.30, 0.60)
	roeTerm := 0.5 * math.Min(deref(f.ROE), 0.50)
	opmTerm := 0.3 * math.Min(deref(f.OperatingMargin), 0.40)
	pmTerm := 0.2 * math.Min(deref(f.ProfitMargin), 0.40)
	revgTerm := 0.4 * capOpt(f.RevGrowth, -0.20, 0.50)
	epsgTerm := 0.4 * capOpt(f.EPSGrowth, -0.20, 0.50)

	var pePenalty float64
	if f.PE != nil && *f.PE > 0 {
		pePenalty = 0.20 * (*f.PE / 25.0)
	}

	var debtPenalty float64
	if f.DebtEBITDA != nil && *f.DebtEBITDA > 2.0 {
		debtPenalty = 0.25 * clamp01((*f.DebtEBITDA-2.0)/4.0)
	}

	positives := momTerm + roeTerm + opmTerm + pmTerm + revgTerm + epsgTerm
	score := clamp01(0.5 + positives - pePenalty - debtPenalty)
	if isETF {
		score = clamp01(score + equityETFBoost)
	}

	rationale := strings.Join([]string{
		fmt.Sprintf("mom12m=%s", fmtPct(&momentum)),
		fmt.Sprintf("PE=%s", fmtNum(f.PE)),
		fmt.Sprintf("ROE=%s", fmtPct(f.ROE)),
		fmt.Sprintf("PM=%s", fmtPct(f.ProfitMargin)),
		fmt.Sprintf("OM=%s", fmtPct(f.OperatingMargin)),
		fmt.Sprintf("RevG=%s", fmtPct(f.RevGrowth)),
		fmt.Sprintf("EPSG=%s", fmtPct(f.EPSGrowth)),
		fmt.Sprintf("Debt/EBITDA=%s", fmtNum(f.DebtEBITDA)),
		fmt.Sprintf("ETFBoost=%t", isETF),
	}, "; ")

	return score, rationale
}

func deref(x *float64) float64 {
	if x == nil {
		return 0
	}
	return *x
}

func capOpt(x *float64, lo, hi float64) float64 {
	if x == nil {
		return 0
	}
	return clamp(*x, lo, hi)
}

func fmtNum(x *float64) string {
	if x == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *x)
}

func fmtPct(x *float64) string {
	if x == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *x*100)
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
