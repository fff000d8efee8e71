package signals

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ogaspar/ballast/internal/assetclass"
	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/providers"
	"github.com/ogaspar/ballast/pkg/logger"
)

var reitUniverse = []string{"VNQ", "IPRP", "PLD", "O", "SPG"}

var reitETFs = map[string]struct{}{
	"VNQ": {}, "IPRP": {},
}

const (
	reitETFBoost = 0.05
	reitTTLDays  = 30
)

// yieldSource is the dividend-yield surface the agent needs.
type yieldSource interface {
	DividendYield(ctx context.Context, symbol string) (float64, error)
}

// REITsAgent ranks REITs purely on trailing dividend yield, compressed
// through a log so very high yields saturate instead of dominating.
type REITsAgent struct {
	yields   yieldSource
	universe []string
	logger   *logger.Logger
	now      func() time.Time
}

// NewREITsAgent wires the Yahoo dividend-yield source.
func NewREITsAgent(yields *providers.Yahoo, log *logger.Logger) *REITsAgent {
	return &REITsAgent{
		yields:   yields,
		universe: reitUniverse,
		logger:   log,
		now:      time.Now,
	}
}

// Class implements Agent.
func (a *REITsAgent) Class() assetclass.Class {
	return assetclass.REITs
}

// Collect scores every REIT. A missing yield scores as zero, which lands on
// the 0.5 baseline (or just above for the ETFs).
func (a *REITsAgent) Collect(ctx context.Context) ([]contracts.Signal, error) {
	out := make([]contracts.Signal, 0, len(a.universe))
	now := a.now().UTC()

	for _, ticker := range a.universe {
		dy, err := a.yields.DividendYield(ctx, ticker)
		if err != nil {
			a.logger.WithError(err).WithField("instrument", ticker).
				Warn("reits: dividend yield unavailable, scoring neutral")
			dy = 0
		}

		_, isETF := reitETFs[ticker]
		score := scoreREIT(dy, isETF)

		side := contracts.SideHold
		if score > buyThreshold {
			side = contracts.SideBuy
		}

		out = append(out, contracts.Signal{
			InstrumentID: ticker,
			Side:         side,
			Confidence:   round3(score),
			Rationale:    fmt.Sprintf("DY_TTM=%.2f%%, ETFBoost=%t", dy*100, isETF),
			TTLDays:      reitTTLDays,
			CollectedAt:  now,
		})
	}

	return out, nil
}

// scoreREIT maps a fractional dividend yield onto [0, 1]:
//
//	score = 0.5 + 0.8*log1p(dy*100)/10, plus the ETF boost
func scoreREIT(dy float64, isETF bool) float64 {
	score := 0.5 + 0.8*math.Log1p(dy*100)/10.0
	if isETF {
		score += reitETFBoost
	}
	return clamp01(score)
}
