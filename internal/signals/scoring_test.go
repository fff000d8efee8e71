package signals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/providers"
)

func f64(x float64) *float64 { return &x }

func TestScoreEquity_NoFundamentals(t *testing.T) {
	// Only momentum contributes; 10% momentum lands at 0.6.
	score, rationale := scoreEquity(0.10, &providers.Fundamentals{}, false)
	assert.InDelta(t, 0.60, score, 1e-9)
	assert.Contains(t, rationale, "mom12m=10.00%")
	assert.Contains(t, rationale, "PE=n/a")
}

func TestScoreEquity_MomentumIsCapped(t *testing.T) {
	high, _ := scoreEquity(1.50, &providers.Fundamentals{}, false)
	capped, _ := scoreEquity(0.60, &providers.Fundamentals{}, false)
	assert.InDelta(t, capped, high, 1e-9)

	low, _ := scoreEquity(-0.90, &providers.Fundamentals{}, false)
	floor, _ := scoreEquity(-0.30, &providers.Fundamentals{}, false)
	assert.InDelta(t, floor, low, 1e-9)
}

func TestScoreEquity_PenaltiesReduceScore(t *testing.T) {
	clean, _ := scoreEquity(0.10, &providers.Fundamentals{}, false)

	expensive, _ := scoreEquity(0.10, &providers.Fundamentals{PE: f64(50)}, false)
	assert.InDelta(t, clean-0.20*(50.0/25.0), expensive, 1e-9)

	// Debt/EBITDA of 6 maxes the leverage penalty at 0.25.
	levered, _ := scoreEquity(0.10, &providers.Fundamentals{DebtEBITDA: f64(6)}, false)
	assert.InDelta(t, clean-0.25, levered, 1e-9)

	// Below the 2x threshold there is no penalty.
	modest, _ := scoreEquity(0.10, &providers.Fundamentals{DebtEBITDA: f64(1.5)}, false)
	assert.InDelta(t, clean, modest, 1e-9)
}

func TestScoreEquity_ETFBoostAndClamp(t *testing.T) {
	base, _ := scoreEquity(0.10, &providers.Fundamentals{}, false)
	boosted, _ := scoreEquity(0.10, &providers.Fundamentals{}, true)
	assert.InDelta(t, base+equityETFBoost, boosted, 1e-9)

	// A stacked set of positives cannot push past 1.
	maxed, _ := scoreEquity(2.0, &providers.Fundamentals{
		ROE:             f64(0.9),
		OperatingMargin: f64(0.9),
		ProfitMargin:    f64(0.9),
		RevGrowth:       f64(0.9),
		EPSGrowth:       f64(0.9),
	}, true)
	assert.Equal(t, 1.0, maxed)
}

func TestScoreCrypto_UpTrend(t *testing.T) {
	// Steady gentle uptrend: price > SMA50 > SMA200, low volatility.
	prices := make([]float64, 250)
	prices[0] = 100
	for i := 1; i < len(prices); i++ {
		prices[i] = prices[i-1] * 1.002
	}

	side, confidence, rationale := scoreCrypto(prices)
	assert.Equal(t, contracts.SideBuy, side)
	assert.InDelta(t, 0.7, confidence, 1e-9)
	assert.Contains(t, rationale, "MA50>MA200=OK")
}

func TestScoreCrypto_DownTrend(t *testing.T) {
	prices := make([]float64, 250)
	prices[0] = 100
	for i := 1; i < len(prices); i++ {
		prices[i] = prices[i-1] * 0.998
	}

	side, confidence, _ := scoreCrypto(prices)
	assert.Equal(t, contracts.SideHold, side)
	assert.InDelta(t, 0.4, confidence, 1e-9)
}

func TestScoreCrypto_VolatilityPenalty(t *testing.T) {
	// Uptrend with violent alternating swings: trend holds but ATR blows up.
	prices := make([]float64, 250)
	prices[0] = 100
	for i := 1; i < len(prices); i++ {
		factor := 1.10
		if i%2 == 0 {
			factor = 0.97
		}
		prices[i] = prices[i-1] * factor
	}

	_, confidence, rationale := scoreCrypto(prices)
	assert.Less(t, confidence, 0.7)
	assert.Contains(t, rationale, "(penalty)")
}

func TestScoreCrypto_Empty(t *testing.T) {
	side, confidence, _ := scoreCrypto(nil)
	assert.Equal(t, contracts.SideHold, side)
	assert.InDelta(t, 0.3, confidence, 1e-9)
}

func TestScoreBondETF(t *testing.T) {
	// At exactly the hurdle with target duration the score sits at 0.5.
	score, _ := scoreBondETF("IEAC", 0.03, 0.0, 0.0)
	assert.InDelta(t, 0.5, score, 1e-9)

	// Higher treasury yield lifts the score.
	richer, rationale := scoreBondETF("IEAC", 0.03, 0.04, 0.0)
	assert.InDelta(t, 0.5+4.0*0.02, richer, 1e-9)
	assert.Contains(t, rationale, "DGS10=4.00%")

	// Wider high yield spread drags it.
	stressed, _ := scoreBondETF("IEAC", 0.03, 0.04, 0.05)
	assert.Less(t, stressed, richer)

	// TLT's 18y duration carries a heavy quadratic penalty.
	long, _ := scoreBondETF("TLT", 0.03, 0.04, 0.0)
	assert.InDelta(t, richer-0.015*math.Pow(18.0-6.0, 2), long, 1e-9)
}

func TestScoreREIT(t *testing.T) {
	// No yield: neutral, plus boost for the ETFs.
	assert.InDelta(t, 0.5, scoreREIT(0, false), 1e-9)
	assert.InDelta(t, 0.55, scoreREIT(0, true), 1e-9)

	// 4% yield clears the buy threshold.
	score := scoreREIT(0.04, false)
	assert.InDelta(t, 0.5+0.8*math.Log1p(4)/10.0, score, 1e-9)
	assert.Greater(t, score, buyThreshold)

	// Extreme yields saturate instead of exceeding 1.
	assert.LessOrEqual(t, scoreREIT(5.0, true), 1.0)
}
