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

var cryptoUniverse = []string{"BTC", "ETH", "SOL", "ADA", "DOGE"}

const cryptoTTLDays = 7

// CryptoAgent scores coins on trend (price above SMA50 above SMA200) with a
// volatility filter that shaves confidence when the recent range explodes.
type CryptoAgent struct {
	history  historySource
	universe []string
	logger   *logger.Logger
	now      func() time.Time
}

// NewCryptoAgent wires the CoinGecko history source over the default coins.
func NewCryptoAgent(history *providers.CoinGecko, log *logger.Logger) *CryptoAgent {
	return &CryptoAgent{
		history:  history,
		universe: cryptoUniverse,
		logger:   log,
		now:      time.Now,
	}
}

// Class implements Agent.
func (a *CryptoAgent) Class() assetclass.Class {
	return assetclass.Crypto
}

// Collect scores every coin. Coins without history degrade to a defensive
// low-confidence HOLD.
func (a *CryptoAgent) Collect(ctx context.Context) ([]contracts.Signal, error) {
	out := make([]contracts.Signal, 0, len(a.universe))
	now := a.now().UTC()

	for _, sym := range a.universe {
		history, err := a.history.History(ctx, sym, 400)
		if err != nil || len(history) == 0 {
			if err != nil {
				a.logger.WithError(err).WithField("instrument", sym).
					Warn("crypto: no history, emitting defensive hold")
			}
			out = append(out, contracts.Signal{
				InstrumentID: sym,
				Side:         contracts.SideHold,
				Confidence:   0.3,
				Rationale:    "no usable data",
				TTLDays:      cryptoTTLDays,
				CollectedAt:  now,
			})
			continue
		}

		prices := make([]float64, 0, len(history))
		for _, point := range history {
			if point.Price > 0 {
				prices = append(prices, point.Price)
			}
		}

		side, confidence, rationale := scoreCrypto(prices)

		out = append(out, contracts.Signal{
			InstrumentID: sym,
			Side:         side,
			Confidence:   round3(confidence),
			Rationale:    rationale,
			TTLDays:      cryptoTTLDays,
			CollectedAt:  now,
		})
	}

	return out, nil
}

// scoreCrypto applies the trend rule: BUY at 0.7 when price > SMA50 > SMA200,
// otherwise HOLD at 0.4. Elevated 14-day volatility subtracts 0.07 above 5%
// daily range and 0.15 above 8%.
func scoreCrypto(prices []float64) (contracts.Side, float64, string) {
	if len(prices) == 0 {
		return contracts.SideHold, 0.3, "no usable data"
	}

	priceNow := prices[len(prices)-1]

	ma50, ok := sma(prices, 50)
	if !ok {
		ma50 = priceNow
	}
	ma200, ok := sma(prices, 200)
	if !ok {
		ma200 = mean(prices)
	}

	upTrend := priceNow > ma50 && ma50 > ma200

	var volPenalty float64
	atrp, hasATR := atrPercent(prices, 14)
	if hasATR {
		switch {
		case atrp > 0.08:
			volPenalty = 0.15
		case atrp > 0.05:
			volPenalty = 0.07
		}
	}

	side := contracts.SideHold
	confidence := 0.4
	if upTrend {
		side = contracts.SideBuy
		confidence = 0.7
	}
	confidence = clamp01(confidence - volPenalty)

	trend := "NO"
	if upTrend {
		trend = "OK"
	}
	penalty := ""
	if volPenalty > 0 {
		penalty = " (penalty)"
	}
	rationale := fmt.Sprintf("MA50>MA200=%s; ATR14%%=%.2f%%%s", trend, atrp*100, penalty)

	return side, confidence, rationale
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
