// Package signals hosts the per-asset-class signal agents. Each agent pulls
// market data through the provider layer, scores its universe with a small
// transparent model, and emits directional signals for the planner. Agents
// degrade to neutral HOLD signals when data is missing; they never fail a
// collection cycle outright.
package signals

import (
	"context"

	"github.com/ogaspar/ballast/internal/assetclass"
	"github.com/ogaspar/ballast/internal/contracts"
)

// Agent produces signals for one asset class.
type Agent interface {
	Class() assetclass.Class
	Collect(ctx context.Context) ([]contracts.Signal, error)
}

// buyThreshold is the score above which an agent emits BUY instead of HOLD.
const buyThreshold = 0.55

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clamp01(x float64) float64 {
	return clamp(x, 0, 1)
}
