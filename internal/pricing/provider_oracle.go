package pricing

import (
	"context"

	"github.com/ogaspar/ballast/internal/assetclass"
	"github.com/ogaspar/ballast/internal/providers"
	"github.com/ogaspar/ballast/pkg/logger"
)

// pricer is the provider surface the oracle needs. CoinGecko and Yahoo
// both satisfy it.
type pricer interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// ProviderOracle prices crypto through CoinGecko and everything else through
// Yahoo, then degrades to the static table. It never returns a non-positive
// price without an error.
type ProviderOracle struct {
	crypto pricer
	quotes pricer
	logger *logger.Logger
}

// NewProviderOracle wires the live providers.
func NewProviderOracle(crypto *providers.CoinGecko, quotes *providers.Yahoo, log *logger.Logger) *ProviderOracle {
	return &ProviderOracle{
		crypto: crypto,
		quotes: quotes,
		logger: log,
	}
}

// Price resolves the execution price for one instrument.
func (o *ProviderOracle) Price(ctx context.Context, instrumentID string) (float64, error) {
	sym := assetclass.Normalize(instrumentID)
	if sym == "" {
		return 0, ErrUnavailable
	}

	var price float64
	var err error
	if assetclass.Classify(sym) == assetclass.Crypto {
		price, err = o.crypto.Price(ctx, sym)
	} else {
		price, err = o.quotes.Price(ctx, sym)
	}

	if err == nil && price > 0 {
		return price, nil
	}

	if err != nil {
		o.logger.WithError(err).WithField("instrument", sym).
			Warn("live price unavailable, using fallback quote")
	}

	return FallbackPrice(sym), nil
}
