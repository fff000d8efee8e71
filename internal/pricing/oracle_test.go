package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackPrice(t *testing.T) {
	assert.Equal(t, 65000.0, FallbackPrice("BTC"))
	assert.Equal(t, 65000.0, FallbackPrice(" btc "))
	assert.Equal(t, DefaultPrice, FallbackPrice("UNKNOWN"))
}

func TestStaticOracle(t *testing.T) {
	oracle := NewStaticOracle(map[string]float64{
		"voo":  510.0,
		"DEAD": 0,
	})
	ctx := context.Background()

	price, err := oracle.Price(ctx, "VOO")
	assert.NoError(t, err)
	assert.Equal(t, 510.0, price)

	// Explicitly unpriceable.
	_, err = oracle.Price(ctx, "DEAD")
	assert.ErrorIs(t, err, ErrUnavailable)

	// Unconfigured symbols fall through to the static table.
	price, err = oracle.Price(ctx, "ETH")
	assert.NoError(t, err)
	assert.Equal(t, 3500.0, price)

	price, err = oracle.Price(ctx, "ZZZZ")
	assert.NoError(t, err)
	assert.Equal(t, DefaultPrice, price)
}
