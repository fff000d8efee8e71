package providers

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ogaspar/ballast/pkg/config"
	"github.com/ogaspar/ballast/pkg/httputil"
	"github.com/ogaspar/ballast/pkg/logger"
	"github.com/ogaspar/ballast/pkg/redis"
)

// CoinGecko serves crypto price history and spot prices, priced in EUR.
type CoinGecko struct {
	client *httputil.Client
	cache  *redis.Cache
	cfg    config.CoinGeckoConfig
	logger *logger.Logger

	ttlPrice   time.Duration
	ttlHistory time.Duration
}

// Symbol to CoinGecko coin id.
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"ADA":  "cardano",
	"DOGE": "dogecoin",
}

// NewCoinGecko creates the client. The free tier is aggressive about 429s,
// hence the low request rate.
func NewCoinGecko(cfg *config.Config, cache *redis.Cache, log *logger.Logger) *CoinGecko {
	return &CoinGecko{
		client:     httputil.New(log).WithRateLimit(0.5, 1),
		cache:      cache,
		cfg:        cfg.CoinGecko,
		logger:     log,
		ttlPrice:   cfg.TTLPrice,
		ttlHistory: cfg.TTLPrice,
	}
}

// History returns up to days of daily closes for a crypto symbol.
func (c *CoinGecko) History(ctx context.Context, symbol string, days int) ([]PricePoint, error) {
	sym := strings.ToUpper(symbol)
	coinID, ok := coinIDs[sym]
	if !ok {
		return nil, fmt.Errorf("%w: unknown coin %s", ErrUnavailable, symbol)
	}

	cacheKey := redis.HistoryKey("coingecko", sym, days)
	var cached []PricePoint
	if found, _ := c.cache.Get(ctx, cacheKey, &cached); found {
		return cached, nil
	}

	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=eur&days=%d&interval=daily",
		c.cfg.BaseURL, coinID, days)

	var resp struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := c.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("%w: coingecko history %s: %v", ErrUnavailable, sym, err)
	}

	history := make([]PricePoint, 0, len(resp.Prices))
	for _, pair := range resp.Prices {
		history = append(history, PricePoint{
			Time:  time.UnixMilli(int64(pair[0])).UTC(),
			Price: pair[1],
		})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Time.Before(history[j].Time) })

	if err := c.cache.Set(ctx, cacheKey, history, c.ttlHistory); err != nil {
		c.logger.WithError(err).Warn("coingecko history cache write failed")
	}

	return history, nil
}

// Price returns the spot price for a single crypto symbol.
func (c *CoinGecko) Price(ctx context.Context, symbol string) (float64, error) {
	prices, err := c.Prices(ctx, []string{symbol})
	if err != nil {
		return 0, err
	}
	price, ok := prices[strings.ToUpper(symbol)]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("%w: no price for %s", ErrUnavailable, symbol)
	}
	return price, nil
}

// Prices fetches spot prices for several symbols in one call to spare the
// free-tier rate limit.
func (c *CoinGecko) Prices(ctx context.Context, symbols []string) (map[string]float64, error) {
	ids := make([]string, 0, len(symbols))
	idToSym := make(map[string]string, len(symbols))
	out := make(map[string]float64, len(symbols))

	for _, symbol := range symbols {
		sym := strings.ToUpper(symbol)

		var cached float64
		if found, _ := c.cache.Get(ctx, redis.PriceKey(sym), &cached); found && cached > 0 {
			out[sym] = cached
			continue
		}

		if id, ok := coinIDs[sym]; ok {
			ids = append(ids, id)
			idToSym[id] = sym
		}
	}

	if len(ids) == 0 {
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: no known coins in %v", ErrUnavailable, symbols)
		}
		return out, nil
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=eur",
		c.cfg.BaseURL, url.QueryEscape(strings.Join(ids, ",")))

	var resp map[string]struct {
		EUR float64 `json:"eur"`
	}
	if err := c.client.GetJSON(ctx, endpoint, &resp); err != nil {
		if len(out) > 0 {
			return out, nil
		}
		return nil, fmt.Errorf("%w: coingecko prices: %v", ErrUnavailable, err)
	}

	for id, quote := range resp {
		sym := idToSym[id]
		if sym == "" || quote.EUR <= 0 {
			continue
		}
		out[sym] = quote.EUR
		if err := c.cache.Set(ctx, redis.PriceKey(sym), quote.EUR, c.ttlPrice); err != nil {
			c.logger.WithError(err).Warn("coingecko price cache write failed")
		}
	}

	return out, nil
}
