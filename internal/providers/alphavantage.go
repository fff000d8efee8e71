package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ogaspar/ballast/pkg/config"
	"github.com/ogaspar/ballast/pkg/httputil"
	"github.com/ogaspar/ballast/pkg/logger"
	"github.com/ogaspar/ballast/pkg/redis"
)

// AlphaVantage serves company fundamentals from the OVERVIEW endpoint. The
// free tier allows 25 requests a day, so results are cached for a month and
// callers must tolerate ErrUnavailable.
type AlphaVantage struct {
	client *httputil.Client
	cache  *redis.Cache
	cfg    config.AlphaVantageConfig
	logger *logger.Logger

	ttlFundamentals time.Duration
}

// NewAlphaVantage creates the client.
func NewAlphaVantage(cfg *config.Config, cache *redis.Cache, log *logger.Logger) *AlphaVantage {
	return &AlphaVantage{
		// 5 requests/min on the free tier.
		client:          httputil.New(log).WithRateLimit(1.0/13.0, 1),
		cache:           cache,
		cfg:             cfg.AlphaVantage,
		logger:          log,
		ttlFundamentals: cfg.TTLFundamentals,
	}
}

// Overview returns normalized fundamentals for an equity symbol. ETFs have
// no overview and come back as ErrUnavailable.
func (a *AlphaVantage) Overview(ctx context.Context, symbol string) (*Fundamentals, error) {
	if a.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: alphavantage: no api key", ErrUnavailable)
	}
	sym := strings.ToUpper(symbol)

	cacheKey := redis.FundamentalsKey(sym)
	var cached Fundamentals
	if found, _ := a.cache.Get(ctx, cacheKey, &cached); found {
		return &cached, nil
	}

	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", sym)
	params.Set("apikey", a.cfg.APIKey)

	endpoint := fmt.Sprintf("%s/query?%s", a.cfg.BaseURL, params.Encode())

	// Every field is a string, including the numbers. Rate-limit refusals
	// come back as 200 with a "Note" or "Information" field.
	var resp map[string]string
	if err := a.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("%w: alphavantage overview %s: %v", ErrUnavailable, sym, err)
	}
	if _, throttled := resp["Note"]; throttled {
		return nil, fmt.Errorf("%w: alphavantage overview %s: throttled", ErrUnavailable, sym)
	}
	if resp["Symbol"] == "" {
		return nil, fmt.Errorf("%w: alphavantage overview %s: empty overview", ErrUnavailable, sym)
	}

	f := &Fundamentals{
		PE:              parseField(resp, "PERatio"),
		ROE:             parseField(resp, "ReturnOnEquityTTM"),
		ProfitMargin:    parseField(resp, "ProfitMargin"),
		OperatingMargin: parseField(resp, "OperatingMarginTTM"),
		RevGrowth:       parseField(resp, "QuarterlyRevenueGrowthYOY"),
		EPSGrowth:       parseField(resp, "QuarterlyEarningsGrowthYOY"),
		DebtEBITDA:      parseField(resp, "EVToEBITDA"),
	}

	if err := a.cache.Set(ctx, cacheKey, f, a.ttlFundamentals); err != nil {
		a.logger.WithError(err).Warn("alphavantage cache write failed")
	}

	return f, nil
}

// parseField converts one overview field, treating "None" and "-" as absent.
func parseField(resp map[string]string, key string) *float64 {
	raw, ok := resp[key]
	if !ok || raw == "" || raw == "None" || raw == "-" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}
