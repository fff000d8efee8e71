package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ogaspar/ballast/pkg/config"
	"github.com/ogaspar/ballast/pkg/httputil"
	"github.com/ogaspar/ballast/pkg/logger"
	"github.com/ogaspar/ballast/pkg/redis"
)

// Macro series used by the fixed-income model.
const (
	SeriesTreasury10Y  = "DGS10"        // 10-year treasury constant maturity, percent
	SeriesHighYieldOAS = "BAMLH0A0HYM2" // ICE BofA US high yield option-adjusted spread, percent
)

// FRED serves macro series observations from the St. Louis Fed API.
type FRED struct {
	client *httputil.Client
	cache  *redis.Cache
	cfg    config.FREDConfig
	logger *logger.Logger

	ttlMacro time.Duration
}

// NewFRED creates the client. An empty API key makes every call fail with
// ErrUnavailable so the caller's fallback path takes over.
func NewFRED(cfg *config.Config, cache *redis.Cache, log *logger.Logger) *FRED {
	return &FRED{
		client:   httputil.New(log).WithRateLimit(1, 2),
		cache:    cache,
		cfg:      cfg.FRED,
		logger:   log,
		ttlMacro: cfg.TTLMacro,
	}
}

// Latest returns the most recent non-missing observation of a series, as a
// raw percent value (DGS10 of 4.2 means 4.2%).
func (f *FRED) Latest(ctx context.Context, seriesID string) (float64, error) {
	if f.cfg.APIKey == "" {
		return 0, fmt.Errorf("%w: fred: no api key", ErrUnavailable)
	}

	cacheKey := redis.MacroKey(seriesID)
	var cached float64
	if found, _ := f.cache.Get(ctx, cacheKey, &cached); found {
		return cached, nil
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", f.cfg.APIKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", "10")

	endpoint := fmt.Sprintf("%s/series/observations?%s", f.cfg.BaseURL, params.Encode())

	var resp struct {
		Observations []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"observations"`
	}
	if err := f.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return 0, fmt.Errorf("%w: fred %s: %v", ErrUnavailable, seriesID, err)
	}

	// FRED reports missing observations as ".".
	for _, obs := range resp.Observations {
		if obs.Value == "." || obs.Value == "" {
			continue
		}
		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		if err := f.cache.Set(ctx, cacheKey, value, f.ttlMacro); err != nil {
			f.logger.WithError(err).Warn("fred cache write failed")
		}
		return value, nil
	}

	return 0, fmt.Errorf("%w: fred %s: no usable observations", ErrUnavailable, seriesID)
}
