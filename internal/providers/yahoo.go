package providers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ogaspar/ballast/pkg/config"
	"github.com/ogaspar/ballast/pkg/httputil"
	"github.com/ogaspar/ballast/pkg/logger"
	"github.com/ogaspar/ballast/pkg/redis"
)

// Yahoo serves daily price history for stocks and ETFs via the unofficial
// chart API, plus a best-effort dividend yield scraped from the quote page.
type Yahoo struct {
	chart  *httputil.Client
	quote  *httputil.Client
	cache  *redis.Cache
	cfg    config.YahooConfig
	logger *logger.Logger

	ttlPrice time.Duration
}

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// NewYahoo creates the client. Yahoo blocks the default Go user agent, so
// both clients present a browser UA.
func NewYahoo(cfg *config.Config, cache *redis.Cache, log *logger.Logger) *Yahoo {
	return &Yahoo{
		chart:    httputil.New(log).WithRateLimit(2, 2).WithUserAgent(browserUA),
		quote:    httputil.New(log).WithRateLimit(0.5, 1).WithUserAgent(browserUA),
		cache:    cache,
		cfg:      cfg.Yahoo,
		logger:   log,
		ttlPrice: cfg.TTLPrice,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History returns up to days of daily closes. Null closes (holidays, halted
// sessions) are skipped.
func (y *Yahoo) History(ctx context.Context, symbol string, days int) ([]PricePoint, error) {
	sym := strings.ToUpper(symbol)

	cacheKey := redis.HistoryKey("yahoo", sym, days)
	var cached []PricePoint
	if found, _ := y.cache.Get(ctx, cacheKey, &cached); found {
		return cached, nil
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		y.cfg.ChartBaseURL, sym, chartRange(days))

	var resp chartResponse
	if err := y.chart.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("%w: yahoo chart %s: %v", ErrUnavailable, sym, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo chart %s: %s", ErrUnavailable, sym, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo chart %s: empty result", ErrUnavailable, sym)
	}

	result := resp.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	history := make([]PricePoint, 0, len(closes))
	for i, close := range closes {
		if close == nil || *close <= 0 || i >= len(result.Timestamp) {
			continue
		}
		history = append(history, PricePoint{
			Time:  time.Unix(result.Timestamp[i], 0).UTC(),
			Price: *close,
		})
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: yahoo chart %s: no closes", ErrUnavailable, sym)
	}

	if err := y.cache.Set(ctx, cacheKey, history, y.ttlPrice); err != nil {
		y.logger.WithError(err).Warn("yahoo history cache write failed")
	}

	return history, nil
}

// Price returns the latest market price, preferring the chart meta quote
// over the last daily close.
func (y *Yahoo) Price(ctx context.Context, symbol string) (float64, error) {
	sym := strings.ToUpper(symbol)

	var cached float64
	if found, _ := y.cache.Get(ctx, redis.PriceKey(sym), &cached); found && cached > 0 {
		return cached, nil
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=5d&interval=1d",
		y.cfg.ChartBaseURL, sym)

	var resp chartResponse
	if err := y.chart.GetJSON(ctx, endpoint, &resp); err != nil {
		return 0, fmt.Errorf("%w: yahoo price %s: %v", ErrUnavailable, sym, err)
	}
	if resp.Chart.Error != nil || len(resp.Chart.Result) == 0 {
		return 0, fmt.Errorf("%w: yahoo price %s: empty result", ErrUnavailable, sym)
	}

	result := resp.Chart.Result[0]
	price := result.Meta.RegularMarketPrice
	if price <= 0 && len(result.Indicators.Quote) > 0 {
		for i := len(result.Indicators.Quote[0].Close) - 1; i >= 0; i-- {
			if c := result.Indicators.Quote[0].Close[i]; c != nil && *c > 0 {
				price = *c
				break
			}
		}
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: yahoo price %s: no quote", ErrUnavailable, sym)
	}

	if err := y.cache.Set(ctx, redis.PriceKey(sym), price, y.ttlPrice); err != nil {
		y.logger.WithError(err).Warn("yahoo price cache write failed")
	}

	return price, nil
}

var yieldPattern = regexp.MustCompile(`\(([\d.,]+)%\)`)

// DividendYield scrapes the forward dividend yield from the quote page and
// returns it as a fraction (0.037 for 3.7%). The markup changes often, so
// several selectors are tried before giving up.
func (y *Yahoo) DividendYield(ctx context.Context, symbol string) (float64, error) {
	sym := strings.ToUpper(symbol)

	cacheKey := redis.FundamentalsKey("yield:" + sym)
	var cached float64
	if found, _ := y.cache.Get(ctx, cacheKey, &cached); found && cached > 0 {
		return cached, nil
	}

	endpoint := fmt.Sprintf("%s/quote/%s", y.cfg.QuoteBaseURL, sym)
	resp, err := y.quote.Get(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("%w: yahoo quote page %s: %v", ErrUnavailable, sym, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return 0, fmt.Errorf("%w: yahoo quote page %s: status %d", ErrUnavailable, sym, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: yahoo quote page %s: parse: %v", ErrUnavailable, sym, err)
	}

	selectors := []string{
		`td[data-test="DIVIDEND_AND_YIELD-value"]`,
		`td[data-test="TD_YIELD-value"]`,
		`fin-streamer[data-field="trailingAnnualDividendYield"]`,
	}

	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" || text == "N/A" {
			continue
		}
		if dy, ok := parseYield(text); ok {
			if err := y.cache.Set(ctx, cacheKey, dy, y.ttlPrice); err != nil {
				y.logger.WithError(err).Warn("yahoo yield cache write failed")
			}
			return dy, nil
		}
	}

	return 0, fmt.Errorf("%w: yahoo quote page %s: yield not found", ErrUnavailable, sym)
}

// parseYield handles both "1.92 (3.71%)" and bare "3.71%" forms.
func parseYield(text string) (float64, bool) {
	candidate := text
	if m := yieldPattern.FindStringSubmatch(text); len(m) == 2 {
		candidate = m[1]
	}
	candidate = strings.TrimSuffix(strings.TrimSpace(candidate), "%")
	candidate = strings.ReplaceAll(candidate, ",", "")

	pct, err := strconv.ParseFloat(candidate, 64)
	if err != nil || pct < 0 || pct > 100 {
		return 0, false
	}
	return pct / 100, true
}

// chartRange maps a day count onto the coarse ranges the chart API accepts.
func chartRange(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 31:
		return "1mo"
	case days <= 93:
		return "3mo"
	case days <= 186:
		return "6mo"
	case days <= 366:
		return "1y"
	default:
		return "2y"
	}
}
