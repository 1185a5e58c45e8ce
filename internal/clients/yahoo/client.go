// Package yahoo fetches daily price history and the volatility index from
// the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/holiuunc/etf-justification-engine/internal/domain"
	"github.com/holiuunc/etf-justification-engine/pkg/formulas"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"

	// volatilityIndexSymbol and benchmarkSymbol feed the market overview.
	volatilityIndexSymbol = "^VIX"
	benchmarkSymbol       = "SPY"

	// fetchConcurrency bounds parallel chart requests for a universe fetch.
	fetchConcurrency = 4
)

// Client is a Yahoo Finance chart API client.
type Client struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client.
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: defaultBaseURL,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint. Used by
// tests to point at a local server.
func NewClientWithBaseURL(baseURL string, log zerolog.Logger) *Client {
	c := NewClient(log)
	c.baseURL = baseURL
	return c
}

// History fetches daily bars for every symbol, fanning requests out across
// a bounded worker set. Per-symbol failures do not fail the batch: the
// returned map holds the successes and the slice lists the failures.
func (c *Client) History(ctx context.Context, symbols []string, days int) (map[string]domain.PriceSeries, []string, error) {
	out := make(map[string]domain.PriceSeries, len(symbols))
	var failed []string
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			bars, err := c.chart(gctx, sym, rangeFor(days))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.log.Warn().Err(err).Str("symbol", sym).Msg("Failed to fetch history")
				failed = append(failed, sym)
				return nil
			}
			out[sym] = domain.PriceSeries{Symbol: sym, Bars: bars}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	sort.Strings(failed)

	if len(out) == 0 && len(symbols) > 0 {
		return nil, nil, fmt.Errorf("all %d history requests failed", len(symbols))
	}

	c.log.Info().
		Int("requested", len(symbols)).
		Int("fetched", len(out)).
		Int("failed", len(failed)).
		Msg("Fetched price history")
	return out, failed, nil
}

// Reading returns the current volatility index level and its 5-day average.
func (c *Client) Reading(ctx context.Context) (domain.VolatilityReading, error) {
	bars, err := c.chart(ctx, volatilityIndexSymbol, "1mo")
	if err != nil {
		return domain.VolatilityReading{}, fmt.Errorf("failed to fetch volatility index: %w", err)
	}
	if len(bars) == 0 {
		return domain.VolatilityReading{}, fmt.Errorf("no volatility index data returned")
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return domain.VolatilityReading{
		Level:      closes[len(closes)-1],
		FiveDayAvg: formulas.Mean(formulas.Tail(closes, 5)),
	}, nil
}

// BenchmarkReturns returns the 1-day and 5-day benchmark returns.
func (c *Client) BenchmarkReturns(ctx context.Context) (float64, float64, error) {
	bars, err := c.chart(ctx, benchmarkSymbol, "1mo")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch benchmark: %w", err)
	}
	if len(bars) < 2 {
		return 0, 0, fmt.Errorf("not enough benchmark data: %d bars", len(bars))
	}

	n := len(bars)
	last := bars[n-1].Close
	r1d := (last - bars[n-2].Close) / bars[n-2].Close

	var r5d float64
	if n >= 6 {
		r5d = (last - bars[n-6].Close) / bars[n-6].Close
	}
	return r1d, r5d, nil
}

// rangeFor maps a calendar-day lookback onto the chart API's range values.
func rangeFor(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}

// chart fetches daily bars for one symbol from the v8 chart endpoint.
func (c *Client) chart(ctx context.Context, symbol, period string) ([]domain.Bar, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", period)
	reqURL := c.baseURL + "/v8/finance/chart/" + url.QueryEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result struct {
		Chart struct {
			Result []struct {
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Open   []float64 `json:"open"`
						High   []float64 `json:"high"`
						Low    []float64 `json:"low"`
						Close  []float64 `json:"close"`
						Volume []int64   `json:"volume"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
			Error interface{} `json:"error"`
		} `json:"chart"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no chart data returned for %s", symbol)
	}

	chartData := result.Chart.Result[0]
	quote := chartData.Indicators.Quote[0]

	var bars []domain.Bar
	for i := range chartData.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}
		// Yahoo sometimes returns null rows as zeros.
		if quote.Open[i] == 0 && quote.High[i] == 0 && quote.Low[i] == 0 && quote.Close[i] == 0 {
			continue
		}
		volume := int64(0)
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}
		bars = append(bars, domain.Bar{
			Date:   time.Unix(chartData.Timestamp[i], 0).UTC(),
			Open:   quote.Open[i],
			High:   quote.High[i],
			Low:    quote.Low[i],
			Close:  quote.Close[i],
			Volume: volume,
		})
	}
	return bars, nil
}
