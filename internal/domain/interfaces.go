package domain

import (
	"context"
	"time"
)

// PriceAdapter provides historical daily bars for instruments.
// Implementations must return partial results: the map carries every symbol
// that succeeded, the slice lists the symbols that failed.
type PriceAdapter interface {
	History(ctx context.Context, symbols []string, days int) (map[string]PriceSeries, []string, error)
}

// VolatilityReading is the market-wide volatility input to regime classification.
type VolatilityReading struct {
	Level      float64 `json:"level"`
	FiveDayAvg float64 `json:"five_day_avg"`
}

// VolatilityAdapter provides the current volatility index reading and
// benchmark returns for the market overview.
type VolatilityAdapter interface {
	Reading(ctx context.Context) (VolatilityReading, error)
	BenchmarkReturns(ctx context.Context) (r1d, r5d float64, err error)
}

// NewsAdapter searches recent news for one instrument. An empty result is
// not an error; the article count is capped by the implementation.
type NewsAdapter interface {
	Search(ctx context.Context, symbol, displayName string, window time.Duration) ([]Article, error)
}

// Summarizer condenses a bounded article set into a structured assessment.
type Summarizer interface {
	Summarize(ctx context.Context, symbol, displayName string, articles []Article) (*SummaryResult, error)
}
