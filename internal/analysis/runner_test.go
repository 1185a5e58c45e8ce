package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holiuunc/etf-justification-engine/internal/config"
	"github.com/holiuunc/etf-justification-engine/internal/domain"
	"github.com/holiuunc/etf-justification-engine/internal/universe"
)

type fakePrices struct {
	series map[string]domain.PriceSeries
	failed []string
	err    error
}

func (f *fakePrices) History(_ context.Context, _ []string, _ int) (map[string]domain.PriceSeries, []string, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.series, f.failed, nil
}

type fakeVolatility struct {
	reading domain.VolatilityReading
	err     error
}

func (f *fakeVolatility) Reading(_ context.Context) (domain.VolatilityReading, error) {
	return f.reading, f.err
}

func (f *fakeVolatility) BenchmarkReturns(_ context.Context) (float64, float64, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	return -0.012, -0.034, nil
}

type fakeNews struct{ articles []domain.Article }

func (f *fakeNews) Search(_ context.Context, _, _ string, _ time.Duration) ([]domain.Article, error) {
	return f.articles, nil
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(_ context.Context, _, _ string, _ []domain.Article) (*domain.SummaryResult, error) {
	return &domain.SummaryResult{Summary: "steady", Sentiment: 0.1, Relevance: 0.6}, nil
}

type memStore struct {
	snapshot *domain.Snapshot
	runs     []*domain.RunResult
}

func (m *memStore) LatestSnapshot() (*domain.Snapshot, error) { return m.snapshot, nil }

func (m *memStore) LatestRun() (*domain.RunResult, error) {
	if len(m.runs) == 0 {
		return nil, nil
	}
	return m.runs[len(m.runs)-1], nil
}

func (m *memStore) SaveRun(result *domain.RunResult) error {
	m.runs = append(m.runs, result)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		InitialCash: 100000,
		Triggers: config.TriggerConfig{
			PriceMoveThreshold:   0.015,
			PriceStdDevThreshold: 2.0,
			VolumeSpikeThreshold: 1.30,
			RSIOverbought:        70,
			RSIOversold:          30,
			FocusListMaxSize:     7,
			MinHistoryBars:       30,
			HistoryDays:          90,
		},
		Technical: config.TechnicalConfig{
			SMAShort: 20, SMAMedium: 50, SMALong: 200,
			RSILength: 14,
			MACDFast:  12, MACDSlow: 26, MACDSignal: 9,
			BollingerLength: 20, BollingerStdDev: 2.0,
			VolumeAvgLookback: 30,
		},
		Regime: config.RegimeConfig{
			ComplacencyBelow: 15, NormalBelow: 25, CautionBelow: 35,
			Splits: map[domain.Regime]domain.MacroSplit{
				domain.RegimeExtremeComplacency: {Equity: 0.85, FixedIncome: 0.10, CashEquivalent: 0.05},
				domain.RegimeNormal:             {Equity: 0.95, FixedIncome: 0.05},
				domain.RegimeCaution:            {Equity: 0.80, FixedIncome: 0.15, CashEquivalent: 0.05},
				domain.RegimeRiskOff:            {Equity: 0.60, FixedIncome: 0.20, CashEquivalent: 0.20},
			},
		},
		Limits: config.LimitConfig{
			SinglePositionMax: 0.30, SectorMax: 0.50, TacticalPositionMax: 0.30,
			CashOvernightMax: 0.05, CoreMin: 0.25, CoreMax: 0.40,
			EquityMin: 0.85, EquityMax: 1.00,
		},
		Trading: config.TradingConfig{
			Commission: 10, MinTradeSize: 500, DriftTolerance: 0.05,
			InitiateMajor: 0.10, InitiateTactical: 0.05, AdjustStep: 0.03,
		},
		Scalpel: config.ScalpelConfig{
			FanOutLimit: 4, TaskTimeout: 5 * time.Second,
			APIBudget: 20, MaxArticles: 5, LookbackDays: 7,
		},
	}
}

func universeSeries(spikeSymbol string) map[string]domain.PriceSeries {
	out := make(map[string]domain.PriceSeries)
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, sym := range universe.Default().Symbols() {
		bars := make([]domain.Bar, 60)
		for i := range bars {
			bars[i] = domain.Bar{
				Date: day.AddDate(0, 0, i),
				Open: 100, High: 100, Low: 100, Close: 100,
				Volume: 1_000_000,
			}
		}
		if sym == spikeSymbol {
			bars[59].Volume = 1_800_000
		}
		out[sym] = domain.PriceSeries{Symbol: sym, Bars: bars}
	}
	return out
}

func newTestRunner(prices domain.PriceAdapter, vol domain.VolatilityAdapter, store Store) *Runner {
	return NewRunner(
		testConfig(),
		universe.Default(),
		prices,
		vol,
		&fakeNews{articles: []domain.Article{{Title: "ETF flows surge", Source: "wire"}}},
		fakeSummarizer{},
		store,
		zerolog.Nop(),
	)
}

func TestRunHappyPath(t *testing.T) {
	store := &memStore{}
	r := newTestRunner(
		&fakePrices{series: universeSeries("IYW")},
		&fakeVolatility{reading: domain.VolatilityReading{Level: 18, FiveDayAvg: 17}},
		store,
	)

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, domain.RegimeNormal, result.Regime)
	assert.InDelta(t, 1.0, result.RegimeSplit.Sum(), 1e-6)
	assert.Equal(t, 18.0, result.Overview.VolatilityLevel)
	assert.Equal(t, -0.012, result.Overview.BenchmarkReturn1D)

	require.Len(t, result.FocusList, 1)
	entry := result.FocusList[0]
	assert.Equal(t, "IYW", entry.Symbol)
	assert.Equal(t, domain.TriggerVolumeSpike, entry.Trigger)
	require.NotNil(t, entry.News)
	assert.Equal(t, 1, entry.News.ArticleCount)

	// One recommendation per focus entry (HOLDs included) plus the macro
	// rebalance buy deploying the all-cash seed into the equity sink.
	require.Len(t, result.Recommendations, 2)
	assert.Equal(t, "IYW", result.Recommendations[0].Symbol)
	assert.Equal(t, domain.ActionHold, result.Recommendations[0].Action)
	assert.Equal(t, "IVV", result.Recommendations[1].Symbol)
	assert.Equal(t, domain.ActionBuy, result.Recommendations[1].Action)

	// Fresh portfolio: all cash, so the idle cash limit fires.
	assert.Equal(t, 100000.0, result.Snapshot.TotalValue)
	require.NotEmpty(t, result.Violations)

	assert.Equal(t, 1, result.Summary.APICallsMade["prices"])
	assert.Equal(t, 2, result.Summary.APICallsMade["volatility"])
	assert.Equal(t, 1, result.Summary.APICallsMade["news"])
	assert.Equal(t, 1, result.Summary.APICallsMade["llm"])

	// Result persisted.
	require.Len(t, store.runs, 1)
	assert.Equal(t, result.ID, store.runs[0].ID)
	assert.Greater(t, result.DurationSeconds, 0.0)
}

func TestRunPriceFeedFailureAborts(t *testing.T) {
	store := &memStore{}
	r := newTestRunner(
		&fakePrices{err: errors.New("feed down")},
		&fakeVolatility{reading: domain.VolatilityReading{Level: 18, FiveDayAvg: 17}},
		store,
	)

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price history fetch failed")
	assert.Empty(t, store.runs)
}

func TestRunVolatilityFailureDegrades(t *testing.T) {
	t.Run("no history falls back to caution", func(t *testing.T) {
		store := &memStore{}
		r := newTestRunner(
			&fakePrices{series: universeSeries("")},
			&fakeVolatility{err: errors.New("index unavailable")},
			store,
		)

		result, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.RegimeCaution, result.Regime)
		require.NotEmpty(t, result.Summary.Errors)
		assert.Contains(t, result.Summary.Errors[0], "volatility reading failed")
	})

	t.Run("previous run regime is reused", func(t *testing.T) {
		store := &memStore{runs: []*domain.RunResult{{Regime: domain.RegimeRiskOff}}}
		r := newTestRunner(
			&fakePrices{series: universeSeries("")},
			&fakeVolatility{err: errors.New("index unavailable")},
			store,
		)

		result, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.RegimeRiskOff, result.Regime)
	})
}

func TestRunPartialPriceFailuresWarn(t *testing.T) {
	store := &memStore{}
	series := universeSeries("")
	delete(series, "GSG")
	r := newTestRunner(
		&fakePrices{series: series, failed: []string{"GSG"}},
		&fakeVolatility{reading: domain.VolatilityReading{Level: 12, FiveDayAvg: 11}},
		store,
	)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RegimeExtremeComplacency, result.Regime)

	found := 0
	for _, w := range result.Summary.Warnings {
		if w == "price history unavailable for GSG" || w == "no price history for GSG, skipped" {
			found++
		}
	}
	assert.Equal(t, 2, found)
}

func TestRunRepricesExistingPositions(t *testing.T) {
	store := &memStore{snapshot: &domain.Snapshot{
		AsOf:        time.Now().AddDate(0, 0, -1),
		TotalValue:  99000,
		CashBalance: 1000,
		Positions: map[string]domain.Position{
			"IVV": {Symbol: "IVV", Shares: 980, CostBasis: 95, CurrentPrice: 98, MarketValue: 96040},
		},
	}}
	r := newTestRunner(
		&fakePrices{series: universeSeries("")},
		&fakeVolatility{reading: domain.VolatilityReading{Level: 18, FiveDayAvg: 17}},
		store,
	)

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	pos := result.Snapshot.Positions["IVV"]
	assert.Equal(t, 100.0, pos.CurrentPrice) // repriced from today's close
	assert.Equal(t, 98000.0, pos.MarketValue)
	assert.Equal(t, 99000.0, result.Snapshot.TotalValue)
	assert.InDelta(t, 98000.0/99000.0, pos.Weight, 1e-9)
	assert.InDelta(t, pos.Weight, result.Snapshot.ByCategory[domain.CategoryCore], 1e-9)
}
