package portfolio

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holiuunc/etf-justification-engine/internal/config"
	"github.com/holiuunc/etf-justification-engine/internal/domain"
	"github.com/holiuunc/etf-justification-engine/internal/universe"
)

func testTradingConfig() config.TradingConfig {
	return config.TradingConfig{
		Commission:       10,
		MinTradeSize:     500,
		DriftTolerance:   0.05,
		InitiateMajor:    0.10,
		InitiateTactical: 0.05,
		AdjustStep:       0.03,
	}
}

func testLimitConfig() config.LimitConfig {
	return config.LimitConfig{
		SinglePositionMax:   0.30,
		SectorMax:           0.50,
		TacticalPositionMax: 0.30,
		CashOvernightMax:    0.05,
		CoreMin:             0.25,
		CoreMax:             0.40,
		EquityMin:           0.85,
		EquityMax:           1.00,
	}
}

func newTestEngine(trading config.TradingConfig) *Engine {
	return NewEngine(trading, testLimitConfig(), universe.Default(), zerolog.Nop())
}

func buildSnapshot(total, cash float64, holdings map[string]struct {
	shares int64
	price  float64
}) domain.Snapshot {
	positions := make(map[string]domain.Position, len(holdings))
	for sym, h := range holdings {
		mv := float64(h.shares) * h.price
		positions[sym] = domain.Position{
			Symbol:       sym,
			Shares:       h.shares,
			CurrentPrice: h.price,
			MarketValue:  mv,
			Weight:       mv / total,
		}
	}
	return domain.Snapshot{
		AsOf:        time.Now(),
		TotalValue:  total,
		CashBalance: cash,
		Positions:   positions,
	}
}

func newsEntry(symbol string, sentiment, relevance float64) domain.FocusEntry {
	news := domain.NewsAssessment{
		Symbol:       symbol,
		ArticleCount: 3,
		Sentiment:    sentiment,
		Relevance:    relevance,
		Headlines:    []string{"headline"},
		Summary:      "summary",
	}
	return domain.FocusEntry{
		Symbol:      symbol,
		Trigger:     domain.TriggerVolumeSpike,
		Magnitude:   1.5,
		Description: "volume 1.50x the 30-day average",
		Signal:      domain.Signal{Symbol: symbol, Return1D: 0.01, VolumeRatio: 1.5},
		News:        &news,
	}
}

func findRec(recs []domain.Recommendation, symbol string) *domain.Recommendation {
	for i := range recs {
		if recs[i].Symbol == symbol {
			return &recs[i]
		}
	}
	return nil
}

func TestRecommendSubMinimumTradeBecomesHold(t *testing.T) {
	trading := testTradingConfig()
	trading.AdjustStep = 0.01
	e := newTestEngine(trading)

	snap := buildSnapshot(10000, 400, map[string]struct {
		shares int64
		price  float64
	}{
		"IVV":  {40, 50},    // 20%
		"IEMG": {142, 50},   // 71%
		"AGG":  {5, 100},    // 5%
	})

	entry := newsEntry("IVV", 0.7, 0.8)
	recs := e.Recommend(Input{
		Snapshot:  snap,
		Regime:    domain.RegimeNormal,
		Split:     domain.MacroSplit{Equity: 0.95, FixedIncome: 0.05},
		FocusList: domain.FocusList{entry},
		Signals:   map[string]domain.Signal{"IVV": {Symbol: "IVV", CurrentPrice: 50}},
	})

	rec := findRec(recs, "IVV")
	require.NotNil(t, rec)
	// A two-share add is worth $100 against a $500 minimum.
	assert.Equal(t, int64(2), rec.Allocation.SharesToTrade)
	assert.Equal(t, domain.ActionHold, rec.Action)
	assert.Contains(t, rec.Note, "below the $500 minimum")
	assert.Zero(t, rec.Cost.TotalCost)
	assert.Zero(t, rec.Cost.Commission)
}

func TestRecommendInitiateWholeShares(t *testing.T) {
	e := newTestEngine(testTradingConfig())

	snap := buildSnapshot(100000, 1000, map[string]struct {
		shares int64
		price  float64
	}{
		"IVV": {188, 500}, // 94%
		"AGG": {50, 100},  // 5%
	})

	entry := newsEntry("IEMG", 0.8, 0.9)
	recs := e.Recommend(Input{
		Snapshot:  snap,
		Regime:    domain.RegimeNormal,
		Split:     domain.MacroSplit{Equity: 0.95, FixedIncome: 0.05},
		FocusList: domain.FocusList{entry},
		Signals:   map[string]domain.Signal{"IEMG": {Symbol: "IEMG", CurrentPrice: 333}},
	})

	rec := findRec(recs, "IEMG")
	require.NotNil(t, rec)
	assert.Equal(t, domain.ActionInitiate, rec.Action)
	// 10% of 100k at $333 floors to 30 whole shares, never 30.03.
	assert.Equal(t, int64(30), rec.Allocation.SharesTarget)
	assert.Equal(t, int64(30), rec.Allocation.SharesToTrade)
	assert.Equal(t, 9990.0, rec.Cost.GrossAmount)
	assert.Equal(t, 10000.0, rec.Cost.TotalCost)
	assert.Equal(t, domain.PriorityMedium, rec.Priority)
}

func TestRecommendRiskAssessmentCarriesWeights(t *testing.T) {
	e := newTestEngine(testTradingConfig())

	snap := buildSnapshot(100000, 7000, map[string]struct {
		shares int64
		price  float64
	}{
		"IVV": {120, 500}, // 60%, Broad Market
		"AGG": {330, 100}, // 33%, Fixed Income
	})

	t.Run("trade carries the sized target", func(t *testing.T) {
		recs := e.Recommend(Input{
			Snapshot:  snap,
			Regime:    domain.RegimeNormal,
			Split:     domain.MacroSplit{Equity: 0.62, FixedIncome: 0.33, CashEquivalent: 0.05},
			FocusList: domain.FocusList{newsEntry("IEMG", 0.8, 0.9)},
			Signals:   map[string]domain.Signal{"IEMG": {Symbol: "IEMG", CurrentPrice: 200}},
		})

		rec := findRec(recs, "IEMG")
		require.NotNil(t, rec)
		require.Equal(t, domain.ActionInitiate, rec.Action)

		risk := rec.Justification.RiskAssessment
		assert.Equal(t, "10.00%", risk["post_trade_weight"])
		// IEMG joins IVV in the broad market sector at its target weight.
		assert.Equal(t, "70.00%", risk["sector_concentration"])
		assert.Equal(t, "normal", risk["regime"])
		assert.Contains(t, risk, "category")
		assert.Contains(t, risk, "expense_ratio")
	})

	t.Run("hold carries the current weight", func(t *testing.T) {
		recs := e.Recommend(Input{
			Snapshot:  snap,
			Regime:    domain.RegimeNormal,
			Split:     domain.MacroSplit{Equity: 0.62, FixedIncome: 0.33, CashEquivalent: 0.05},
			FocusList: domain.FocusList{newsEntry("IVV", 0.1, 0.5)},
			Signals:   map[string]domain.Signal{"IVV": {Symbol: "IVV", CurrentPrice: 500}},
		})

		rec := findRec(recs, "IVV")
		require.NotNil(t, rec)
		require.Equal(t, domain.ActionHold, rec.Action)

		risk := rec.Justification.RiskAssessment
		assert.Equal(t, "60.00%", risk["post_trade_weight"])
		assert.Equal(t, "60.00%", risk["sector_concentration"])
	})
}

func TestRecommendViolationPromotesPriority(t *testing.T) {
	e := newTestEngine(testTradingConfig())

	// IVV sits above the 30% single-position cap; the trim that walks it
	// back down comes out high priority instead of medium.
	snap := buildSnapshot(100000, 2000, map[string]struct {
		shares int64
		price  float64
	}{
		"IVV":  {70, 500},  // 35%
		"IEMG": {1160, 50}, // 58%
		"AGG":  {50, 100},  // 5%
	})

	in := Input{
		Snapshot:  snap,
		Regime:    domain.RegimeNormal,
		Split:     domain.MacroSplit{Equity: 0.95, FixedIncome: 0.05},
		FocusList: domain.FocusList{newsEntry("IVV", -0.6, 0.8)},
		Signals:   map[string]domain.Signal{"IVV": {Symbol: "IVV", CurrentPrice: 500}},
	}

	recs := e.Recommend(in)
	rec := findRec(recs, "IVV")
	require.NotNil(t, rec)
	require.Equal(t, domain.ActionTrim, rec.Action)
	assert.Equal(t, domain.PriorityMedium, rec.Priority)

	in.Violations = []domain.LimitViolation{{
		Kind:     "single_position",
		Subject:  "IVV",
		Observed: 0.35,
		Limit:    0.30,
	}}
	recs = e.Recommend(in)
	rec = findRec(recs, "IVV")
	require.NotNil(t, rec)
	require.Equal(t, domain.ActionTrim, rec.Action)
	assert.Equal(t, domain.PriorityHigh, rec.Priority)

	// A violation naming a different symbol leaves IVV untouched.
	in.Violations = []domain.LimitViolation{{Kind: "single_position", Subject: "IEMG"}}
	recs = e.Recommend(in)
	rec = findRec(recs, "IVV")
	require.NotNil(t, rec)
	assert.Equal(t, domain.PriorityMedium, rec.Priority)
}

func TestRecommendNoNewsHolds(t *testing.T) {
	e := newTestEngine(testTradingConfig())
	snap := buildSnapshot(100000, 1000, map[string]struct {
		shares int64
		price  float64
	}{
		"IVV": {188, 500},
		"AGG": {50, 100},
	})

	entry := domain.FocusEntry{
		Symbol:    "TLT",
		Trigger:   domain.TriggerPriceMove,
		Magnitude: 1.4,
		Signal:    domain.Signal{Symbol: "TLT", CurrentPrice: 90},
	}
	empty := domain.EmptyNewsAssessment("TLT")
	entry.News = &empty

	recs := e.Recommend(Input{
		Snapshot:  snap,
		Regime:    domain.RegimeNormal,
		Split:     domain.MacroSplit{Equity: 0.95, FixedIncome: 0.05},
		FocusList: domain.FocusList{entry},
		Signals:   map[string]domain.Signal{"TLT": {Symbol: "TLT", CurrentPrice: 90}},
	})

	rec := findRec(recs, "TLT")
	require.NotNil(t, rec)
	assert.Equal(t, domain.ActionHold, rec.Action)
	assert.Equal(t, "no qualitative evidence to act on", rec.Note)
	assert.Equal(t, domain.PriorityLow, rec.Priority)
	assert.InDelta(t, 0.3, rec.Confidence, 1e-9)
	// Justification still present and complete for the audit trail.
	assert.NotEmpty(t, rec.Justification.Thesis)
	assert.NotEmpty(t, rec.Justification.Quantitative)
	assert.Empty(t, rec.Justification.Qualitative)
}

func TestRecommendRiskOffSuppressesNewRisk(t *testing.T) {
	e := newTestEngine(testTradingConfig())
	snap := buildSnapshot(100000, 1000, map[string]struct {
		shares int64
		price  float64
	}{
		"IVV": {120, 500}, // 60%
		"AGG": {200, 100}, // 20%
		"SGOV": {190, 100}, // 19%
	})

	t.Run("initiate demoted to hold", func(t *testing.T) {
		recs := e.Recommend(Input{
			Snapshot:  snap,
			Regime:    domain.RegimeRiskOff,
			Split:     domain.MacroSplit{Equity: 0.60, FixedIncome: 0.20, CashEquivalent: 0.20},
			FocusList: domain.FocusList{newsEntry("IEMG", 0.9, 0.9)},
			Signals:   map[string]domain.Signal{"IEMG": {Symbol: "IEMG", CurrentPrice: 50}},
		})
		rec := findRec(recs, "IEMG")
		require.NotNil(t, rec)
		assert.Equal(t, domain.ActionHold, rec.Action)
		assert.Contains(t, rec.Note, "risk_off")
	})

	t.Run("trim still allowed", func(t *testing.T) {
		recs := e.Recommend(Input{
			Snapshot:  snap,
			Regime:    domain.RegimeRiskOff,
			Split:     domain.MacroSplit{Equity: 0.60, FixedIncome: 0.20, CashEquivalent: 0.20},
			FocusList: domain.FocusList{newsEntry("IVV", -0.6, 0.8)},
			Signals:   map[string]domain.Signal{"IVV": {Symbol: "IVV", CurrentPrice: 500}},
		})
		rec := findRec(recs, "IVV")
		require.NotNil(t, rec)
		assert.Equal(t, domain.ActionTrim, rec.Action)
		assert.Equal(t, domain.PriorityHigh, rec.Priority)
		assert.Less(t, rec.Allocation.TargetWeight, rec.Allocation.CurrentWeight)
	})
}

func TestRecommendCautionSuppressesAdds(t *testing.T) {
	e := newTestEngine(testTradingConfig())
	snap := buildSnapshot(100000, 6000, map[string]struct {
		shares int64
		price  float64
	}{
		"IVV":  {40, 500},   // 20%, held so positive sentiment means ADD
		"IEMG": {1180, 50},  // 59%
		"AGG":  {150, 100},  // 15%
	})

	recs := e.Recommend(Input{
		Snapshot:  snap,
		Regime:    domain.RegimeCaution,
		Split:     domain.MacroSplit{Equity: 0.80, FixedIncome: 0.15, CashEquivalent: 0.05},
		FocusList: domain.FocusList{newsEntry("IVV", 0.8, 0.9)},
		Signals:   map[string]domain.Signal{"IVV": {Symbol: "IVV", CurrentPrice: 500}},
	})

	rec := findRec(recs, "IVV")
	require.NotNil(t, rec)
	assert.Equal(t, domain.ActionHold, rec.Action)
	assert.Contains(t, rec.Note, "caution")
}

func TestRecommendTargetWeightClampedToLimits(t *testing.T) {
	e := newTestEngine(testTradingConfig())

	inst, err := universe.Default().Get("ITA")
	require.NoError(t, err)

	snap := buildSnapshot(100000, 1000, map[string]struct {
		shares int64
		price  float64
	}{
		"ITA": {290, 100}, // 29%, one step from the tactical cap
	})

	target := e.targetWeight(snap, inst, domain.ActionAdd)
	assert.InDelta(t, 0.30, target, 1e-9)
}

func TestRebalanceRiskOffShift(t *testing.T) {
	e := newTestEngine(testTradingConfig())

	// All-equity book meeting a risk-off split: equity trims pro-rata,
	// fixed income and cash buckets buy their sink instruments.
	snap := buildSnapshot(100000, 2000, map[string]struct {
		shares int64
		price  float64
	}{
		"IVV":  {100, 500}, // 50%
		"IEMG": {1000, 48}, // 48%
	})

	recs := e.Recommend(Input{
		Snapshot: snap,
		Regime:   domain.RegimeRiskOff,
		Split:    domain.MacroSplit{Equity: 0.60, FixedIncome: 0.20, CashEquivalent: 0.20},
		Signals: map[string]domain.Signal{
			"IVV":  {Symbol: "IVV", CurrentPrice: 500},
			"IEMG": {Symbol: "IEMG", CurrentPrice: 48},
			"AGG":  {Symbol: "AGG", CurrentPrice: 100},
			"SGOV": {Symbol: "SGOV", CurrentPrice: 100},
		},
	})

	require.Len(t, recs, 4)
	// Rebalance output is sorted by symbol for determinism.
	assert.Equal(t, "AGG", recs[0].Symbol)
	assert.Equal(t, domain.ActionBuy, recs[0].Action)
	assert.Equal(t, int64(200), recs[0].Allocation.SharesToTrade)

	ivv := findRec(recs, "IVV")
	require.NotNil(t, ivv)
	assert.Equal(t, domain.ActionSell, ivv.Action)
	assert.Negative(t, ivv.Allocation.SharesToTrade)

	iemg := findRec(recs, "IEMG")
	require.NotNil(t, iemg)
	assert.Equal(t, domain.ActionSell, iemg.Action)

	sgov := findRec(recs, "SGOV")
	require.NotNil(t, sgov)
	assert.Equal(t, domain.ActionBuy, sgov.Action)
	// Cash bucket already holds 2% as uninvested cash.
	assert.Equal(t, int64(180), sgov.Allocation.SharesToTrade)

	for _, rec := range recs {
		assert.Equal(t, domain.PriorityHigh, rec.Priority, rec.Symbol)
		assert.NotEmpty(t, rec.Justification.Thesis)
	}
}

func TestRebalanceBalancedBookIsIdempotent(t *testing.T) {
	e := newTestEngine(testTradingConfig())

	snap := buildSnapshot(100000, 1000, map[string]struct {
		shares int64
		price  float64
	}{
		"IVV":  {120, 500}, // 60%
		"IEMG": {700, 50},  // 35%
		"AGG":  {40, 100},  // 4%
	})

	recs := e.Recommend(Input{
		Snapshot: snap,
		Regime:   domain.RegimeNormal,
		Split:    domain.MacroSplit{Equity: 0.95, FixedIncome: 0.05},
		Signals: map[string]domain.Signal{
			"IVV": {Symbol: "IVV", CurrentPrice: 500},
			"AGG": {Symbol: "AGG", CurrentPrice: 100},
		},
	})

	assert.Empty(t, recs)
}

func TestRebalanceSkipsFocusCoveredSink(t *testing.T) {
	e := newTestEngine(testTradingConfig())

	snap := buildSnapshot(100000, 2000, map[string]struct {
		shares int64
		price  float64
	}{
		"IVV":  {100, 500}, // 50%
		"IEMG": {960, 50},  // 48%
	})

	// AGG is on the focus list, so the fixed income rebalance buy must not
	// emit a second AGG recommendation.
	recs := e.Recommend(Input{
		Snapshot:  snap,
		Regime:    domain.RegimeCaution,
		Split:     domain.MacroSplit{Equity: 0.80, FixedIncome: 0.15, CashEquivalent: 0.05},
		FocusList: domain.FocusList{newsEntry("AGG", 0.1, 0.5)},
		Signals: map[string]domain.Signal{
			"AGG":  {Symbol: "AGG", CurrentPrice: 100},
			"IVV":  {Symbol: "IVV", CurrentPrice: 500},
			"IEMG": {Symbol: "IEMG", CurrentPrice: 50},
			"SGOV": {Symbol: "SGOV", CurrentPrice: 100},
		},
	})

	count := 0
	for _, rec := range recs {
		if rec.Symbol == "AGG" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestConfidenceBounds(t *testing.T) {
	e := newTestEngine(testTradingConfig())

	t.Run("never reaches certainty", func(t *testing.T) {
		entry := newsEntry("IVV", 1.0, 1.0)
		entry.Magnitude = 5
		conf := e.confidence(entry, domain.ActionAdd)
		assert.LessOrEqual(t, conf, 0.95)
		assert.Greater(t, conf, 0.5)
	})

	t.Run("disagreement caps at one half", func(t *testing.T) {
		entry := newsEntry("IVV", 0.9, 1.0)
		entry.Signal.Return1D = -0.02 // price falling against bullish news
		conf := e.confidence(entry, domain.ActionAdd)
		assert.LessOrEqual(t, conf, 0.5)
	})

	t.Run("no news hold is low conviction", func(t *testing.T) {
		entry := domain.FocusEntry{Symbol: "IVV", Magnitude: 1.8}
		conf := e.confidence(entry, domain.ActionHold)
		assert.InDelta(t, 0.3, conf, 1e-9)
	})
}
