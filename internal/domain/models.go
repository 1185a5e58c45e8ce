// Package domain provides core domain models and types.
package domain

import "time"

// Category classifies an instrument's role in the core-satellite structure.
type Category string

const (
	CategoryCore              Category = "Core"
	CategoryMajorSatellite    Category = "Major Satellite"
	CategoryTacticalSatellite Category = "Tactical Satellite"
	CategoryHedge             Category = "Hedging"
)

// AssetClass classifies an instrument's asset class.
type AssetClass string

const (
	AssetClassEquity         AssetClass = "Equity"
	AssetClassFixedIncome    AssetClass = "Fixed Income"
	AssetClassCommodities    AssetClass = "Commodities"
	AssetClassCashEquivalent AssetClass = "Cash Equivalent"
)

// Instrument is immutable reference data for one tradable symbol.
type Instrument struct {
	Symbol       string     `json:"symbol"`
	Name         string     `json:"name"`
	Category     Category   `json:"category"`
	Sector       string     `json:"sector"`
	Geography    string     `json:"geography"`
	AssetClass   AssetClass `json:"asset_class"`
	ExpenseRatio float64    `json:"expense_ratio"`
}

// Bar is one daily OHLCV record.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is an ordered (oldest first) sequence of daily bars for one symbol.
type PriceSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Closes returns the closing prices in bar order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// LastClose returns the most recent closing price, or 0 for an empty series.
func (s PriceSeries) LastClose() float64 {
	if len(s.Bars) == 0 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Close
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.Bars) }

// TriggerKind identifies which scan trigger flagged an instrument.
type TriggerKind string

const (
	TriggerVolumeSpike       TriggerKind = "volume_spike"
	TriggerPriceMove         TriggerKind = "price_move"
	TriggerMomentumCrossover TriggerKind = "momentum_crossover"
	TriggerRSIExtreme        TriggerKind = "rsi_extreme"
)

// Signal holds the per-instrument derived facts produced by the radar scan.
// Pointer fields are nil when the history is too short for the indicator.
type Signal struct {
	Symbol            string   `json:"symbol"`
	CurrentPrice      float64  `json:"current_price"`
	Return1D          float64  `json:"return_1d"`
	Return5D          *float64 `json:"return_5d,omitempty"`
	High52W           *float64 `json:"high_52w,omitempty"`
	Low52W            *float64 `json:"low_52w,omitempty"`
	VolumeToday       int64    `json:"volume_today"`
	Volume30DAvg      float64  `json:"volume_30d_avg"`
	VolumeRatio       float64  `json:"volume_ratio"`
	SMA20             *float64 `json:"sma_20,omitempty"`
	SMA50             *float64 `json:"sma_50,omitempty"`
	SMA200            *float64 `json:"sma_200,omitempty"`
	RSI14             *float64 `json:"rsi_14,omitempty"`
	MACD              *float64 `json:"macd,omitempty"`
	MACDState         string   `json:"macd_state,omitempty"`
	BollingerUpper    *float64 `json:"bollinger_upper,omitempty"`
	BollingerLower    *float64 `json:"bollinger_lower,omitempty"`
	BollingerPosition string   `json:"bollinger_position,omitempty"`
}

// NewsAssessment is the qualitative evidence attached to a focus list entry.
// ArticleCount 0 with zero scores is a valid "no evidence available" value.
type NewsAssessment struct {
	Symbol       string   `json:"symbol"`
	ArticleCount int      `json:"news_count"`
	Sentiment    float64  `json:"sentiment"` // [-1, 1]
	Relevance    float64  `json:"relevance"` // [0, 1]
	Headlines    []string `json:"headlines"`
	Summary      string   `json:"summary"`
	Themes       []string `json:"themes"`
	Risks        []string `json:"risks"`
}

// EmptyNewsAssessment returns the canonical "no qualitative evidence" value.
func EmptyNewsAssessment(symbol string) NewsAssessment {
	return NewsAssessment{
		Symbol:    symbol,
		Headlines: []string{},
		Themes:    []string{},
		Risks:     []string{},
	}
}

// IsEmpty reports whether the assessment carries no qualitative evidence.
func (n NewsAssessment) IsEmpty() bool {
	return n.ArticleCount == 0 && n.Sentiment == 0 && n.Relevance == 0
}

// FocusEntry is one instrument flagged for deep analysis.
type FocusEntry struct {
	Symbol      string          `json:"symbol"`
	Trigger     TriggerKind     `json:"trigger"`
	Magnitude   float64         `json:"magnitude"`
	Description string          `json:"description"`
	Signal      Signal          `json:"signal"`
	News        *NewsAssessment `json:"news,omitempty"`
}

// FocusList is the bounded, magnitude-ordered set of flagged instruments.
type FocusList []FocusEntry

// Symbols returns the entry symbols in list order.
func (f FocusList) Symbols() []string {
	out := make([]string, len(f))
	for i, e := range f {
		out[i] = e.Symbol
	}
	return out
}

// Position is one holding in the portfolio. Weight is derived from the
// snapshot total and recomputed every run, never stored independently.
type Position struct {
	Symbol       string  `json:"symbol"`
	Shares       int64   `json:"shares"`
	CostBasis    float64 `json:"cost_basis"`
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
	Weight       float64 `json:"weight"`
}

// Snapshot is the immutable portfolio state a run operates on.
type Snapshot struct {
	AsOf        time.Time            `json:"as_of"`
	TotalValue  float64              `json:"total_value"`
	CashBalance float64              `json:"cash_balance"`
	Positions   map[string]Position  `json:"positions"`
	ByCategory  map[Category]float64 `json:"by_category"`
	BySector    map[string]float64   `json:"by_sector"`
	ByGeography map[string]float64   `json:"by_geography"`
}

// CashFraction returns the cash balance as a fraction of total value.
func (s Snapshot) CashFraction() float64 {
	if s.TotalValue <= 0 {
		return 0
	}
	return s.CashBalance / s.TotalValue
}

// Weight returns the current weight of a symbol, 0 when not held.
func (s Snapshot) Weight(symbol string) float64 {
	if p, ok := s.Positions[symbol]; ok {
		return p.Weight
	}
	return 0
}

// Regime is a discrete risk posture classification.
type Regime string

const (
	RegimeExtremeComplacency Regime = "extreme_complacency"
	RegimeNormal             Regime = "normal"
	RegimeCaution            Regime = "caution"
	RegimeRiskOff            Regime = "risk_off"
)

// MacroSplit is a target allocation across the three macro buckets.
type MacroSplit struct {
	Equity         float64 `json:"equity"`
	FixedIncome    float64 `json:"fixed_income"`
	CashEquivalent float64 `json:"cash_equivalent"`
}

// Sum returns the total of the three buckets.
func (m MacroSplit) Sum() float64 {
	return m.Equity + m.FixedIncome + m.CashEquivalent
}

// LimitViolation is an advisory finding from the position limit checks.
type LimitViolation struct {
	Kind     string  `json:"kind"`    // single_position, sector, cash, core, equity
	Subject  string  `json:"subject"` // symbol or sector name
	Observed float64 `json:"observed"`
	Limit    float64 `json:"limit"`
	Message  string  `json:"message"`
}

// Action is a discrete trade action.
type Action string

const (
	ActionBuy      Action = "BUY"
	ActionSell     Action = "SELL"
	ActionHold     Action = "HOLD"
	ActionInitiate Action = "INITIATE"
	ActionTrim     Action = "TRIM"
	ActionAdd      Action = "ADD"
)

// IsTrade reports whether the action moves shares.
func (a Action) IsTrade() bool { return a != ActionHold }

// Priority ranks a recommendation for execution.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// AllocationDetail describes the weight and share change a recommendation proposes.
type AllocationDetail struct {
	CurrentWeight float64 `json:"current_weight"`
	TargetWeight  float64 `json:"target_weight"`
	WeightChange  float64 `json:"weight_change"`
	SharesCurrent int64   `json:"shares_current"`
	SharesTarget  int64   `json:"shares_target"`
	SharesToTrade int64   `json:"shares_to_trade"`
}

// TradeCost estimates execution cost for a recommendation. Commission is a
// fixed amount charged once per non-HOLD trade regardless of share count.
type TradeCost struct {
	Price       float64 `json:"price"`
	GrossAmount float64 `json:"gross_amount"`
	Commission  float64 `json:"commission"`
	TotalCost   float64 `json:"total_cost"`
}

// Justification is the structured, auditable reasoning behind a recommendation.
type Justification struct {
	Thesis         string            `json:"thesis"`
	Quantitative   map[string]string `json:"quantitative_evidence"`
	Qualitative    map[string]string `json:"qualitative_evidence,omitempty"`
	RiskAssessment map[string]string `json:"risk_assessment"`
	HoldingPeriod  string            `json:"holding_period"`
	ReviewTriggers []string          `json:"review_triggers"`
}

// Recommendation is one immutable per-symbol decision for the day.
type Recommendation struct {
	Symbol        string           `json:"symbol"`
	Action        Action           `json:"action"`
	Priority      Priority         `json:"priority"`
	Confidence    float64          `json:"confidence"`
	Allocation    AllocationDetail `json:"allocation"`
	Cost          TradeCost        `json:"cost"`
	Justification Justification    `json:"justification"`
	Note          string           `json:"note,omitempty"`
}

// MarketOverview summarizes the market-wide inputs of a run.
type MarketOverview struct {
	VolatilityLevel     float64 `json:"volatility_level"`
	Volatility5DAvg     float64 `json:"volatility_5d_avg"`
	VolatilityChangePct float64 `json:"volatility_change_pct"`
	BenchmarkReturn1D   float64 `json:"benchmark_return_1d"`
	BenchmarkReturn5D   float64 `json:"benchmark_return_5d"`
}

// ExecutionSummary records adapter usage and degradations for one run.
type ExecutionSummary struct {
	APICallsMade map[string]int `json:"api_calls_made"`
	Errors       []string       `json:"errors"`
	Warnings     []string       `json:"warnings"`
}

// RunResult is the complete output contract of one daily run.
type RunResult struct {
	ID              string           `json:"id"`
	Date            string           `json:"date"`
	StartedAt       time.Time        `json:"started_at"`
	DurationSeconds float64          `json:"duration_seconds"`
	Regime          Regime           `json:"regime"`
	RegimeSplit     MacroSplit       `json:"regime_split"`
	Overview        MarketOverview   `json:"market_overview"`
	FocusList       FocusList        `json:"focus_list"`
	Violations      []LimitViolation `json:"limit_violations"`
	Recommendations []Recommendation `json:"recommendations"`
	Snapshot        Snapshot         `json:"portfolio_snapshot"`
	Summary         ExecutionSummary `json:"execution_summary"`
}

// Article is one news item returned by the news adapter.
type Article struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	PublishedAt time.Time `json:"published_at"`
}

// SummaryResult is the structured output of the summarizer adapter.
type SummaryResult struct {
	Summary   string   `json:"summary"`
	Sentiment float64  `json:"sentiment_score"`
	Relevance float64  `json:"relevance_score"`
	Themes    []string `json:"key_themes"`
	Risks     []string `json:"risk_factors"`
}

// Transaction is one record in the append-only execution journal.
type Transaction struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"`
	Symbol     string    `json:"symbol"`
	Action     Action    `json:"action"`
	Shares     int64     `json:"shares"`
	Price      float64   `json:"price"`
	Commission float64   `json:"commission"`
	TotalCost  float64   `json:"total_cost"`
	Thesis     string    `json:"thesis"`
	CreatedAt  time.Time `json:"created_at"`
}
