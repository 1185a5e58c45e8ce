// Package portfolio turns the day's evidence into whole-share trade
// recommendations with structured justifications.
package portfolio

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/holiuunc/etf-justification-engine/internal/config"
	"github.com/holiuunc/etf-justification-engine/internal/domain"
	"github.com/holiuunc/etf-justification-engine/internal/universe"
)

// Sentiment thresholds for conviction-driven actions.
const (
	sentimentBuyAbove  = 0.5
	sentimentSellBelow = -0.3
)

// Engine produces the per-symbol recommendations for a run. It never
// executes anything; applying a recommendation is a separate, explicit step.
type Engine struct {
	trading config.TradingConfig
	limits  config.LimitConfig
	catalog *universe.Catalog
	log     zerolog.Logger
}

// NewEngine creates a recommendation engine.
func NewEngine(trading config.TradingConfig, limits config.LimitConfig, catalog *universe.Catalog, log zerolog.Logger) *Engine {
	return &Engine{
		trading: trading,
		limits:  limits,
		catalog: catalog,
		log:     log.With().Str("module", "portfolio").Logger(),
	}
}

// Input is everything the engine needs for one recommendation pass.
// Violations are the advisory limit findings for the snapshot; symbols they
// name are promoted to high priority.
type Input struct {
	Snapshot   domain.Snapshot
	Regime     domain.Regime
	Split      domain.MacroSplit
	FocusList  domain.FocusList
	Signals    map[string]domain.Signal
	Violations []domain.LimitViolation
}

// Recommend returns one recommendation per focus entry, followed by any
// macro rebalancing trades the regime split demands. Focus entries always
// produce a recommendation, HOLDs included, so the day's reasoning is
// auditable even when nothing trades.
func (e *Engine) Recommend(in Input) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(in.FocusList))
	covered := make(map[string]bool, len(in.FocusList))

	for _, entry := range in.FocusList {
		rec := e.recommendFocus(in, entry)
		recs = append(recs, rec)
		covered[entry.Symbol] = true
	}

	recs = append(recs, e.rebalance(in, covered)...)

	e.log.Info().
		Int("recommendations", len(recs)).
		Str("regime", string(in.Regime)).
		Msg("Recommendation pass complete")
	return recs
}

func (e *Engine) recommendFocus(in Input, entry domain.FocusEntry) domain.Recommendation {
	sym := entry.Symbol
	inst, err := e.catalog.Get(sym)
	if err != nil {
		inst = domain.Instrument{Symbol: sym, Name: sym}
	}
	price := e.priceFor(in, sym)
	held := in.Snapshot.Weight(sym) > 0

	action, note := e.determineAction(entry, held, in.Regime)
	target := e.targetWeight(in.Snapshot, inst, action)

	detail := sizeTrade(in.Snapshot, sym, price, target)
	if action.IsTrade() {
		if tooSmall, reason := belowMinimum(detail, price, e.trading.MinTradeSize); tooSmall {
			note = reason
			action = domain.ActionHold
		}
	}

	// A HOLD leaves the position where it is, whatever was sized.
	postTrade := detail.TargetWeight
	if !action.IsTrade() {
		postTrade = detail.CurrentWeight
	}

	return domain.Recommendation{
		Symbol:        sym,
		Action:        action,
		Priority:      e.priority(action, in.Regime, breachesLimit(in.Violations, inst)),
		Confidence:    e.confidence(entry, action),
		Allocation:    detail,
		Cost:          tradeCost(action, detail, price, e.trading.Commission),
		Justification: buildJustification(entry, inst, action, in.Regime, postTrade, e.postTradeSectorWeight(in.Snapshot, inst, postTrade)),
		Note:          note,
	}
}

// determineAction combines qualitative conviction with the risk posture.
// Without news evidence there is no conviction and the entry holds. The
// regime can demote risk-adding actions but never a reduction.
func (e *Engine) determineAction(entry domain.FocusEntry, held bool, regime domain.Regime) (domain.Action, string) {
	if entry.News == nil || entry.News.IsEmpty() {
		return domain.ActionHold, "no qualitative evidence to act on"
	}

	var action domain.Action
	switch {
	case entry.News.Sentiment > sentimentBuyAbove && held:
		action = domain.ActionAdd
	case entry.News.Sentiment > sentimentBuyAbove:
		action = domain.ActionInitiate
	case entry.News.Sentiment < sentimentSellBelow && held:
		action = domain.ActionTrim
	default:
		return domain.ActionHold, ""
	}

	switch regime {
	case domain.RegimeRiskOff:
		if action == domain.ActionInitiate || action == domain.ActionAdd {
			return domain.ActionHold, "new risk suppressed in the risk_off regime"
		}
	case domain.RegimeCaution:
		if action == domain.ActionAdd {
			return domain.ActionHold, "position additions suppressed in the caution regime"
		}
	}
	return action, ""
}

// targetWeight derives the post-trade weight for a focus action, clamped to
// the position limits so a recommendation never proposes breaching them.
func (e *Engine) targetWeight(snap domain.Snapshot, inst domain.Instrument, action domain.Action) float64 {
	current := snap.Weight(inst.Symbol)

	var target float64
	switch action {
	case domain.ActionInitiate:
		if inst.Category == domain.CategoryTacticalSatellite || inst.Category == domain.CategoryHedge {
			target = e.trading.InitiateTactical
		} else {
			target = e.trading.InitiateMajor
		}
	case domain.ActionAdd:
		target = current + e.trading.AdjustStep
	case domain.ActionTrim:
		target = current - e.trading.AdjustStep
		if target < 0 {
			target = 0
		}
	default:
		return current
	}

	limit := e.limits.SinglePositionMax
	if inst.Category == domain.CategoryTacticalSatellite && e.limits.TacticalPositionMax < limit {
		limit = e.limits.TacticalPositionMax
	}
	if target > limit {
		target = limit
	}
	return target
}

// rebalance compares the macro bucket weights against the regime split and
// proposes trades for buckets drifted past tolerance. Symbols already
// covered by a focus recommendation are left alone. Uninvested cash counts
// toward the cash bucket; its trades go through the cash-equivalent
// instrument.
func (e *Engine) rebalance(in Input, covered map[string]bool) []domain.Recommendation {
	current := e.bucketWeights(in.Snapshot)
	targets := map[string]float64{
		"equity":          in.Split.Equity,
		"fixed_income":    in.Split.FixedIncome,
		"cash_equivalent": in.Split.CashEquivalent,
	}

	var recs []domain.Recommendation
	for _, bucket := range []string{"equity", "fixed_income", "cash_equivalent"} {
		drift := current[bucket] - targets[bucket]
		if math.Abs(drift) <= e.trading.DriftTolerance {
			continue
		}

		if drift < 0 {
			if rec, ok := e.rebalanceBuy(in, bucket, current[bucket], targets[bucket], covered); ok {
				recs = append(recs, rec)
			}
			continue
		}
		recs = append(recs, e.rebalanceSells(in, bucket, current[bucket], targets[bucket], drift, covered)...)
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].Symbol < recs[j].Symbol })
	return recs
}

func (e *Engine) rebalanceBuy(in Input, bucket string, current, target float64, covered map[string]bool) (domain.Recommendation, bool) {
	sink := universe.BucketSink(bucket)
	if covered[sink] {
		e.log.Debug().Str("bucket", bucket).Str("sink", sink).Msg("Rebalance sink already covered by focus recommendation")
		return domain.Recommendation{}, false
	}
	price := e.priceFor(in, sink)
	if price <= 0 {
		e.log.Warn().Str("symbol", sink).Msg("No price for rebalance sink, skipping")
		return domain.Recommendation{}, false
	}

	targetSinkWeight := in.Snapshot.Weight(sink) + (target - current)
	detail := sizeTrade(in.Snapshot, sink, price, targetSinkWeight)
	if tooSmall, _ := belowMinimum(detail, price, e.trading.MinTradeSize); tooSmall {
		return domain.Recommendation{}, false
	}

	inst, err := e.catalog.Get(sink)
	if err != nil {
		inst = domain.Instrument{Symbol: sink, Name: sink}
	}
	priority := e.rebalancePriority(target - current)
	if breachesLimit(in.Violations, inst) {
		priority = domain.PriorityHigh
	}

	return domain.Recommendation{
		Symbol:        sink,
		Action:        domain.ActionBuy,
		Priority:      priority,
		Confidence:    0.8,
		Allocation:    detail,
		Cost:          tradeCost(domain.ActionBuy, detail, price, e.trading.Commission),
		Justification: rebalanceJustification(bucket, current, target, in.Regime, detail.TargetWeight, e.postTradeSectorWeight(in.Snapshot, inst, detail.TargetWeight)),
	}, true
}

// rebalanceSells trims an overweight bucket pro-rata across its holdings.
func (e *Engine) rebalanceSells(in Input, bucket string, current, target, drift float64, covered map[string]bool) []domain.Recommendation {
	type holding struct {
		symbol string
		weight float64
	}
	var holdings []holding
	var bucketHeld float64
	for sym, pos := range in.Snapshot.Positions {
		if pos.Shares <= 0 || covered[sym] {
			continue
		}
		inst, err := e.catalog.Get(sym)
		if err != nil || universe.MacroBucket(inst) != bucket {
			continue
		}
		holdings = append(holdings, holding{symbol: sym, weight: pos.Weight})
		bucketHeld += pos.Weight
	}
	if bucketHeld <= 0 {
		return nil
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].symbol < holdings[j].symbol })

	var recs []domain.Recommendation
	for _, h := range holdings {
		trimBy := drift * h.weight / bucketHeld
		price := e.priceFor(in, h.symbol)
		if price <= 0 {
			continue
		}
		detail := sizeTrade(in.Snapshot, h.symbol, price, h.weight-trimBy)
		if tooSmall, _ := belowMinimum(detail, price, e.trading.MinTradeSize); tooSmall {
			continue
		}
		inst, err := e.catalog.Get(h.symbol)
		if err != nil {
			inst = domain.Instrument{Symbol: h.symbol, Name: h.symbol}
		}
		priority := e.rebalancePriority(drift)
		if breachesLimit(in.Violations, inst) {
			priority = domain.PriorityHigh
		}
		recs = append(recs, domain.Recommendation{
			Symbol:        h.symbol,
			Action:        domain.ActionSell,
			Priority:      priority,
			Confidence:    0.8,
			Allocation:    detail,
			Cost:          tradeCost(domain.ActionSell, detail, price, e.trading.Commission),
			Justification: rebalanceJustification(bucket, current, target, in.Regime, detail.TargetWeight, e.postTradeSectorWeight(in.Snapshot, inst, detail.TargetWeight)),
		})
	}
	return recs
}

// bucketWeights sums position weights into macro buckets. Uninvested cash
// counts as cash equivalent.
func (e *Engine) bucketWeights(snap domain.Snapshot) map[string]float64 {
	weights := map[string]float64{
		"equity":          0,
		"fixed_income":    0,
		"cash_equivalent": snap.CashFraction(),
	}
	for sym, pos := range snap.Positions {
		if pos.Shares <= 0 {
			continue
		}
		inst, err := e.catalog.Get(sym)
		if err != nil {
			continue
		}
		weights[universe.MacroBucket(inst)] += pos.Weight
	}
	return weights
}

func (e *Engine) priceFor(in Input, symbol string) float64 {
	if sig, ok := in.Signals[symbol]; ok && sig.CurrentPrice > 0 {
		return sig.CurrentPrice
	}
	if pos, ok := in.Snapshot.Positions[symbol]; ok {
		return pos.CurrentPrice
	}
	return 0
}

// confidence scores a focus recommendation from the trigger strength and
// the news evidence. Quantitative and qualitative evidence pointing in
// opposite directions caps confidence at 0.5; nothing ever reaches 1.0.
func (e *Engine) confidence(entry domain.FocusEntry, action domain.Action) float64 {
	mag := entry.Magnitude
	if mag > 2 {
		mag = 2
	}
	conf := 0.5
	if mag > 1 {
		conf += 0.1 * (mag - 1)
	}

	if entry.News != nil && !entry.News.IsEmpty() {
		conf += 0.3 * math.Abs(entry.News.Sentiment) * entry.News.Relevance

		quantDirection := entry.Signal.Return1D
		disagree := (quantDirection > 0 && entry.News.Sentiment < sentimentSellBelow) ||
			(quantDirection < 0 && entry.News.Sentiment > sentimentBuyAbove)
		if disagree && conf > 0.5 {
			conf = 0.5
		}
	} else if action == domain.ActionHold {
		conf = 0.3
	}

	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

// priority ranks a focus recommendation. A symbol named by a limit
// violation is high priority regardless of action.
func (e *Engine) priority(action domain.Action, regime domain.Regime, breached bool) domain.Priority {
	if breached {
		return domain.PriorityHigh
	}
	switch action {
	case domain.ActionTrim, domain.ActionSell:
		if regime == domain.RegimeRiskOff {
			return domain.PriorityHigh
		}
		return domain.PriorityMedium
	case domain.ActionInitiate, domain.ActionAdd, domain.ActionBuy:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// breachesLimit reports whether a violation names the instrument directly
// or the sector it belongs to.
func breachesLimit(violations []domain.LimitViolation, inst domain.Instrument) bool {
	for _, v := range violations {
		switch v.Kind {
		case "single_position", "tactical_position":
			if v.Subject == inst.Symbol {
				return true
			}
		case "sector":
			if v.Subject == inst.Sector {
				return true
			}
		}
	}
	return false
}

// postTradeSectorWeight is the instrument's sector weight with this
// position moved to its proposed post-trade weight.
func (e *Engine) postTradeSectorWeight(snap domain.Snapshot, inst domain.Instrument, target float64) float64 {
	total := target
	for sym, pos := range snap.Positions {
		if sym == inst.Symbol || pos.Shares <= 0 {
			continue
		}
		other, err := e.catalog.Get(sym)
		if err != nil || other.Sector != inst.Sector {
			continue
		}
		total += pos.Weight
	}
	return total
}

func (e *Engine) rebalancePriority(drift float64) domain.Priority {
	if math.Abs(drift) > 2*e.trading.DriftTolerance {
		return domain.PriorityHigh
	}
	return domain.PriorityMedium
}

// Describe summarizes a recommendation for logs and the transaction journal.
func Describe(rec domain.Recommendation) string {
	if !rec.Action.IsTrade() || rec.Allocation.SharesToTrade == 0 {
		return fmt.Sprintf("%s HOLD", rec.Symbol)
	}
	return fmt.Sprintf("%s %s %d shares at %.2f", rec.Symbol, rec.Action, abs64(rec.Allocation.SharesToTrade), rec.Cost.Price)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
