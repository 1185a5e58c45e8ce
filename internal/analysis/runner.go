// Package analysis orchestrates the daily run: price refresh, regime
// classification, radar scan, enrichment, limit checks, and the
// recommendation pass, producing one immutable run result.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/holiuunc/etf-justification-engine/internal/config"
	"github.com/holiuunc/etf-justification-engine/internal/domain"
	"github.com/holiuunc/etf-justification-engine/internal/portfolio"
	"github.com/holiuunc/etf-justification-engine/internal/radar"
	"github.com/holiuunc/etf-justification-engine/internal/regime"
	"github.com/holiuunc/etf-justification-engine/internal/scalpel"
	"github.com/holiuunc/etf-justification-engine/internal/universe"
)

// Store persists run results and portfolio snapshots.
type Store interface {
	LatestSnapshot() (*domain.Snapshot, error)
	LatestRun() (*domain.RunResult, error)
	SaveRun(result *domain.RunResult) error
}

// Runner executes the full analysis pipeline.
type Runner struct {
	cfg        *config.Config
	catalog    *universe.Catalog
	prices     domain.PriceAdapter
	volatility domain.VolatilityAdapter
	scanner    *radar.Scanner
	classifier *regime.Classifier
	limits     *regime.LimitChecker
	diver      *scalpel.Diver
	engine     *portfolio.Engine
	store      Store
	log        zerolog.Logger
}

// NewRunner wires the pipeline stages together.
func NewRunner(
	cfg *config.Config,
	catalog *universe.Catalog,
	prices domain.PriceAdapter,
	volatility domain.VolatilityAdapter,
	news domain.NewsAdapter,
	summarizer domain.Summarizer,
	store Store,
	log zerolog.Logger,
) *Runner {
	return &Runner{
		cfg:        cfg,
		catalog:    catalog,
		prices:     prices,
		volatility: volatility,
		scanner:    radar.NewScanner(cfg.Triggers, cfg.Technical, log),
		classifier: regime.NewClassifier(cfg.Regime, log),
		limits:     regime.NewLimitChecker(cfg.Limits, catalog),
		diver:      scalpel.NewDiver(cfg.Scalpel, news, summarizer, log),
		engine:     portfolio.NewEngine(cfg.Trading, cfg.Limits, catalog, log),
		store:      store,
		log:        log.With().Str("module", "analysis").Logger(),
	}
}

// Run executes one complete analysis pass and persists the result. A total
// price feed failure aborts the run; every other upstream failure degrades
// and is recorded in the execution summary.
func (r *Runner) Run(ctx context.Context) (*domain.RunResult, error) {
	started := time.Now()
	result := &domain.RunResult{
		ID:        uuid.NewString(),
		Date:      started.Format("2006-01-02"),
		StartedAt: started,
		Summary: domain.ExecutionSummary{
			APICallsMade: map[string]int{"prices": 0, "volatility": 0, "news": 0, "llm": 0},
		},
	}
	r.log.Info().Str("run_id", result.ID).Msg("Starting analysis run")

	snap, err := r.loadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio snapshot: %w", err)
	}

	// Price history is the foundation of every later stage.
	series, failed, err := r.prices.History(ctx, r.catalog.Symbols(), r.cfg.Triggers.HistoryDays)
	result.Summary.APICallsMade["prices"]++
	if err != nil {
		return nil, fmt.Errorf("price history fetch failed: %w", err)
	}
	for _, sym := range failed {
		result.Summary.Warnings = append(result.Summary.Warnings, fmt.Sprintf("price history unavailable for %s", sym))
	}

	r.classifyRegime(ctx, result)

	scan := r.scanner.Scan(r.catalog, series)
	result.Summary.Warnings = append(result.Summary.Warnings, scan.Warnings...)

	enriched := r.diver.Enrich(ctx, r.catalog, scan.FocusList)
	result.FocusList = enriched.FocusList
	result.Summary.APICallsMade["news"] += enriched.NewsCalls
	result.Summary.APICallsMade["llm"] += enriched.LLMCalls
	result.Summary.Warnings = append(result.Summary.Warnings, enriched.Warnings...)

	snap = refreshSnapshot(snap, scan.Signals, r.catalog)
	result.Snapshot = snap
	result.Violations = r.limits.Check(snap)

	split, err := r.classifier.TargetSplit(result.Regime)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve macro split: %w", err)
	}
	result.RegimeSplit = split

	result.Recommendations = r.engine.Recommend(portfolio.Input{
		Snapshot:   snap,
		Regime:     result.Regime,
		Split:      split,
		FocusList:  result.FocusList,
		Signals:    scan.Signals,
		Violations: result.Violations,
	})

	result.DurationSeconds = time.Since(started).Seconds()
	if err := r.store.SaveRun(result); err != nil {
		return nil, fmt.Errorf("failed to persist run result: %w", err)
	}

	r.log.Info().
		Str("run_id", result.ID).
		Str("regime", string(result.Regime)).
		Int("focus", len(result.FocusList)).
		Int("recommendations", len(result.Recommendations)).
		Float64("duration_s", result.DurationSeconds).
		Msg("Analysis run complete")
	return result, nil
}

// classifyRegime reads the volatility index and classifies the risk
// posture. On feed failure the run degrades to the previous run's regime,
// or caution when there is no history, and the error is recorded.
func (r *Runner) classifyRegime(ctx context.Context, result *domain.RunResult) {
	var previous domain.Regime
	if last, err := r.store.LatestRun(); err == nil && last != nil {
		previous = last.Regime
	}

	reading, err := r.volatility.Reading(ctx)
	result.Summary.APICallsMade["volatility"]++
	if err != nil {
		result.Summary.Errors = append(result.Summary.Errors, fmt.Sprintf("volatility reading failed: %v", err))
		if previous != "" {
			result.Regime = previous
		} else {
			result.Regime = domain.RegimeCaution
		}
		r.log.Warn().Err(err).Str("regime", string(result.Regime)).Msg("Volatility feed failed, using fallback regime")
		return
	}

	result.Regime = r.classifier.ClassifyWithHint(reading, previous)
	result.Overview = domain.MarketOverview{
		VolatilityLevel: reading.Level,
		Volatility5DAvg: reading.FiveDayAvg,
	}
	if reading.FiveDayAvg > 0 {
		result.Overview.VolatilityChangePct = (reading.Level - reading.FiveDayAvg) / reading.FiveDayAvg
	}

	r1d, r5d, err := r.volatility.BenchmarkReturns(ctx)
	result.Summary.APICallsMade["volatility"]++
	if err != nil {
		result.Summary.Warnings = append(result.Summary.Warnings, fmt.Sprintf("benchmark returns unavailable: %v", err))
		return
	}
	result.Overview.BenchmarkReturn1D = r1d
	result.Overview.BenchmarkReturn5D = r5d
}

func (r *Runner) loadSnapshot() (domain.Snapshot, error) {
	snap, err := r.store.LatestSnapshot()
	if err != nil {
		return domain.Snapshot{}, err
	}
	if snap == nil {
		r.log.Info().Float64("cash", r.cfg.InitialCash).Msg("No snapshot found, seeding portfolio")
		return domain.Snapshot{
			AsOf:        time.Now(),
			TotalValue:  r.cfg.InitialCash,
			CashBalance: r.cfg.InitialCash,
			Positions:   map[string]domain.Position{},
		}, nil
	}
	return *snap, nil
}

// refreshSnapshot reprices every position from today's signals and
// recomputes total value, weights, and the grouping rollups. Weights are
// always derived, never carried over.
func refreshSnapshot(snap domain.Snapshot, signals map[string]domain.Signal, catalog *universe.Catalog) domain.Snapshot {
	out := domain.Snapshot{
		AsOf:        time.Now(),
		CashBalance: snap.CashBalance,
		Positions:   make(map[string]domain.Position, len(snap.Positions)),
		ByCategory:  make(map[domain.Category]float64),
		BySector:    make(map[string]float64),
		ByGeography: make(map[string]float64),
	}

	total := snap.CashBalance
	for sym, pos := range snap.Positions {
		if sig, ok := signals[sym]; ok && sig.CurrentPrice > 0 {
			pos.CurrentPrice = sig.CurrentPrice
		}
		pos.MarketValue = float64(pos.Shares) * pos.CurrentPrice
		out.Positions[sym] = pos
		total += pos.MarketValue
	}
	out.TotalValue = total
	if total <= 0 {
		return out
	}

	for sym, pos := range out.Positions {
		pos.Weight = pos.MarketValue / total
		out.Positions[sym] = pos

		if inst, err := catalog.Get(sym); err == nil {
			out.ByCategory[inst.Category] += pos.Weight
			out.BySector[inst.Sector] += pos.Weight
			out.ByGeography[inst.Geography] += pos.Weight
		}
	}
	return out
}
