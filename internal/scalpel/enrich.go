package scalpel

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/holiuunc/etf-justification-engine/internal/config"
	"github.com/holiuunc/etf-justification-engine/internal/domain"
	"github.com/holiuunc/etf-justification-engine/internal/universe"
)

// Diver runs the deep-dive enrichment for the focus list. Every entry gets
// a news assessment attached; adapter failures and budget exhaustion
// degrade individual entries to an empty assessment, they never drop the
// entry or fail the run.
type Diver struct {
	cfg        config.ScalpelConfig
	news       domain.NewsAdapter
	summarizer domain.Summarizer
	log        zerolog.Logger
}

// NewDiver creates an enrichment diver.
func NewDiver(cfg config.ScalpelConfig, news domain.NewsAdapter, summarizer domain.Summarizer, log zerolog.Logger) *Diver {
	return &Diver{
		cfg:        cfg,
		news:       news,
		summarizer: summarizer,
		log:        log.With().Str("module", "scalpel").Logger(),
	}
}

// EnrichResult is the outcome of one enrichment pass.
type EnrichResult struct {
	FocusList domain.FocusList // input order preserved, News attached on every entry
	NewsCalls int
	LLMCalls  int
	Warnings  []string
}

// taskOutcome is the per-entry result joined back by index after fan-out.
type taskOutcome struct {
	news      domain.NewsAssessment
	newsCalls int
	llmCalls  int
	warnings  []string
}

// Enrich fans the focus list out across a bounded worker set and joins
// results back by index, so output order always matches input order. Each
// task runs under its own deadline and draws external calls from a shared
// budget.
func (d *Diver) Enrich(ctx context.Context, catalog *universe.Catalog, list domain.FocusList) EnrichResult {
	budget := NewBudget(d.cfg.APIBudget)
	outcomes := make([]taskOutcome, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.FanOutLimit)

	for i := range list {
		i := i
		entry := list[i]
		g.Go(func() error {
			taskCtx, cancel := context.WithTimeout(gctx, d.cfg.TaskTimeout)
			defer cancel()
			outcomes[i] = d.enrichOne(taskCtx, budget, entry.Symbol, catalog.DisplayName(entry.Symbol))
			return nil
		})
	}
	// Tasks never return errors; degradation is recorded per outcome.
	_ = g.Wait()

	result := EnrichResult{FocusList: make(domain.FocusList, len(list))}
	for i, entry := range list {
		news := outcomes[i].news
		entry.News = &news
		result.FocusList[i] = entry
		result.NewsCalls += outcomes[i].newsCalls
		result.LLMCalls += outcomes[i].llmCalls
		result.Warnings = append(result.Warnings, outcomes[i].warnings...)
	}

	d.log.Info().
		Int("entries", len(list)).
		Int("news_calls", result.NewsCalls).
		Int("llm_calls", result.LLMCalls).
		Int("budget_used", budget.Used()).
		Int("budget_remaining", budget.Remaining()).
		Msg("Enrichment complete")
	return result
}

func (d *Diver) enrichOne(ctx context.Context, budget *Budget, symbol, displayName string) taskOutcome {
	out := taskOutcome{news: domain.EmptyNewsAssessment(symbol)}

	if !budget.TryAcquire(1) {
		out.warnings = append(out.warnings, fmt.Sprintf("%s: API budget exhausted before news search", symbol))
		return out
	}
	out.newsCalls++

	window := time.Duration(d.cfg.LookbackDays) * 24 * time.Hour
	articles, err := d.news.Search(ctx, symbol, displayName, window)
	if err != nil {
		out.warnings = append(out.warnings, fmt.Sprintf("%s: news search failed: %v", symbol, err))
		return out
	}
	if len(articles) == 0 {
		d.log.Debug().Str("symbol", symbol).Msg("No recent news found")
		return out
	}
	if len(articles) > d.cfg.MaxArticles {
		articles = articles[:d.cfg.MaxArticles]
	}

	if !budget.TryAcquire(1) {
		out.warnings = append(out.warnings, fmt.Sprintf("%s: API budget exhausted before summarization", symbol))
		return out
	}
	out.llmCalls++

	summary, err := d.summarizer.Summarize(ctx, symbol, displayName, articles)
	if err != nil {
		// The entry degrades to an empty assessment: headlines without
		// scores would read downstream as mixed evidence.
		out.warnings = append(out.warnings, fmt.Sprintf("%s: summarization failed: %v", symbol, err))
		return out
	}

	out.news.ArticleCount = len(articles)
	out.news.Headlines = make([]string, len(articles))
	for i, a := range articles {
		out.news.Headlines[i] = a.Title
	}
	out.news.Summary = summary.Summary
	out.news.Themes = summary.Themes
	out.news.Risks = summary.Risks
	out.news.Sentiment, out.news.Relevance = d.clampScores(symbol, summary.Sentiment, summary.Relevance, &out.warnings)
	return out
}

// clampScores forces model outputs into their documented ranges and
// records a warning when a value had to be clamped.
func (d *Diver) clampScores(symbol string, sentiment, relevance float64, warnings *[]string) (float64, float64) {
	if sentiment < -1 || sentiment > 1 {
		*warnings = append(*warnings, fmt.Sprintf("%s: sentiment %.2f out of range, clamped", symbol, sentiment))
		if sentiment < -1 {
			sentiment = -1
		} else {
			sentiment = 1
		}
	}
	if relevance < 0 || relevance > 1 {
		*warnings = append(*warnings, fmt.Sprintf("%s: relevance %.2f out of range, clamped", symbol, relevance))
		if relevance < 0 {
			relevance = 0
		} else {
			relevance = 1
		}
	}
	return sentiment, relevance
}
