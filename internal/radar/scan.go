// Package radar performs the cheap whole-universe triage scan that selects
// the bounded focus list for deep analysis.
package radar

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/holiuunc/etf-justification-engine/internal/config"
	"github.com/holiuunc/etf-justification-engine/internal/domain"
	"github.com/holiuunc/etf-justification-engine/internal/universe"
	"github.com/holiuunc/etf-justification-engine/pkg/formulas"
)

// Scanner flags instruments whose recent behavior deviates from their own
// baseline. It works entirely from locally computed indicators and makes no
// external calls.
type Scanner struct {
	triggers config.TriggerConfig
	tech     config.TechnicalConfig
	log      zerolog.Logger
}

// NewScanner creates a radar scanner.
func NewScanner(triggers config.TriggerConfig, tech config.TechnicalConfig, log zerolog.Logger) *Scanner {
	return &Scanner{
		triggers: triggers,
		tech:     tech,
		log:      log.With().Str("module", "radar").Logger(),
	}
}

// ScanResult is the output of one triage pass.
type ScanResult struct {
	FocusList domain.FocusList
	// Signals holds the derived facts for every scanned instrument, not
	// just the flagged ones. The recommendation stage uses these for
	// holdings that never made the focus list.
	Signals  map[string]domain.Signal
	Warnings []string
}

// Scan evaluates every catalog instrument against the trigger thresholds
// and returns the magnitude-ordered focus list, truncated to the configured
// maximum. Instruments with insufficient history are skipped with a warning
// rather than failing the scan.
func (s *Scanner) Scan(catalog *universe.Catalog, series map[string]domain.PriceSeries) ScanResult {
	result := ScanResult{
		Signals: make(map[string]domain.Signal, catalog.Size()),
	}
	var candidates []domain.FocusEntry

	for _, sym := range catalog.Symbols() {
		ps, ok := series[sym]
		if !ok || ps.Len() == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("no price history for %s, skipped", sym))
			continue
		}
		if ps.Len() < s.triggers.MinHistoryBars {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("insufficient history for %s (%d bars, need %d), skipped", sym, ps.Len(), s.triggers.MinHistoryBars))
			continue
		}

		sig := buildSignal(ps, s.tech)
		result.Signals[sym] = sig

		if entry, fired := s.evaluate(sym, ps, sig); fired {
			candidates = append(candidates, entry)
		}
	}

	// Strongest anomalies first, symbol as the deterministic tie-break.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Magnitude != candidates[j].Magnitude {
			return candidates[i].Magnitude > candidates[j].Magnitude
		}
		return candidates[i].Symbol < candidates[j].Symbol
	})
	if len(candidates) > s.triggers.FocusListMaxSize {
		s.log.Info().
			Int("flagged", len(candidates)).
			Int("kept", s.triggers.FocusListMaxSize).
			Msg("Truncating focus list")
		candidates = candidates[:s.triggers.FocusListMaxSize]
	}
	result.FocusList = candidates

	s.log.Info().
		Int("scanned", len(result.Signals)).
		Int("focus", len(result.FocusList)).
		Int("warnings", len(result.Warnings)).
		Msg("Radar scan complete")
	return result
}

// evaluate checks all triggers for one instrument and keeps the strongest
// one by normalized magnitude, so entries from different trigger kinds sort
// against each other on a comparable scale.
func (s *Scanner) evaluate(sym string, ps domain.PriceSeries, sig domain.Signal) (domain.FocusEntry, bool) {
	best := domain.FocusEntry{Symbol: sym, Signal: sig}
	fired := false

	consider := func(kind domain.TriggerKind, magnitude float64, description string) {
		if !fired || magnitude > best.Magnitude {
			best.Trigger = kind
			best.Magnitude = magnitude
			best.Description = description
		}
		fired = true
	}

	// Price move: absolute daily return over the flat threshold, or a
	// statistically unusual move relative to the instrument's own return
	// distribution. Magnitude is how many times over the threshold the
	// move is, whichever normalization is stronger.
	ret := sig.Return1D
	returns := formulas.DailyReturns(ps.Closes())
	var zScore float64
	if sd := formulas.StdDev(returns); sd > 0 {
		zScore = (ret - formulas.Mean(returns)) / sd
	}
	absMag := math.Abs(ret) / s.triggers.PriceMoveThreshold
	zMag := math.Abs(zScore) / s.triggers.PriceStdDevThreshold
	if absMag >= 1 || zMag >= 1 {
		mag := absMag
		if zMag > mag {
			mag = zMag
		}
		consider(domain.TriggerPriceMove, mag,
			fmt.Sprintf("price moved %.2f%% in one day (%.1f std devs)", ret*100, zScore))
	}

	// Volume spike: magnitude is the raw ratio against the 30-day average.
	if sig.VolumeRatio >= s.triggers.VolumeSpikeThreshold {
		consider(domain.TriggerVolumeSpike, sig.VolumeRatio,
			fmt.Sprintf("volume %.2fx the 30-day average", sig.VolumeRatio))
	}

	// Momentum crossovers are binary events, normalized to 1.0.
	switch sig.MACDState {
	case string(formulas.MACDBullishCrossover):
		consider(domain.TriggerMomentumCrossover, 1.0, "MACD crossed above its signal line")
	case string(formulas.MACDBearishCrossover):
		consider(domain.TriggerMomentumCrossover, 1.0, "MACD crossed below its signal line")
	}

	// RSI extremes: magnitude is the distance past the threshold, expressed
	// as a ratio so overbought and oversold readings are comparable.
	if sig.RSI14 != nil {
		rsi := *sig.RSI14
		if rsi >= s.triggers.RSIOverbought {
			consider(domain.TriggerRSIExtreme, rsi/s.triggers.RSIOverbought,
				fmt.Sprintf("RSI %.1f is overbought (threshold %.0f)", rsi, s.triggers.RSIOverbought))
		} else if rsi <= s.triggers.RSIOversold && rsi > 0 {
			consider(domain.TriggerRSIExtreme, s.triggers.RSIOversold/rsi,
				fmt.Sprintf("RSI %.1f is oversold (threshold %.0f)", rsi, s.triggers.RSIOversold))
		}
	}

	return best, fired
}
