// Package regime classifies market volatility into discrete risk postures
// and derives the macro allocation targets and position limit findings.
package regime

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/holiuunc/etf-justification-engine/internal/config"
	"github.com/holiuunc/etf-justification-engine/internal/domain"
)

// hysteresisMargin is the extra distance (in volatility points) a reading
// must clear below a band edge before the classifier downgrades to a
// lower-risk regime. Upgrades apply immediately.
const hysteresisMargin = 1.0

// Classifier maps volatility readings onto risk regimes.
type Classifier struct {
	cfg config.RegimeConfig
	log zerolog.Logger
}

// NewClassifier creates a regime classifier.
func NewClassifier(cfg config.RegimeConfig, log zerolog.Logger) *Classifier {
	return &Classifier{
		cfg: cfg,
		log: log.With().Str("module", "regime").Logger(),
	}
}

// Classify returns the regime for a volatility reading. The effective level
// is the higher of the spot level and the 5-day average, so a single calm
// print after a stressed week does not relax the posture. Band upper bounds
// are exclusive: a reading exactly at a boundary falls into the higher-risk
// regime.
func (c *Classifier) Classify(reading domain.VolatilityReading) domain.Regime {
	effective := reading.Level
	if reading.FiveDayAvg > effective {
		effective = reading.FiveDayAvg
	}

	regime := c.classifyLevel(effective)
	c.log.Debug().
		Float64("level", reading.Level).
		Float64("avg_5d", reading.FiveDayAvg).
		Float64("effective", effective).
		Str("regime", string(regime)).
		Msg("Classified volatility regime")
	return regime
}

// ClassifyWithHint classifies with hysteresis against the previous run's
// regime: moving toward a lower-risk regime requires the effective reading
// to clear the band edge by a margin, while moving toward higher risk is
// immediate.
func (c *Classifier) ClassifyWithHint(reading domain.VolatilityReading, previous domain.Regime) domain.Regime {
	candidate := c.Classify(reading)
	if previous == "" || candidate == previous {
		return candidate
	}
	if riskRank(candidate) > riskRank(previous) {
		return candidate
	}

	effective := reading.Level
	if reading.FiveDayAvg > effective {
		effective = reading.FiveDayAvg
	}
	// The edge the reading must clear is the lower bound of the previous
	// regime's band.
	edge := c.lowerBound(previous)
	if effective < edge-hysteresisMargin {
		return candidate
	}

	c.log.Debug().
		Str("candidate", string(candidate)).
		Str("kept", string(previous)).
		Float64("effective", effective).
		Msg("Hysteresis held previous regime")
	return previous
}

// TargetSplit returns the macro allocation targets for a regime.
func (c *Classifier) TargetSplit(regime domain.Regime) (domain.MacroSplit, error) {
	split, ok := c.cfg.Splits[regime]
	if !ok {
		return domain.MacroSplit{}, fmt.Errorf("no macro split configured for regime %s", regime)
	}
	return split, nil
}

func (c *Classifier) classifyLevel(level float64) domain.Regime {
	switch {
	case level < c.cfg.ComplacencyBelow:
		return domain.RegimeExtremeComplacency
	case level < c.cfg.NormalBelow:
		return domain.RegimeNormal
	case level < c.cfg.CautionBelow:
		return domain.RegimeCaution
	default:
		return domain.RegimeRiskOff
	}
}

func (c *Classifier) lowerBound(regime domain.Regime) float64 {
	switch regime {
	case domain.RegimeRiskOff:
		return c.cfg.CautionBelow
	case domain.RegimeCaution:
		return c.cfg.NormalBelow
	case domain.RegimeNormal:
		return c.cfg.ComplacencyBelow
	default:
		return 0
	}
}

func riskRank(r domain.Regime) int {
	switch r {
	case domain.RegimeExtremeComplacency:
		return 0
	case domain.RegimeNormal:
		return 1
	case domain.RegimeCaution:
		return 2
	case domain.RegimeRiskOff:
		return 3
	default:
		return -1
	}
}
