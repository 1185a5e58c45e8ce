package regime

import (
	"fmt"

	"github.com/holiuunc/etf-justification-engine/internal/config"
	"github.com/holiuunc/etf-justification-engine/internal/domain"
	"github.com/holiuunc/etf-justification-engine/internal/universe"
)

// LimitChecker evaluates a portfolio snapshot against the position limits.
// Findings are advisory: they surface in the run result and flow into the
// recommendation stage, they never abort a run.
type LimitChecker struct {
	cfg     config.LimitConfig
	catalog *universe.Catalog
}

// NewLimitChecker creates a limit checker over a universe catalog.
func NewLimitChecker(cfg config.LimitConfig, catalog *universe.Catalog) *LimitChecker {
	return &LimitChecker{cfg: cfg, catalog: catalog}
}

// Check returns all limit violations observed in the snapshot. An empty
// portfolio produces only the band findings that apply to it (core and
// equity minimums are skipped when nothing is invested).
func (lc *LimitChecker) Check(snap domain.Snapshot) []domain.LimitViolation {
	var violations []domain.LimitViolation

	var coreWeight, equityWeight, investedWeight float64
	sectorWeights := make(map[string]float64)

	for sym, pos := range snap.Positions {
		if pos.Shares <= 0 {
			continue
		}
		inst, err := lc.catalog.Get(sym)
		if err != nil {
			continue
		}
		investedWeight += pos.Weight

		if pos.Weight > lc.cfg.SinglePositionMax {
			violations = append(violations, domain.LimitViolation{
				Kind:     "single_position",
				Subject:  sym,
				Observed: pos.Weight,
				Limit:    lc.cfg.SinglePositionMax,
				Message:  fmt.Sprintf("%s is %.1f%% of portfolio, limit %.1f%%", sym, pos.Weight*100, lc.cfg.SinglePositionMax*100),
			})
		}
		if inst.Category == domain.CategoryTacticalSatellite && pos.Weight > lc.cfg.TacticalPositionMax {
			violations = append(violations, domain.LimitViolation{
				Kind:     "tactical_position",
				Subject:  sym,
				Observed: pos.Weight,
				Limit:    lc.cfg.TacticalPositionMax,
				Message:  fmt.Sprintf("tactical position %s is %.1f%% of portfolio, limit %.1f%%", sym, pos.Weight*100, lc.cfg.TacticalPositionMax*100),
			})
		}

		sectorWeights[inst.Sector] += pos.Weight
		if inst.Category == domain.CategoryCore {
			coreWeight += pos.Weight
		}
		if universe.MacroBucket(inst) == "equity" {
			equityWeight += pos.Weight
		}
	}

	for sector, weight := range sectorWeights {
		if weight > lc.cfg.SectorMax {
			violations = append(violations, domain.LimitViolation{
				Kind:     "sector",
				Subject:  sector,
				Observed: weight,
				Limit:    lc.cfg.SectorMax,
				Message:  fmt.Sprintf("sector %s is %.1f%% of portfolio, limit %.1f%%", sector, weight*100, lc.cfg.SectorMax*100),
			})
		}
	}

	// Uninvested cash is capped overnight. Holding the cash-equivalent
	// instrument does not count against the cap.
	if cash := snap.CashFraction(); cash > lc.cfg.CashOvernightMax {
		violations = append(violations, domain.LimitViolation{
			Kind:     "cash",
			Subject:  "cash",
			Observed: cash,
			Limit:    lc.cfg.CashOvernightMax,
			Message:  fmt.Sprintf("uninvested cash is %.1f%% of portfolio, overnight limit %.1f%%", cash*100, lc.cfg.CashOvernightMax*100),
		})
	}

	if investedWeight > 0 {
		if coreWeight < lc.cfg.CoreMin {
			violations = append(violations, domain.LimitViolation{
				Kind:     "core",
				Subject:  "core",
				Observed: coreWeight,
				Limit:    lc.cfg.CoreMin,
				Message:  fmt.Sprintf("core holdings are %.1f%% of portfolio, minimum %.1f%%", coreWeight*100, lc.cfg.CoreMin*100),
			})
		}
		if equityWeight < lc.cfg.EquityMin {
			violations = append(violations, domain.LimitViolation{
				Kind:     "equity",
				Subject:  "equity",
				Observed: equityWeight,
				Limit:    lc.cfg.EquityMin,
				Message:  fmt.Sprintf("equity exposure is %.1f%% of portfolio, minimum %.1f%%", equityWeight*100, lc.cfg.EquityMin*100),
			})
		}
	}
	if coreWeight > lc.cfg.CoreMax {
		violations = append(violations, domain.LimitViolation{
			Kind:     "core",
			Subject:  "core",
			Observed: coreWeight,
			Limit:    lc.cfg.CoreMax,
			Message:  fmt.Sprintf("core holdings are %.1f%% of portfolio, maximum %.1f%%", coreWeight*100, lc.cfg.CoreMax*100),
		})
	}
	if equityWeight > lc.cfg.EquityMax {
		violations = append(violations, domain.LimitViolation{
			Kind:     "equity",
			Subject:  "equity",
			Observed: equityWeight,
			Limit:    lc.cfg.EquityMax,
			Message:  fmt.Sprintf("equity exposure is %.1f%% of portfolio, maximum %.1f%%", equityWeight*100, lc.cfg.EquityMax*100),
		})
	}

	return violations
}
