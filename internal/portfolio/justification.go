package portfolio

import (
	"fmt"
	"strings"

	"github.com/holiuunc/etf-justification-engine/internal/domain"
)

// buildJustification assembles the structured reasoning for one focus-list
// recommendation. Every field is populated from evidence the run actually
// gathered; the qualitative section is omitted when no news was available.
func buildJustification(entry domain.FocusEntry, inst domain.Instrument, action domain.Action, regime domain.Regime, postTradeWeight, sectorWeight float64) domain.Justification {
	j := domain.Justification{
		Thesis:         buildThesis(entry, inst, action, regime),
		Quantitative:   quantitativeEvidence(entry),
		RiskAssessment: riskAssessment(entry, inst, regime, postTradeWeight, sectorWeight),
		HoldingPeriod:  holdingPeriod(action, inst),
		ReviewTriggers: reviewTriggers(entry, action),
	}
	if entry.News != nil && !entry.News.IsEmpty() {
		j.Qualitative = qualitativeEvidence(*entry.News)
	}
	return j
}

func buildThesis(entry domain.FocusEntry, inst domain.Instrument, action domain.Action, regime domain.Regime) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s flagged: %s.", inst.Name, entry.Description)

	if entry.News != nil && !entry.News.IsEmpty() {
		switch {
		case entry.News.Sentiment > 0.5:
			fmt.Fprintf(&b, " News flow is strongly positive (%.2f).", entry.News.Sentiment)
		case entry.News.Sentiment < -0.3:
			fmt.Fprintf(&b, " News flow is negative (%.2f).", entry.News.Sentiment)
		default:
			fmt.Fprintf(&b, " News flow is mixed (%.2f).", entry.News.Sentiment)
		}
	} else {
		b.WriteString(" No qualitative evidence was available.")
	}

	switch action {
	case domain.ActionInitiate:
		fmt.Fprintf(&b, " Opening a %s position in the %s regime.", strings.ToLower(string(inst.Category)), regime)
	case domain.ActionAdd:
		fmt.Fprintf(&b, " Adding to the existing position in the %s regime.", regime)
	case domain.ActionTrim:
		fmt.Fprintf(&b, " Reducing exposure in the %s regime.", regime)
	default:
		fmt.Fprintf(&b, " Holding in the %s regime.", regime)
	}
	return b.String()
}

func quantitativeEvidence(entry domain.FocusEntry) map[string]string {
	sig := entry.Signal
	ev := map[string]string{
		"trigger":      string(entry.Trigger),
		"magnitude":    fmt.Sprintf("%.2f", entry.Magnitude),
		"price":        fmt.Sprintf("%.2f", sig.CurrentPrice),
		"return_1d":    fmt.Sprintf("%.2f%%", sig.Return1D*100),
		"volume_ratio": fmt.Sprintf("%.2fx", sig.VolumeRatio),
	}
	if sig.Return5D != nil {
		ev["return_5d"] = fmt.Sprintf("%.2f%%", *sig.Return5D*100)
	}
	if sig.RSI14 != nil {
		ev["rsi_14"] = fmt.Sprintf("%.1f", *sig.RSI14)
	}
	if sig.SMA50 != nil {
		side := "above"
		if sig.CurrentPrice < *sig.SMA50 {
			side = "below"
		}
		ev["sma_50"] = fmt.Sprintf("price %s 50-day average (%.2f)", side, *sig.SMA50)
	}
	if sig.MACDState != "" {
		ev["macd"] = sig.MACDState
	}
	if sig.BollingerPosition != "" {
		ev["bollinger"] = sig.BollingerPosition
	}
	return ev
}

func qualitativeEvidence(news domain.NewsAssessment) map[string]string {
	ev := map[string]string{
		"sentiment":     fmt.Sprintf("%.2f", news.Sentiment),
		"relevance":     fmt.Sprintf("%.2f", news.Relevance),
		"article_count": fmt.Sprintf("%d", news.ArticleCount),
	}
	if news.Summary != "" {
		ev["summary"] = news.Summary
	}
	if len(news.Themes) > 0 {
		ev["themes"] = strings.Join(news.Themes, "; ")
	}
	return ev
}

// riskAssessment always carries the position's post-trade weight and the
// resulting sector concentration alongside the regime context.
func riskAssessment(entry domain.FocusEntry, inst domain.Instrument, regime domain.Regime, postTradeWeight, sectorWeight float64) map[string]string {
	risk := map[string]string{
		"regime":               string(regime),
		"category":             string(inst.Category),
		"expense_ratio":        fmt.Sprintf("%.2f%%", inst.ExpenseRatio*100),
		"post_trade_weight":    fmt.Sprintf("%.2f%%", postTradeWeight*100),
		"sector_concentration": fmt.Sprintf("%.2f%%", sectorWeight*100),
	}
	if entry.News != nil && len(entry.News.Risks) > 0 {
		risk["news_risks"] = strings.Join(entry.News.Risks, "; ")
	}
	if regime == domain.RegimeRiskOff || regime == domain.RegimeCaution {
		risk["posture"] = "elevated volatility limits new risk taking"
	}
	return risk
}

func holdingPeriod(action domain.Action, inst domain.Instrument) string {
	switch {
	case action == domain.ActionHold:
		return "until the next scan produces a signal"
	case inst.Category == domain.CategoryTacticalSatellite:
		return "2-8 weeks, tactical"
	case inst.Category == domain.CategoryCore:
		return "indefinite, core holding"
	default:
		return "1-6 months"
	}
}

func reviewTriggers(entry domain.FocusEntry, action domain.Action) []string {
	triggers := []string{"volatility regime change"}
	switch entry.Trigger {
	case domain.TriggerRSIExtreme:
		triggers = append(triggers, "RSI returning inside the 30-70 band")
	case domain.TriggerVolumeSpike:
		triggers = append(triggers, "volume normalizing toward the 30-day average")
	case domain.TriggerPriceMove:
		triggers = append(triggers, "retracement of the flagged move")
	case domain.TriggerMomentumCrossover:
		triggers = append(triggers, "MACD crossing back through its signal line")
	}
	if action.IsTrade() {
		triggers = append(triggers, "position weight drifting past tolerance")
	}
	return triggers
}

// rebalanceJustification is the reasoning attached to macro rebalancing
// trades, which originate from allocation drift rather than a scan trigger.
func rebalanceJustification(bucket string, current, target float64, regime domain.Regime, postTradeWeight, sectorWeight float64) domain.Justification {
	return domain.Justification{
		Thesis: fmt.Sprintf("The %s allocation is %.1f%% against a %.1f%% target for the %s regime; rebalancing toward target.",
			bucket, current*100, target*100, regime),
		Quantitative: map[string]string{
			"bucket":         bucket,
			"current_weight": fmt.Sprintf("%.2f%%", current*100),
			"target_weight":  fmt.Sprintf("%.2f%%", target*100),
			"drift":          fmt.Sprintf("%.2f%%", (current-target)*100),
		},
		RiskAssessment: map[string]string{
			"regime":               string(regime),
			"source":               "macro allocation drift",
			"post_trade_weight":    fmt.Sprintf("%.2f%%", postTradeWeight*100),
			"sector_concentration": fmt.Sprintf("%.2f%%", sectorWeight*100),
		},
		HoldingPeriod:  "until the regime or allocation drifts again",
		ReviewTriggers: []string{"volatility regime change", "allocation drift past tolerance"},
	}
}
