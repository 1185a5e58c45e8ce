package radar

import (
	"github.com/holiuunc/etf-justification-engine/internal/config"
	"github.com/holiuunc/etf-justification-engine/internal/domain"
	"github.com/holiuunc/etf-justification-engine/pkg/formulas"
)

// buildSignal derives the per-instrument technical facts from a price
// series. Indicator fields stay nil when the history is too short for them.
func buildSignal(series domain.PriceSeries, tech config.TechnicalConfig) domain.Signal {
	closes := series.Closes()
	n := len(closes)

	sig := domain.Signal{
		Symbol:       series.Symbol,
		CurrentPrice: series.LastClose(),
	}
	if n >= 2 {
		prev := closes[n-2]
		if prev != 0 {
			sig.Return1D = (closes[n-1] - prev) / prev
		}
	}
	if n >= 6 {
		base := closes[n-6]
		if base != 0 {
			r5 := (closes[n-1] - base) / base
			sig.Return5D = &r5
		}
	}

	// 52-week range over whatever history is available, capped at one
	// trading year.
	window := series.Bars
	if len(window) > 252 {
		window = window[len(window)-252:]
	}
	if len(window) > 0 {
		high, low := window[0].High, window[0].Low
		for _, b := range window[1:] {
			if b.High > high {
				high = b.High
			}
			if b.Low < low {
				low = b.Low
			}
		}
		sig.High52W = &high
		sig.Low52W = &low
	}

	if n >= 1 {
		sig.VolumeToday = series.Bars[n-1].Volume
	}
	// Average volume over the lookback window excluding today, so a spike
	// does not inflate its own baseline.
	if n >= 2 {
		start := n - 1 - tech.VolumeAvgLookback
		if start < 0 {
			start = 0
		}
		var sum float64
		count := 0
		for _, b := range series.Bars[start : n-1] {
			sum += float64(b.Volume)
			count++
		}
		if count > 0 {
			sig.Volume30DAvg = sum / float64(count)
		}
		if sig.Volume30DAvg > 0 {
			sig.VolumeRatio = float64(sig.VolumeToday) / sig.Volume30DAvg
		}
	}

	sig.SMA20 = formulas.CalculateSMA(closes, tech.SMAShort)
	sig.SMA50 = formulas.CalculateSMA(closes, tech.SMAMedium)
	sig.SMA200 = formulas.CalculateSMA(closes, tech.SMALong)
	sig.RSI14 = formulas.CalculateRSI(closes, tech.RSILength)

	if macd := formulas.CalculateMACD(closes, tech.MACDFast, tech.MACDSlow, tech.MACDSignal); macd != nil {
		sig.MACD = &macd.MACD
		sig.MACDState = string(macd.State)
	}
	if bb := formulas.CalculateBollingerBands(closes, tech.BollingerLength, tech.BollingerStdDev); bb != nil {
		sig.BollingerUpper = &bb.Upper
		sig.BollingerLower = &bb.Lower
		sig.BollingerPosition = bb.BandPosition(sig.CurrentPrice)
	}

	return sig
}
