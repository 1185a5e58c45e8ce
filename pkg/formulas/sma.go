package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateSMA calculates the simple moving average over the last `length`
// closes. Returns nil if there is not enough data.
func CalculateSMA(closes []float64, length int) *float64 {
	if len(closes) < length || length <= 0 {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// CalculateEMA calculates the exponential moving average over `length` periods.
// Returns nil if there is not enough data.
func CalculateEMA(closes []float64, length int) *float64 {
	if len(closes) < length || length <= 0 {
		return nil
	}

	ema := talib.Ema(closes, length)
	if len(ema) > 0 && !isNaN(ema[len(ema)-1]) {
		result := ema[len(ema)-1]
		return &result
	}

	return nil
}
