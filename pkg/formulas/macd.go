package formulas

import (
	"github.com/markcheno/go-talib"
)

// MACDState describes the MACD line relative to its signal line, including
// whether the relationship flipped on the most recent bar.
type MACDState string

const (
	MACDBullish          MACDState = "bullish"
	MACDBearish          MACDState = "bearish"
	MACDBullishCrossover MACDState = "bullish_crossover"
	MACDBearishCrossover MACDState = "bearish_crossover"
)

// MACDResult holds the current MACD and signal line values plus the
// crossover state derived from the last two bars.
type MACDResult struct {
	MACD   float64   `json:"macd"`
	Signal float64   `json:"signal"`
	State  MACDState `json:"state"`
}

// CalculateMACD calculates the MACD indicator and its crossover state.
// Returns nil if there is not enough data for the slow EMA plus signal line.
func CalculateMACD(closes []float64, fast, slow, signal int) *MACDResult {
	if len(closes) < slow+signal {
		return nil
	}

	macdLine, signalLine, _ := talib.Macd(closes, fast, slow, signal)

	n := len(macdLine)
	if n < 2 || isNaN(macdLine[n-1]) || isNaN(signalLine[n-1]) ||
		isNaN(macdLine[n-2]) || isNaN(signalLine[n-2]) {
		return nil
	}

	cur, prev := macdLine[n-1], macdLine[n-2]
	curSig, prevSig := signalLine[n-1], signalLine[n-2]

	var state MACDState
	switch {
	case cur > curSig && prev <= prevSig:
		state = MACDBullishCrossover
	case cur < curSig && prev >= prevSig:
		state = MACDBearishCrossover
	case cur > curSig:
		state = MACDBullish
	default:
		state = MACDBearish
	}

	return &MACDResult{
		MACD:   cur,
		Signal: curSig,
		State:  state,
	}
}
