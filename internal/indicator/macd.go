package indicator

import (
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACDResult holds the three MACD lines aligned with the input closes.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the fast-minus-slow EMA line, its signal EMA and the
// histogram (line minus signal).
func MACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	if fast >= slow {
		return MACDResult{}, errors.Newf(errors.ErrCodeInvalidPeriod, "MACD fast period %d must be less than slow period %d", fast, slow)
	}

	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return MACDResult{}, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to calculate fast EMA", err)
	}

	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return MACDResult{}, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to calculate slow EMA", err)
	}

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine, err := EMA(line, signal)
	if err != nil {
		return MACDResult{}, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to calculate signal line", err)
	}

	histogram := make([]float64, len(closes))
	for i := range closes {
		histogram[i] = line[i] - signalLine[i]
	}

	return MACDResult{
		MACD:      line,
		Signal:    signalLine,
		Histogram: histogram,
	}, nil
}

// DefaultMACD is MACD(12, 26, 9).
func DefaultMACD(closes []float64) (MACDResult, error) {
	return MACD(closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
}
