package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-macd/internal/types"
)

const DefaultATRPeriod = 14

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar has no previous close and is NaN.
func TrueRange(bars []types.Bar) []float64 {
	out := nanSeries(len(bars))

	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		out[i] = math.Max(
			math.Max(
				bars[i].High-bars[i].Low,
				math.Abs(bars[i].High-prevClose),
			),
			math.Abs(bars[i].Low-prevClose),
		)
	}

	return out
}

// ATR is the simple rolling mean of the true range over period bars.
func ATR(bars []types.Bar, period int) ([]float64, error) {
	return SMA(TrueRange(bars), period)
}
