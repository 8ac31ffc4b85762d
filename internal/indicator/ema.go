package indicator

import (
	"math"
)

// EMA returns the exponential moving average of values. Leading NaNs are
// skipped, the first defined value is the simple average of the first period
// valid inputs, and later values follow
// EMA = value * alpha + EMA_prev * (1 - alpha) with alpha = 2/(period+1),
// matching pandas ewm with adjust=False.
func EMA(values []float64, period int) ([]float64, error) {
	if err := checkPeriod("EMA", period); err != nil {
		return nil, err
	}

	out := nanSeries(len(values))

	start := firstValidIndex(values)
	if start < 0 || len(values)-start < period {
		return out, nil
	}

	sma := 0.0
	for i := start; i < start+period; i++ {
		sma += values[i]
	}

	sma /= float64(period)

	alpha := 2.0 / float64(period+1)
	ema := sma
	out[start+period-1] = ema

	for i := start + period; i < len(values); i++ {
		if math.IsNaN(values[i]) {
			out[i] = ema

			continue
		}

		ema = (values[i] * alpha) + (ema * (1 - alpha))
		out[i] = ema
	}

	return out, nil
}

// SMA returns the rolling mean over a fixed window. A window containing any
// NaN yields NaN.
func SMA(values []float64, window int) ([]float64, error) {
	if err := checkPeriod("SMA", window); err != nil {
		return nil, err
	}

	out := nanSeries(len(values))

	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		valid := true

		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				valid = false

				break
			}

			sum += values[j]
		}

		if valid {
			out[i] = sum / float64(window)
		}
	}

	return out, nil
}
