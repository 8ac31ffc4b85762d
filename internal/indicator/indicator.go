// Package indicator holds the price series math behind the MACD signal.
// Every function takes a full series and returns a series of the same
// length; positions where the indicator is not yet defined are NaN.
package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

func firstValidIndex(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}

	return -1
}

func checkPeriod(name string, period int) error {
	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "%s period must be positive, got %d", name, period)
	}

	return nil
}

// Last returns the final value of a series, or NaN when empty.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	return values[len(values)-1]
}

// LastN returns the value n positions from the end (0 is the last one).
func LastN(values []float64, n int) float64 {
	if n < 0 || n >= len(values) {
		return math.NaN()
	}

	return values[len(values)-1-n]
}
