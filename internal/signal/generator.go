// Package signal turns bar series into discrete trading signals.
package signal

import (
	"github.com/rxtech-lab/argo-macd/internal/types"
)

// Generator classifies the last bar of a series. Implementations must be
// deterministic: the same bars and timeframe always give the same signal.
type Generator interface {
	Generate(bars []types.Bar, timeframe types.Timeframe) (types.Signal, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(bars []types.Bar, timeframe types.Timeframe) (types.Signal, error)

func (f GeneratorFunc) Generate(bars []types.Bar, timeframe types.Timeframe) (types.Signal, error) {
	return f(bars, timeframe)
}
