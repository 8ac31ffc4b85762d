package engine

import (
	"context"

	"github.com/rxtech-lab/argo-macd/internal/types"
)

// Lifecycle callback types for backtest phases.
// All callbacks with an error return abort the run when they return an error.

// OnBacktestStartCallback is called once the bars are loaded and before the first bar is processed.
type OnBacktestStartCallback func(symbol string, timeframes []types.Timeframe, totalBars int) error

// OnBacktestEndCallback is called when the run completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnProcessDataCallback is called for each primary bar processed.
type OnProcessDataCallback func(current int, total int) error

// OnTradeClosedCallback is called after a trade is appended to the ledger.
type OnTradeClosedCallback func(trade types.Trade) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnProcessData   *OnProcessDataCallback
	OnTradeClosed   *OnTradeClosedCallback
}

type Engine interface {
	// Initialize loads the bars of every configured timeframe, warmup included.
	// It fails when the primary timeframe has too few bars.
	Initialize(ctx context.Context) error
	// Run replays the primary timeframe bar by bar and returns the result.
	// Initialize must have succeeded first.
	Run(callbacks LifecycleCallbacks) (types.BacktestResult, error)
	// GetConfigSchema returns the JSON schema of the engine configuration.
	GetConfigSchema() (string, error)
}
