// Package trading runs the multi-timeframe MACD evaluation against live
// market data and drives the notify-only polling loop.
package trading

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rxtech-lab/argo-macd/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/signal"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata/provider"
)

const (
	// DefaultLookback is the number of bars fetched per timeframe.
	DefaultLookback = 1000

	maxConcurrentFetches = 4
)

// EvaluatorConfig controls which timeframes are evaluated and how they vote.
type EvaluatorConfig struct {
	Timeframes     []types.Timeframe
	Vote           signal.VoteConfig
	Lookback       int
	OrderBookDepth int
}

// DefaultEvaluatorConfig evaluates the default timeframe set.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		Timeframes:     signal.DefaultTimeframes(),
		Vote:           signal.DefaultVoteConfig(),
		Lookback:       DefaultLookback,
		OrderBookDepth: marketdata.DefaultOrderBookDepth,
	}
}

// TimeframeResult is the outcome for one timeframe. Signal is a hold when
// Err is set.
type TimeframeResult struct {
	Timeframe types.Timeframe
	Signal    types.Signal
	Weight    float64
	LastPrice float64
	Bars      int
	Err       error
}

// Evaluation is one multi-timeframe snapshot of a symbol.
type Evaluation struct {
	Symbol     string
	Time       time.Time
	Timeframes []TimeframeResult
	Vote       signal.VoteResult
	// OrderBook is nil when no order book provider is configured or the
	// request failed.
	OrderBook *marketdata.OrderBookSummary
}

// Signals returns the signals of all timeframes that evaluated cleanly.
func (e Evaluation) Signals() []types.Signal {
	out := make([]types.Signal, 0, len(e.Timeframes))
	for _, r := range e.Timeframes {
		if r.Err == nil {
			out = append(out, r.Signal)
		}
	}

	return out
}

// Failed reports whether every timeframe failed.
func (e Evaluation) Failed() bool {
	for _, r := range e.Timeframes {
		if r.Err == nil {
			return false
		}
	}

	return len(e.Timeframes) > 0
}

// Evaluator fetches recent bars per timeframe, runs the signal generator on
// each and combines them with a weighted vote.
type Evaluator struct {
	source    datasource.BarSource
	books     provider.OrderBookProvider
	generator signal.Generator
	config    EvaluatorConfig
	log       *logger.Logger
	now       func() time.Time
}

// NewEvaluator creates an evaluator. books may be nil.
func NewEvaluator(source datasource.BarSource, books provider.OrderBookProvider, generator signal.Generator, config EvaluatorConfig, log *logger.Logger) (*Evaluator, error) {
	if source == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "bar source is required")
	}

	if generator == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "signal generator is required")
	}

	if len(config.Timeframes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidTimeframe, "at least one timeframe is required")
	}

	for _, tf := range config.Timeframes {
		if _, err := tf.Duration(); err != nil {
			return nil, err
		}
	}

	if config.Lookback <= 0 {
		config.Lookback = DefaultLookback
	}

	if config.OrderBookDepth <= 0 {
		config.OrderBookDepth = marketdata.DefaultOrderBookDepth
	}

	return &Evaluator{
		source:    source,
		books:     books,
		generator: generator,
		config:    config,
		log:       log.Named("evaluator"),
		now:       time.Now,
	}, nil
}

// Config returns the evaluator configuration with defaults applied.
func (e *Evaluator) Config() EvaluatorConfig {
	return e.config
}

// Evaluate runs every configured timeframe, votes and attaches an order
// book snapshot.
func (e *Evaluator) Evaluate(ctx context.Context, symbol string) (Evaluation, error) {
	return e.EvaluateTimeframes(ctx, symbol, e.config.Timeframes)
}

// EvaluateTimeframes is Evaluate restricted to timeframes. Per-timeframe
// failures are reported in the result; only cancellation is an error.
func (e *Evaluator) EvaluateTimeframes(ctx context.Context, symbol string, timeframes []types.Timeframe) (Evaluation, error) {
	now := e.now().UTC()
	results := make([]TimeframeResult, len(timeframes))

	var g errgroup.Group

	g.SetLimit(maxConcurrentFetches)

	for i, tf := range timeframes {
		g.Go(func() error {
			results[i] = e.evaluateTimeframe(ctx, symbol, tf, now)

			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Evaluation{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "evaluation cancelled", err)
	}

	eval := Evaluation{
		Symbol:     symbol,
		Time:       now,
		Timeframes: results,
	}

	eval.Vote = signal.Vote(eval.Signals(), e.config.Vote)

	for i := range eval.Timeframes {
		if eval.Timeframes[i].Err == nil {
			eval.Timeframes[i].Weight = e.config.Vote.Weight(eval.Timeframes[i].Signal)
		}
	}

	if e.books != nil {
		summary, err := e.OrderBook(ctx, symbol)
		if err != nil {
			e.log.Warn("order book unavailable", zap.String("symbol", symbol), zap.Error(err))
		} else {
			eval.OrderBook = &summary
		}
	}

	e.log.Info("evaluation complete",
		zap.String("symbol", symbol),
		zap.String("decision", string(eval.Vote.Decision)),
		zap.Float64("long_score", eval.Vote.LongScore),
		zap.Float64("short_score", eval.Vote.ShortScore),
	)

	return eval, nil
}

// OrderBook returns a summary of the current order book.
func (e *Evaluator) OrderBook(ctx context.Context, symbol string) (marketdata.OrderBookSummary, error) {
	if e.books == nil {
		return marketdata.OrderBookSummary{}, errors.New(errors.ErrCodeOrderBookFailed, "no order book provider configured")
	}

	book, err := e.books.OrderBook(ctx, symbol)
	if err != nil {
		return marketdata.OrderBookSummary{}, err
	}

	return marketdata.Summarize(book, e.config.OrderBookDepth), nil
}

func (e *Evaluator) evaluateTimeframe(ctx context.Context, symbol string, tf types.Timeframe, now time.Time) TimeframeResult {
	result := TimeframeResult{
		Timeframe: tf,
		Signal:    types.HoldSignal(tf, now),
	}

	start := now.Add(-time.Duration(e.config.Lookback) * tf.MustDuration())

	bars, err := e.source.FetchBars(ctx, symbol, tf, start, now)
	if err != nil {
		result.Err = errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "fetch %s bars", tf)

		return result
	}

	bars = datasource.NormalizeBars(bars)
	result.Bars = len(bars)

	if len(bars) == 0 {
		result.Err = errors.NewInsufficientDataErrorf(1, 0, symbol, "no %s bars for %s", tf, symbol).WithTimeframe(string(tf))

		return result
	}

	result.LastPrice = bars[len(bars)-1].Close

	sig, err := e.generator.Generate(bars, tf)
	if err != nil {
		result.Err = errors.Wrapf(errors.ErrCodeSignalGenerationFailed, err, "generate %s signal", tf)

		return result
	}

	result.Signal = sig

	e.log.Debug("timeframe evaluated",
		zap.String("timeframe", string(tf)),
		zap.String("signal", string(sig.Kind)),
		zap.Float64("strength", sig.Strength),
		zap.Int("bars", len(bars)),
	)

	return result
}
