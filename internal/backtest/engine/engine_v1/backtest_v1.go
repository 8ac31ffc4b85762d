package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-macd/internal/backtest/engine"
	"github.com/rxtech-lab/argo-macd/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-macd/internal/indicator"
	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/risk"
	"github.com/rxtech-lab/argo-macd/internal/signal"
	"github.com/rxtech-lab/argo-macd/internal/stats"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/internal/version"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentFetches bounds the timeframe fetches running at once.
const maxConcurrentFetches = 4

// timeframeBars is the loaded series of one configured timeframe.
// A nil bars slice means the timeframe was dropped during loading.
type timeframeBars struct {
	timeframe types.Timeframe
	bars      []types.Bar
}

type BacktestEngineV1 struct {
	config    BacktestEngineV1Config
	source    datasource.BarSource
	generator signal.Generator
	log       *logger.Logger
	now       func() time.Time

	series    []timeframeBars
	startTime time.Time
	endTime   time.Time
	dataStart time.Time

	positions *risk.PositionManager
	state     *SimulationState
}

var _ engine.Engine = (*BacktestEngineV1)(nil)

// NewBacktestEngineV1 validates the config and wires the collaborators.
// A nil logger is replaced by a no-op logger.
func NewBacktestEngineV1(
	config BacktestEngineV1Config,
	source datasource.BarSource,
	generator signal.Generator,
	log *logger.Logger,
) (*BacktestEngineV1, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if source == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "bar source is required")
	}

	if generator == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "signal generator is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		config:    config,
		source:    source,
		generator: generator,
		log:       log.Named("backtest"),
		now:       time.Now,
		series:    nil,
		positions: nil,
		state:     nil,
	}, nil
}

// Config returns the engine configuration.
func (b *BacktestEngineV1) Config() BacktestEngineV1Config {
	return b.config
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	return b.config.GenerateSchemaJSON()
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(ctx context.Context) error {
	b.startTime, b.endTime = b.config.Period(b.now())
	b.dataStart = b.startTime.AddDate(0, 0, -b.config.WarmupDays)

	timeframes := b.config.Timeframes
	loaded := make([][]types.Bar, len(timeframes))
	loadErrs := make([]error, len(timeframes))

	var g errgroup.Group

	g.SetLimit(maxConcurrentFetches)

	for i, tf := range timeframes {
		g.Go(func() error {
			bars, err := b.source.FetchBars(ctx, b.config.Symbol, tf, b.dataStart, b.endTime)
			if err != nil {
				loadErrs[i] = err

				return nil
			}

			loaded[i] = datasource.NormalizeBars(bars)

			return nil
		})
	}

	// Every goroutine reports through loadErrs.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "backtest initialization cancelled", err)
	}

	series := make([]timeframeBars, len(timeframes))

	for i, tf := range timeframes {
		series[i] = timeframeBars{timeframe: tf, bars: nil}

		if i == 0 {
			if loadErrs[i] != nil {
				b.log.Error("Failed to load primary timeframe",
					zap.String("symbol", b.config.Symbol),
					zap.String("timeframe", string(tf)),
					zap.Error(loadErrs[i]),
				)

				return errors.NewInsufficientDataErrorf(b.config.MinBars, 0, b.config.Symbol,
					"failed to load primary timeframe %s for %s: %v", tf, b.config.Symbol, loadErrs[i]).
					WithTimeframe(string(tf))
			}

			if len(loaded[i]) < b.config.MinBars {
				return errors.NewInsufficientDataErrorf(b.config.MinBars, len(loaded[i]), b.config.Symbol,
					"primary timeframe %s for %s has %d bars, need at least %d",
					tf, b.config.Symbol, len(loaded[i]), b.config.MinBars).
					WithTimeframe(string(tf))
			}

			series[i].bars = loaded[i]

			continue
		}

		if loadErrs[i] != nil {
			b.log.Warn("Skipping timeframe, fetch failed",
				zap.String("timeframe", string(tf)),
				zap.Error(loadErrs[i]),
			)

			continue
		}

		if len(loaded[i]) < b.config.MinBars {
			b.log.Warn("Skipping timeframe, not enough bars",
				zap.String("timeframe", string(tf)),
				zap.Int("bars", len(loaded[i])),
				zap.Int("required", b.config.MinBars),
			)

			continue
		}

		series[i].bars = loaded[i]
	}

	b.series = series

	b.log.Info("Backtest initialized",
		zap.String("symbol", b.config.Symbol),
		zap.Time("data_start", b.dataStart),
		zap.Time("start", b.startTime),
		zap.Time("end", b.endTime),
		zap.Strings("timeframes", timeframeLabels(b.ActiveTimeframes())),
		zap.Int("primary_bars", len(series[0].bars)),
	)

	return nil
}

// ActiveTimeframes returns the configured timeframes that survived loading, in order.
func (b *BacktestEngineV1) ActiveTimeframes() []types.Timeframe {
	out := make([]types.Timeframe, 0, len(b.series))

	for _, s := range b.series {
		if s.bars != nil {
			out = append(out, s.timeframe)
		}
	}

	return out
}

// TotalBars returns the number of primary bars Run will process.
func (b *BacktestEngineV1) TotalBars() int {
	if len(b.series) == 0 {
		return 0
	}

	return len(b.series[0].bars)
}

// Run implements engine.Engine. Each call replays from a fresh state.
func (b *BacktestEngineV1) Run(callbacks engine.LifecycleCallbacks) (result types.BacktestResult, err error) {
	if len(b.series) == 0 {
		return types.BacktestResult{}, errors.New(errors.ErrCodeBacktestNotInitialized, "backtest engine is not initialized")
	}

	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(err)
		}()
	}

	b.positions, err = risk.NewPositionManager(b.config.Risk, b.log)
	if err != nil {
		return types.BacktestResult{}, err
	}

	primary := b.series[0].bars
	total := len(primary)

	// Warmup bars are iterated, so the seed point is the first primary bar.
	b.state = NewSimulationState(b.config.InitialCapital, primary[0].Time)

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(b.config.Symbol, b.ActiveTimeframes(), total); err != nil {
			return types.BacktestResult{}, errors.Wrap(errors.ErrCodeCallbackFailed, "backtest start callback failed", err)
		}
	}

	for i, bar := range primary {
		if err := b.processBar(bar, callbacks); err != nil {
			return types.BacktestResult{}, err
		}

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i+1, total); err != nil {
				return types.BacktestResult{}, errors.Wrap(errors.ErrCodeCallbackFailed, "process data callback failed", err)
			}
		}
	}

	return b.buildResult()
}

// processBar runs one step of the simulation at the close of bar.
func (b *BacktestEngineV1) processBar(bar types.Bar, callbacks engine.LifecycleCallbacks) error {
	t, price := bar.Time, bar.Close

	if b.positions.State() == risk.PositionStateOpen {
		check := b.positions.CheckExitSignals(price)
		if check.Exit {
			trade, ok := b.positions.ClosePosition(check.Price, t, check.Reason, nil)
			if ok {
				b.state.ApplyTrade(trade)
				b.state.Record(t)

				b.log.Debug("Position closed",
					zap.String("type", string(trade.Type)),
					zap.String("reason", string(trade.ExitReason)),
					zap.Float64("price", trade.ExitPrice),
					zap.Float64("pnl", trade.PnL),
					zap.Time("time", t),
				)

				if callbacks.OnTradeClosed != nil {
					if err := (*callbacks.OnTradeClosed)(trade); err != nil {
						return errors.Wrap(errors.ErrCodeCallbackFailed, "trade closed callback failed", err)
					}
				}
			}

			return nil
		}
	}

	signals := b.collectSignals(t)

	if b.positions.State() == risk.PositionStateFlat {
		b.maybeOpen(price, t, signals)
	}

	b.state.Record(t)

	return nil
}

// collectSignals evaluates every active timeframe on its bars up to t and
// returns the non-hold signals in timeframe order.
func (b *BacktestEngineV1) collectSignals(t time.Time) []types.Signal {
	signals := make([]types.Signal, 0, len(b.series))

	for _, s := range b.series {
		if s.bars == nil {
			continue
		}

		slice := datasource.UpTo(s.bars, t)
		if len(slice) < b.config.MinBars {
			continue
		}

		sig, err := b.generator.Generate(slice, s.timeframe)
		if err != nil {
			b.log.Warn("Signal generation failed, treating as hold",
				zap.String("timeframe", string(s.timeframe)),
				zap.Time("time", t),
				zap.Error(err),
			)

			continue
		}

		if sig.Kind.IsHold() {
			continue
		}

		signals = append(signals, sig)
	}

	return signals
}

// maybeOpen opens a position on the first signal with a direction.
func (b *BacktestEngineV1) maybeOpen(price float64, t time.Time, signals []types.Signal) {
	for _, sig := range signals {
		direction, ok := sig.Kind.Direction()
		if !ok {
			continue
		}

		position, err := b.positions.OpenPosition(direction, price, t, b.state.Capital(), signals)
		if err != nil {
			b.log.Warn("Failed to open position",
				zap.String("type", string(direction)),
				zap.Float64("price", price),
				zap.Error(err),
			)

			return
		}

		b.log.Debug("Position opened",
			zap.String("type", string(position.Type)),
			zap.String("timeframe", string(sig.Timeframe)),
			zap.String("signal", string(sig.Kind)),
			zap.Float64("price", position.EntryPrice),
			zap.Float64("size", position.Size),
			zap.Float64("stop_loss", position.StopLossPrice),
			zap.Float64("take_profit", position.TakeProfitPrice),
		)

		return
	}
}

func (b *BacktestEngineV1) buildResult() (types.BacktestResult, error) {
	trades := b.state.Trades()
	finalCapital := b.state.Capital()

	result := types.BacktestResult{
		ID:             uuid.New().String(),
		EngineVersion:  version.GetVersion(),
		Symbol:         b.config.Symbol,
		StartDate:      b.startTime,
		EndDate:        b.endTime,
		DataStart:      b.dataStart,
		Timeframes:     b.ActiveTimeframes(),
		Risk:           b.config.Risk,
		InitialCapital: b.config.InitialCapital,
		FinalCapital:   finalCapital,
		Statistics:     stats.Calculate(trades, b.config.InitialCapital, finalCapital, b.config.RiskFreeRate),
		Trades:         trades,
		BalanceHistory: b.state.BalanceHistory(),
		DrawdownSeries: b.state.DrawdownSeries(),
		PriceData:      nil,
		OpenPosition:   nil,
	}

	if position := b.positions.CurrentPosition(); position.IsSome() {
		open := position.Unwrap()
		result.OpenPosition = &open
	}

	if b.config.IncludePriceData {
		priceData, err := pricePoints(b.series[0].bars)
		if err != nil {
			return types.BacktestResult{}, err
		}

		result.PriceData = priceData
	}

	b.log.Info("Backtest completed",
		zap.String("id", result.ID),
		zap.Int("trades", len(trades)),
		zap.Float64("final_capital", finalCapital),
		zap.Float64("total_return", result.Statistics.TotalReturn),
	)

	return result, nil
}

// pricePoints pairs each bar with the MACD values of the series up to it.
func pricePoints(bars []types.Bar) ([]types.PricePoint, error) {
	macd, err := indicator.DefaultMACD(types.Closes(bars))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to compute price data MACD", err)
	}

	points := make([]types.PricePoint, len(bars))
	for i, bar := range bars {
		points[i] = types.PricePoint{
			Bar:       bar,
			MACD:      types.Metric(macd.MACD[i]),
			Signal:    types.Metric(macd.Signal[i]),
			Histogram: types.Metric(macd.Histogram[i]),
		}
	}

	return points, nil
}

func timeframeLabels(timeframes []types.Timeframe) []string {
	out := make([]string, len(timeframes))
	for i, tf := range timeframes {
		out[i] = string(tf)
	}

	return out
}
