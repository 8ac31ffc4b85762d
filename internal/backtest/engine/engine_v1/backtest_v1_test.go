package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-macd/internal/backtest/engine"
	"github.com/rxtech-lab/argo-macd/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-macd/internal/signal"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/mocks"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const testSymbol = "BTCUSDT"

type BacktestEngineV1TestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	source    *mocks.MockBarSource
	generator *mocks.MockGenerator
	base      time.Time
}

func TestBacktestEngineV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestEngineV1TestSuite))
}

func (suite *BacktestEngineV1TestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.source = mocks.NewMockBarSource(suite.ctrl)
	suite.generator = mocks.NewMockGenerator(suite.ctrl)
	suite.base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *BacktestEngineV1TestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *BacktestEngineV1TestSuite) config(timeframes ...types.Timeframe) BacktestEngineV1Config {
	config := TestConfig(testSymbol, suite.base, suite.base.Add(40*4*time.Hour), timeframes...)
	config.Risk = types.RiskConfig{
		StopLossPct:        0.02,
		TakeProfitPct:      0.04,
		TrailingStopPct:    0.015,
		MaxPositionSizePct: 0.5,
	}

	return config
}

// flatBars returns count 4h bars at price 100 with overrides by index.
func (suite *BacktestEngineV1TestSuite) flatBars(count int, overrides map[int]float64) []types.Bar {
	bars := mocks.FlatBars(testSymbol, suite.base, 4*time.Hour, count, 100)
	for i, price := range overrides {
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = price, price, price, price
	}

	return bars
}

// signalAt answers kind when the slice ends at index at, hold otherwise.
func signalAt(at int, kind types.SignalKind) func([]types.Bar, types.Timeframe) (types.Signal, error) {
	return func(bars []types.Bar, tf types.Timeframe) (types.Signal, error) {
		last := bars[len(bars)-1].Time
		if len(bars) == at+1 {
			return types.Signal{Time: last, Timeframe: tf, Kind: kind, Strength: 1.0}, nil
		}

		return types.HoldSignal(tf, last), nil
	}
}

func (suite *BacktestEngineV1TestSuite) newEngine(config BacktestEngineV1Config) *BacktestEngineV1 {
	b, err := NewBacktestEngineV1(config, suite.source, suite.generator, nil)
	suite.Require().NoError(err)

	return b
}

func (suite *BacktestEngineV1TestSuite) runEngine(config BacktestEngineV1Config) types.BacktestResult {
	b := suite.newEngine(config)
	suite.Require().NoError(b.Initialize(context.Background()))

	result, err := b.Run(engine.LifecycleCallbacks{})
	suite.Require().NoError(err)

	return result
}

func (suite *BacktestEngineV1TestSuite) TestBuyAtBar36RemainsOpen() {
	bars := suite.flatBars(40, nil)
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(bars, nil)
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe4h).DoAndReturn(signalAt(36, types.SignalKindBuy)).AnyTimes()

	result := suite.runEngine(suite.config(types.Timeframe4h))

	suite.Empty(result.Trades)
	suite.Require().NotNil(result.OpenPosition)
	suite.Equal(types.PositionTypeLong, result.OpenPosition.Type)
	suite.Equal(100.0, result.OpenPosition.EntryPrice)
	suite.True(result.OpenPosition.EntryTime.Equal(bars[36].Time))
	suite.Equal(10000.0, result.FinalCapital)
	suite.Zero(result.Statistics.TotalTrades)
	suite.Zero(result.Statistics.MaxDrawdown)
	suite.Equal(40, result.BalanceHistory.Len())
}

func (suite *BacktestEngineV1TestSuite) TestBuyAtBar36ClosesOnTakeProfit() {
	bars := suite.flatBars(40, map[int]float64{38: 105})
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(bars, nil)
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe4h).DoAndReturn(signalAt(36, types.SignalKindBuy)).AnyTimes()

	result := suite.runEngine(suite.config(types.Timeframe4h))

	suite.Require().Len(result.Trades, 1)
	trade := result.Trades[0]
	suite.Equal(types.PositionTypeLong, trade.Type)
	suite.Equal(types.ExitReasonTakeProfit, trade.ExitReason)
	suite.Equal(100.0, trade.EntryPrice)
	suite.Equal(105.0, trade.ExitPrice)
	suite.InDelta(50.0, trade.Size, 1e-9)
	suite.InDelta(250.0, trade.PnL, 1e-9)
	suite.True(trade.ExitTime.After(trade.EntryTime))
	suite.Len(trade.EntrySignals, 1)
	suite.Empty(trade.ExitSignals)

	suite.Nil(result.OpenPosition)
	suite.InDelta(10250.0, result.FinalCapital, 1e-9)
	suite.Equal(1, result.Statistics.WinningTrades)

	balance, ok := result.BalanceHistory.Get(bars[38].Time)
	suite.True(ok)
	suite.InDelta(10250.0, balance, 1e-9)
}

func (suite *BacktestEngineV1TestSuite) TestStopLossShort() {
	bars := suite.flatBars(40, map[int]float64{37: 103})
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(bars, nil)
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe4h).DoAndReturn(signalAt(35, types.SignalKindTopSell)).AnyTimes()

	result := suite.runEngine(suite.config(types.Timeframe4h))

	suite.Require().Len(result.Trades, 1)
	suite.Equal(types.PositionTypeShort, result.Trades[0].Type)
	suite.Equal(types.ExitReasonStopLoss, result.Trades[0].ExitReason)
	suite.InDelta(-150.0, result.Trades[0].PnL, 1e-9)

	drawdown, ok := result.DrawdownSeries.Get(bars[37].Time)
	suite.True(ok)
	suite.InDelta(150.0/10000.0, drawdown, 1e-12)
	suite.InDelta(0.015, result.Statistics.MaxDrawdown, 1e-12)
}

func (suite *BacktestEngineV1TestSuite) TestNoEntryOnExitBar() {
	bars := suite.flatBars(40, map[int]float64{38: 105})
	seen := map[int]bool{}

	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(bars, nil)
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe4h).DoAndReturn(
		func(b []types.Bar, tf types.Timeframe) (types.Signal, error) {
			seen[len(b)-1] = true
			last := b[len(b)-1].Time
			if len(b)-1 >= 36 {
				return types.Signal{Time: last, Timeframe: tf, Kind: types.SignalKindBuy, Strength: 1}, nil
			}

			return types.HoldSignal(tf, last), nil
		}).AnyTimes()

	result := suite.runEngine(suite.config(types.Timeframe4h))

	suite.False(seen[38], "signals must not be evaluated on the exit bar")
	suite.True(seen[39])
	suite.Require().Len(result.Trades, 1)
	suite.Require().NotNil(result.OpenPosition)
	suite.True(result.OpenPosition.EntryTime.Equal(bars[39].Time))
}

func (suite *BacktestEngineV1TestSuite) TestFirstQualifyingSignalWins() {
	primary := suite.flatBars(40, nil)
	secondary := mocks.FlatBars(testSymbol, suite.base, time.Hour, 160, 100)

	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(primary, nil)
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe1h, gomock.Any(), gomock.Any()).Return(secondary, nil)
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe4h).DoAndReturn(signalAt(36, types.SignalKindSell)).AnyTimes()
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe1h).DoAndReturn(
		func(b []types.Bar, tf types.Timeframe) (types.Signal, error) {
			return types.Signal{Time: b[len(b)-1].Time, Timeframe: tf, Kind: types.SignalKindValleyBuy, Strength: 1}, nil
		}).AnyTimes()

	// The 1h series reaches the minimum bar count first, so its valley_buy opens a long.
	result := suite.runEngine(suite.config(types.Timeframe4h, types.Timeframe1h))
	suite.Require().NotNil(result.OpenPosition)
	suite.Equal(types.PositionTypeLong, result.OpenPosition.Type)
	suite.Equal([]types.Timeframe{types.Timeframe4h, types.Timeframe1h}, result.Timeframes)

	suite.Require().NotEmpty(result.OpenPosition.EntrySignals)
	suite.Equal(types.Timeframe1h, result.OpenPosition.EntrySignals[0].Timeframe)
}

func (suite *BacktestEngineV1TestSuite) TestPrimaryOrderBreaksTies() {
	primary := suite.flatBars(40, nil)
	secondary := mocks.FlatBars(testSymbol, suite.base, time.Hour, 160, 100)

	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(primary, nil)
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe1h, gomock.Any(), gomock.Any()).Return(secondary, nil)
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe4h).DoAndReturn(signalAt(36, types.SignalKindSell)).AnyTimes()
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe1h).DoAndReturn(
		func(b []types.Bar, tf types.Timeframe) (types.Signal, error) {
			last := b[len(b)-1].Time
			if last.Equal(primary[36].Time) {
				return types.Signal{Time: last, Timeframe: tf, Kind: types.SignalKindBuy, Strength: 1}, nil
			}

			return types.HoldSignal(tf, last), nil
		}).AnyTimes()

	result := suite.runEngine(suite.config(types.Timeframe4h, types.Timeframe1h))

	suite.Require().NotNil(result.OpenPosition)
	suite.Equal(types.PositionTypeShort, result.OpenPosition.Type)
	suite.Len(result.OpenPosition.EntrySignals, 2)
}

func (suite *BacktestEngineV1TestSuite) TestGeneratorErrorIsHold() {
	bars := suite.flatBars(40, nil)
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(bars, nil)
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe4h).
		Return(types.Signal{}, errors.New(errors.ErrCodeSignalGenerationFailed, "boom")).AnyTimes()

	result := suite.runEngine(suite.config(types.Timeframe4h))

	suite.Empty(result.Trades)
	suite.Nil(result.OpenPosition)
	suite.Equal(10000.0, result.FinalCapital)
}

func (suite *BacktestEngineV1TestSuite) TestGeneratorOnlySeesEnoughBars() {
	bars := suite.flatBars(40, nil)
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(bars, nil)
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe4h).DoAndReturn(
		func(b []types.Bar, tf types.Timeframe) (types.Signal, error) {
			suite.GreaterOrEqual(len(b), DefaultMinBars)

			return types.HoldSignal(tf, b[len(b)-1].Time), nil
		}).Times(40 - DefaultMinBars + 1)

	suite.runEngine(suite.config(types.Timeframe4h))
}

func (suite *BacktestEngineV1TestSuite) TestInsufficientPrimaryData() {
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(suite.flatBars(20, nil), nil)

	b := suite.newEngine(suite.config(types.Timeframe4h))
	err := b.Initialize(context.Background())

	suite.Require().Error(err)
	suite.True(errors.IsInsufficientDataError(err))

	var insufficient *errors.InsufficientDataError
	suite.Require().True(errors.As(err, &insufficient))
	suite.Equal(DefaultMinBars, insufficient.Required)
	suite.Equal(20, insufficient.Actual)
	suite.Equal("4h", insufficient.Timeframe)
}

func (suite *BacktestEngineV1TestSuite) TestPrimaryFetchErrorIsInsufficientData() {
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("exchange down"))

	b := suite.newEngine(suite.config(types.Timeframe4h))
	err := b.Initialize(context.Background())

	suite.True(errors.IsInsufficientDataError(err))
	suite.Contains(err.Error(), "exchange down")
}

func (suite *BacktestEngineV1TestSuite) TestSecondaryFailuresAreSkipped() {
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(suite.flatBars(40, nil), nil)
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe1h, gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("timeout"))
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe1d, gomock.Any(), gomock.Any()).
		Return(mocks.FlatBars(testSymbol, suite.base, 24*time.Hour, 7, 100), nil)
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe4h).DoAndReturn(signalAt(36, types.SignalKindHold)).AnyTimes()

	b := suite.newEngine(suite.config(types.Timeframe4h, types.Timeframe1h, types.Timeframe1d))
	suite.Require().NoError(b.Initialize(context.Background()))
	suite.Equal([]types.Timeframe{types.Timeframe4h}, b.ActiveTimeframes())
	suite.Equal(40, b.TotalBars())

	result, err := b.Run(engine.LifecycleCallbacks{})
	suite.Require().NoError(err)
	suite.Equal([]types.Timeframe{types.Timeframe4h}, result.Timeframes)
}

func (suite *BacktestEngineV1TestSuite) TestBalanceHistoryWithTradeDuringWarmup() {
	bars := mocks.FlatBars(testSymbol, suite.base.Add(4*time.Hour), 4*time.Hour, 80, 100)
	bars[38].Open, bars[38].High, bars[38].Low, bars[38].Close = 105, 105, 105, 105

	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(bars, nil)
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe4h).DoAndReturn(signalAt(36, types.SignalKindBuy)).AnyTimes()

	start := suite.base.AddDate(0, 0, 10).Add(2 * time.Hour)
	config := suite.config(types.Timeframe4h)
	config.StartTime = optional.Some(start)
	config.EndTime = optional.Some(bars[79].Time.Add(4 * time.Hour))
	config.WarmupDays = 10

	result := suite.runEngine(config)
	suite.Require().Len(result.Trades, 1)
	suite.True(result.Trades[0].ExitTime.Before(start))

	_, ok := result.BalanceHistory.Get(start)
	suite.False(ok)

	points := result.BalanceHistory.Points()
	suite.Require().Len(points, len(bars))
	suite.True(points[0].Time.Equal(bars[0].Time))

	changes := 0
	for i := 1; i < len(points); i++ {
		if points[i].Value != points[i-1].Value {
			changes++
		}
	}

	suite.Equal(len(result.Trades), changes)
	suite.InDelta(10000.0, points[37].Value, 1e-9)
	suite.InDelta(10250.0, points[38].Value, 1e-9)
	suite.InDelta(10250.0, points[len(points)-1].Value, 1e-9)
	suite.Equal(0.0, result.DrawdownSeries.Max())
}

func (suite *BacktestEngineV1TestSuite) TestFetchWindowIncludesWarmup() {
	config := suite.config(types.Timeframe4h)

	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h,
		suite.base.AddDate(0, 0, -DefaultWarmupDays), config.EndTime.Unwrap()).Return(suite.flatBars(40, nil), nil)

	b := suite.newEngine(config)
	suite.Require().NoError(b.Initialize(context.Background()))
}

func (suite *BacktestEngineV1TestSuite) TestRunBeforeInitialize() {
	b := suite.newEngine(suite.config(types.Timeframe4h))

	_, err := b.Run(engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNotInitialized))
}

func (suite *BacktestEngineV1TestSuite) TestNewEngineValidates() {
	config := suite.config(types.Timeframe4h)
	config.Risk.MaxPositionSizePct = 0

	_, err := NewBacktestEngineV1(config, suite.source, suite.generator, nil)
	suite.Error(err)

	_, err = NewBacktestEngineV1(suite.config(types.Timeframe4h), nil, suite.generator, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *BacktestEngineV1TestSuite) TestCallbacks() {
	bars := suite.flatBars(40, map[int]float64{38: 105})
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(bars, nil)
	suite.generator.EXPECT().Generate(gomock.Any(), types.Timeframe4h).DoAndReturn(signalAt(36, types.SignalKindBuy)).AnyTimes()

	b := suite.newEngine(suite.config(types.Timeframe4h))
	suite.Require().NoError(b.Initialize(context.Background()))

	var (
		started  int
		progress []int
		closed   []types.Trade
		endErr   = fmt.Errorf("not called")
	)

	onStart := engine.OnBacktestStartCallback(func(symbol string, timeframes []types.Timeframe, total int) error {
		suite.Equal(testSymbol, symbol)
		started = total

		return nil
	})
	onProcess := engine.OnProcessDataCallback(func(current, total int) error {
		progress = append(progress, current)

		return nil
	})
	onTrade := engine.OnTradeClosedCallback(func(trade types.Trade) error {
		closed = append(closed, trade)

		return nil
	})
	onEnd := engine.OnBacktestEndCallback(func(err error) {
		endErr = err
	})

	_, err := b.Run(engine.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnBacktestEnd:   &onEnd,
		OnProcessData:   &onProcess,
		OnTradeClosed:   &onTrade,
	})
	suite.Require().NoError(err)

	suite.Equal(40, started)
	suite.Len(progress, 40)
	suite.Equal(40, progress[39])
	suite.Len(closed, 1)
	suite.NoError(endErr)
}

func (suite *BacktestEngineV1TestSuite) TestCallbackErrorAborts() {
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(suite.flatBars(40, nil), nil)
	suite.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(signalAt(36, types.SignalKindHold)).AnyTimes()

	b := suite.newEngine(suite.config(types.Timeframe4h))
	suite.Require().NoError(b.Initialize(context.Background()))

	var endErr error

	onProcess := engine.OnProcessDataCallback(func(current, total int) error {
		if current == 10 {
			return fmt.Errorf("stop")
		}

		return nil
	})
	onEnd := engine.OnBacktestEndCallback(func(err error) {
		endErr = err
	})

	_, err := b.Run(engine.LifecycleCallbacks{OnProcessData: &onProcess, OnBacktestEnd: &onEnd})
	suite.True(errors.HasCode(err, errors.ErrCodeCallbackFailed))
	suite.Equal(err, endErr)
}

func (suite *BacktestEngineV1TestSuite) TestIncludePriceData() {
	suite.source.EXPECT().FetchBars(gomock.Any(), testSymbol, types.Timeframe4h, gomock.Any(), gomock.Any()).Return(suite.flatBars(40, nil), nil)
	suite.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(signalAt(36, types.SignalKindHold)).AnyTimes()

	config := suite.config(types.Timeframe4h)
	config.IncludePriceData = true

	result := suite.runEngine(config)

	suite.Require().Len(result.PriceData, 40)
	suite.Equal(100.0, result.PriceData[39].Close)
	suite.InDelta(0.0, result.PriceData[39].Histogram.Float64(), 1e-9)
}

// Two independent runs over the same bars with the real MACD generator
// produce identical ledgers.
func (suite *BacktestEngineV1TestSuite) TestDeterministic() {
	gen := mocks.NewDataGenerator(7)

	hourly := mocks.DefaultConfig()
	hourly.Count = 24 * 30
	hourly.InitialPrice = 100
	hourly.Volatility = 0.002

	fourHourly := hourly
	fourHourly.Interval = 4 * time.Hour
	fourHourly.Count = 6 * 30

	source := datasource.NewMemorySource()
	source.Set(testSymbol, types.Timeframe1h, gen.GenerateWave(hourly, 48, 0.06))
	source.Set(testSymbol, types.Timeframe4h, gen.GenerateWave(fourHourly, 24, 0.08))

	config := TestConfig(testSymbol, hourly.StartTime.AddDate(0, 0, 2), hourly.StartTime.AddDate(0, 0, 30), types.Timeframe1h, types.Timeframe4h)

	run := func() types.BacktestResult {
		b, err := NewBacktestEngineV1(config, source, signal.NewMACDGenerator(signal.DefaultMACDConfig(), nil), nil)
		suite.Require().NoError(err)
		suite.Require().NoError(b.Initialize(context.Background()))

		result, err := b.Run(engine.LifecycleCallbacks{})
		suite.Require().NoError(err)

		return result
	}

	first := run()
	second := run()

	suite.NotEqual(first.ID, second.ID)
	suite.Equal(first.Trades, second.Trades)
	suite.Equal(first.Statistics, second.Statistics)
	suite.Equal(first.BalanceHistory.Points(), second.BalanceHistory.Points())
	suite.Equal(first.DrawdownSeries.Points(), second.DrawdownSeries.Points())
	suite.Equal(first.OpenPosition, second.OpenPosition)
}
