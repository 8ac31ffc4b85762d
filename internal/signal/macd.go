package signal

import (
	"math"

	"github.com/rxtech-lab/argo-macd/internal/indicator"
	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"go.uber.org/zap"
)

// Trend is the EMA20/EMA50 direction used to confirm crosses.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// MACDConfig tunes the histogram cross detector.
type MACDConfig struct {
	Fast      int `yaml:"fast" json:"fast" validate:"gt=0"`
	Slow      int `yaml:"slow" json:"slow" validate:"gtfield=Fast"`
	Signal    int `yaml:"signal" json:"signal" validate:"gt=0"`
	ATRPeriod int `yaml:"atr_period" json:"atr_period" validate:"gt=0"`
	TrendFast int `yaml:"trend_fast" json:"trend_fast" validate:"gt=0"`
	TrendSlow int `yaml:"trend_slow" json:"trend_slow" validate:"gtfield=TrendFast"`
	// MinBars below which the generator always holds.
	MinBars int `yaml:"min_bars" json:"min_bars" validate:"gt=1"`
	// PriceThresholdPct is the fraction of the close used as the unit threshold.
	PriceThresholdPct float64                     `yaml:"price_threshold_pct" json:"price_threshold_pct" validate:"gt=0"`
	BaseThreshold     float64                     `yaml:"base_threshold" json:"base_threshold" validate:"gt=0"`
	TimeframeFactors  map[types.Timeframe]float64 `yaml:"timeframe_factors" json:"timeframe_factors"`
	DefaultFactor     float64                     `yaml:"default_factor" json:"default_factor" validate:"gt=0"`
}

// DefaultMACDConfig returns MACD(12,26,9) with ATR(14), EMA20/EMA50 trend and
// per-timeframe factors that relax the threshold on longer timeframes.
func DefaultMACDConfig() MACDConfig {
	return MACDConfig{
		Fast:              indicator.DefaultMACDFast,
		Slow:              indicator.DefaultMACDSlow,
		Signal:            indicator.DefaultMACDSignal,
		ATRPeriod:         indicator.DefaultATRPeriod,
		TrendFast:         20,
		TrendSlow:         50,
		MinBars:           35,
		PriceThresholdPct: 0.001,
		BaseThreshold:     0.8,
		TimeframeFactors: map[types.Timeframe]float64{
			types.Timeframe15m: 0.5,
			types.Timeframe30m: 0.6,
			types.Timeframe1h:  0.7,
			types.Timeframe4h:  0.8,
			types.Timeframe1d:  0.9,
			types.Timeframe3d:  1.0,
		},
		DefaultFactor: 0.7,
	}
}

// ThresholdFactor is BaseThreshold scaled by the timeframe's factor.
func (c MACDConfig) ThresholdFactor(timeframe types.Timeframe) float64 {
	factor, ok := c.TimeframeFactors[timeframe]
	if !ok {
		factor = c.DefaultFactor
	}

	return c.BaseThreshold * factor
}

// Evaluation is the full breakdown behind one generated signal.
type Evaluation struct {
	Signal        types.Signal
	Price         float64
	MACD          float64
	SignalLine    float64
	Histogram     float64
	PrevHistogram float64
	ATR           float64
	Volatility    float64
	Threshold     float64
	Trend         Trend
}

// MACDGenerator emits buy/sell on histogram zero crosses confirmed by trend,
// and valley_buy/top_sell when the cross also clears the volatility threshold.
type MACDGenerator struct {
	config MACDConfig
	log    *logger.Logger
}

var _ Generator = (*MACDGenerator)(nil)

func NewMACDGenerator(config MACDConfig, log *logger.Logger) *MACDGenerator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &MACDGenerator{
		config: config,
		log:    log,
	}
}

func (g *MACDGenerator) Config() MACDConfig {
	return g.config
}

// Generate implements Generator.
func (g *MACDGenerator) Generate(bars []types.Bar, timeframe types.Timeframe) (types.Signal, error) {
	eval, err := g.Evaluate(bars, timeframe)
	if err != nil {
		return types.Signal{}, err
	}

	return eval.Signal, nil
}

// Evaluate classifies the last bar and returns the intermediate values.
func (g *MACDGenerator) Evaluate(bars []types.Bar, timeframe types.Timeframe) (Evaluation, error) {
	if len(bars) == 0 {
		return Evaluation{}, errors.NewInsufficientDataError(g.config.MinBars, 0, "", "no bars to evaluate").WithTimeframe(string(timeframe))
	}

	last := bars[len(bars)-1]
	eval := Evaluation{
		Signal: types.HoldSignal(timeframe, last.Time),
		Price:  last.Close,
	}

	if len(bars) < g.config.MinBars {
		g.log.Debug("Not enough bars for MACD, holding",
			zap.String("timeframe", string(timeframe)),
			zap.Int("bars", len(bars)),
			zap.Int("required", g.config.MinBars),
		)

		return eval, nil
	}

	closes := types.Closes(bars)

	macd, err := indicator.MACD(closes, g.config.Fast, g.config.Slow, g.config.Signal)
	if err != nil {
		return Evaluation{}, errors.Wrap(errors.ErrCodeSignalGenerationFailed, "failed to calculate MACD", err)
	}

	atr, err := indicator.ATR(bars, g.config.ATRPeriod)
	if err != nil {
		return Evaluation{}, errors.Wrap(errors.ErrCodeSignalGenerationFailed, "failed to calculate ATR", err)
	}

	trendFast, err := indicator.EMA(closes, g.config.TrendFast)
	if err != nil {
		return Evaluation{}, errors.Wrap(errors.ErrCodeSignalGenerationFailed, "failed to calculate fast trend EMA", err)
	}

	trendSlow, err := indicator.EMA(closes, g.config.TrendSlow)
	if err != nil {
		return Evaluation{}, errors.Wrap(errors.ErrCodeSignalGenerationFailed, "failed to calculate slow trend EMA", err)
	}

	eval.MACD = indicator.Last(macd.MACD)
	eval.SignalLine = indicator.Last(macd.Signal)
	eval.Histogram = indicator.Last(macd.Histogram)
	eval.PrevHistogram = indicator.LastN(macd.Histogram, 1)
	eval.ATR = indicator.Last(atr)

	if math.IsNaN(eval.Histogram) || math.IsNaN(eval.PrevHistogram) || math.IsNaN(eval.ATR) {
		return Evaluation{}, errors.Newf(errors.ErrCodeIndicatorCalculation, "indicators undefined for %d bars on %s", len(bars), timeframe)
	}

	priceThreshold := last.Close * g.config.PriceThresholdPct
	if priceThreshold <= 0 {
		return Evaluation{}, errors.Newf(errors.ErrCodeIndicatorCalculation, "non-positive close %f on %s", last.Close, timeframe)
	}

	eval.Volatility = eval.ATR / priceThreshold
	eval.Threshold = priceThreshold * g.config.ThresholdFactor(timeframe) * (1 + eval.Volatility)

	// an undefined slow EMA compares false, so short histories read as a downtrend
	eval.Trend = TrendDown
	if indicator.Last(trendFast) > indicator.Last(trendSlow) {
		eval.Trend = TrendUp
	}

	strength := math.Min(math.Abs(eval.Histogram)/eval.Threshold*(1+eval.Volatility), 1.0)
	kind := g.classify(eval)

	if !kind.IsHold() {
		eval.Signal.Kind = kind
		eval.Signal.Strength = strength
	}

	g.log.Debug("MACD evaluated",
		zap.String("timeframe", string(timeframe)),
		zap.Time("time", last.Time),
		zap.Float64("price", eval.Price),
		zap.Float64("histogram", eval.Histogram),
		zap.Float64("threshold", eval.Threshold),
		zap.Float64("volatility", eval.Volatility),
		zap.String("trend", string(eval.Trend)),
		zap.String("signal", string(eval.Signal.Kind)),
	)

	return eval, nil
}

func (g *MACDGenerator) classify(eval Evaluation) types.SignalKind {
	strong := math.Abs(eval.Histogram) > eval.Threshold

	switch {
	case eval.Histogram > 0 && eval.PrevHistogram <= 0:
		if eval.Trend != TrendUp {
			return types.SignalKindHold
		}

		if strong {
			return types.SignalKindValleyBuy
		}

		return types.SignalKindBuy
	case eval.Histogram < 0 && eval.PrevHistogram >= 0:
		if eval.Trend != TrendDown {
			return types.SignalKindHold
		}

		if strong {
			return types.SignalKindTopSell
		}

		return types.SignalKindSell
	default:
		return types.SignalKindHold
	}
}
