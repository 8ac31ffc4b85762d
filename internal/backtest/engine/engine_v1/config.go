package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

const (
	// DefaultWarmupDays is the buffer fetched before the start date so the
	// indicators are defined on the first simulated bar.
	DefaultWarmupDays = 2
	// DefaultMinBars is the minimum series length for a signal evaluation.
	DefaultMinBars = 35
	// DefaultRiskFreeRate is the annual rate used by sharpe and sortino.
	DefaultRiskFreeRate = 0.02
	// DefaultLookback is the period simulated when no start time is given.
	DefaultLookback = 30 * 24 * time.Hour
	// DefaultInitialCapital is the starting capital when none is configured.
	DefaultInitialCapital = 1000.0
)

// SelectableTimeframes lists the timeframe labels offered by the schema.
var SelectableTimeframes = []any{"15m", "30m", "1h", "4h", "1d", "3d"}

type BacktestEngineV1Config struct {
	Symbol         string                     `yaml:"symbol" json:"symbol" validate:"required" jsonschema:"title=Symbol,description=Instrument to backtest such as BTCUSDT,required"`
	Timeframes     []types.Timeframe          `yaml:"timeframes" json:"timeframes" validate:"required,min=1" jsonschema:"title=Timeframes,description=Timeframes to evaluate; the first one drives the simulation,required"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Start of the simulated period; defaults to 30 days before the end"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=End of the simulated period; defaults to now"`
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,exclusiveMinimum=0"`
	Risk           types.RiskConfig           `yaml:"risk" json:"risk" jsonschema:"title=Risk,description=Exit thresholds and position sizing"`
	WarmupDays     int                        `yaml:"warmup_days" json:"warmup_days" validate:"gte=0" jsonschema:"title=Warmup Days,description=Days of data fetched before the start time,minimum=0"`
	MinBars        int                        `yaml:"min_bars" json:"min_bars" validate:"gte=1" jsonschema:"title=Minimum Bars,description=Bars required before a timeframe is evaluated,minimum=1"`
	RiskFreeRate   float64                    `yaml:"risk_free_rate" json:"risk_free_rate" validate:"gte=0" jsonschema:"title=Risk Free Rate,description=Annual risk free rate for sharpe and sortino,minimum=0"`
	// IncludePriceData adds the primary timeframe bars and MACD values to the result.
	IncludePriceData bool `yaml:"include_price_data" json:"include_price_data" jsonschema:"title=Include Price Data,description=Attach bars and MACD series of the primary timeframe to the result"`
}

// riskOverrides is a partial risk block; omitted fields keep their defaults.
type riskOverrides struct {
	StopLossPct        *float64 `yaml:"stop_loss_pct"`
	TakeProfitPct      *float64 `yaml:"take_profit_pct"`
	TrailingStopPct    *float64 `yaml:"trailing_stop_pct"`
	MaxPositionSizePct *float64 `yaml:"max_position_size_pct"`
}

func (r riskOverrides) apply(risk *types.RiskConfig) {
	if r.StopLossPct != nil {
		risk.StopLossPct = *r.StopLossPct
	}

	if r.TakeProfitPct != nil {
		risk.TakeProfitPct = *r.TakeProfitPct
	}

	if r.TrailingStopPct != nil {
		risk.TrailingStopPct = *r.TrailingStopPct
	}

	if r.MaxPositionSizePct != nil {
		risk.MaxPositionSizePct = *r.MaxPositionSizePct
	}
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Omitted numeric fields keep their defaults.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		Symbol           string            `yaml:"symbol"`
		Timeframes       []types.Timeframe `yaml:"timeframes"`
		StartTime        *time.Time        `yaml:"start_time"`
		EndTime          *time.Time        `yaml:"end_time"`
		InitialCapital   *float64          `yaml:"initial_capital"`
		Risk             *riskOverrides    `yaml:"risk"`
		WarmupDays       *int              `yaml:"warmup_days"`
		MinBars          *int              `yaml:"min_bars"`
		RiskFreeRate     *float64          `yaml:"risk_free_rate"`
		IncludePriceData bool              `yaml:"include_price_data"`
	}

	var config Config
	if err := unmarshal(&config); err != nil {
		return err
	}

	*c = EmptyConfig()
	c.Symbol = config.Symbol
	c.IncludePriceData = config.IncludePriceData

	if len(config.Timeframes) > 0 {
		c.Timeframes = config.Timeframes
	}

	if config.StartTime != nil {
		c.StartTime = optional.Some(config.StartTime.UTC())
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(config.EndTime.UTC())
	}

	if config.InitialCapital != nil {
		c.InitialCapital = *config.InitialCapital
	}

	if config.Risk != nil {
		config.Risk.apply(&c.Risk)
	}

	if config.WarmupDays != nil {
		c.WarmupDays = *config.WarmupDays
	}

	if config.MinBars != nil {
		c.MinBars = *config.MinBars
	}

	if config.RiskFreeRate != nil {
		c.RiskFreeRate = *config.RiskFreeRate
	}

	return nil
}

// Validate checks the struct tags, the risk config and the timeframe labels.
func (c BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	if err := c.Risk.Validate(); err != nil {
		return err
	}

	labels := make([]string, len(c.Timeframes))
	for i, tf := range c.Timeframes {
		labels[i] = string(tf)
	}

	if _, err := types.ParseTimeframes(labels); err != nil {
		return err
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.StartTime.Unwrap().Before(c.EndTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "start_time must be before end_time")
	}

	return nil
}

// Period resolves the simulated period against now.
func (c BacktestEngineV1Config) Period(now time.Time) (time.Time, time.Time) {
	end := c.EndTime.TakeOr(now.UTC())
	start := c.StartTime.TakeOr(end.Add(-DefaultLookback))

	return start, end
}

// PrimaryTimeframe is the timeframe whose bars drive the simulation.
func (c BacktestEngineV1Config) PrimaryTimeframe() types.Timeframe {
	if len(c.Timeframes) == 0 {
		return ""
	}

	return c.Timeframes[0]
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.HasSuffix(t.String(), "types.Timeframe") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: SelectableTimeframes,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// DefaultRiskConfig is the risk profile used by the command line tools.
func DefaultRiskConfig() types.RiskConfig {
	return types.RiskConfig{
		StopLossPct:        0.02,
		TakeProfitPct:      0.04,
		TrailingStopPct:    0.015,
		MaxPositionSizePct: 0.95,
	}
}

// TestConfig returns a fully specified config for tests.
func TestConfig(symbol string, startTime time.Time, endTime time.Time, timeframes ...types.Timeframe) BacktestEngineV1Config {
	config := EmptyConfig()
	config.Symbol = symbol
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)
	config.InitialCapital = 10000

	if len(timeframes) > 0 {
		config.Timeframes = timeframes
	}

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Symbol:           "",
		Timeframes:       []types.Timeframe{types.Timeframe4h},
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		InitialCapital:   DefaultInitialCapital,
		Risk:             DefaultRiskConfig(),
		WarmupDays:       DefaultWarmupDays,
		MinBars:          DefaultMinBars,
		RiskFreeRate:     DefaultRiskFreeRate,
		IncludePriceData: false,
	}
}
