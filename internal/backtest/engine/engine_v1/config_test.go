package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(DefaultInitialCapital, config.InitialCapital)
	suite.Equal([]types.Timeframe{types.Timeframe4h}, config.Timeframes)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.Equal(DefaultWarmupDays, config.WarmupDays)
	suite.Equal(DefaultMinBars, config.MinBars)
	suite.Equal(DefaultRiskConfig(), config.Risk)
	suite.False(config.IncludePriceData)
}

func (suite *ConfigTestSuite) TestTestConfig() {
	startTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	config := TestConfig("BTCUSDT", startTime, endTime, types.Timeframe1h, types.Timeframe4h)

	suite.Equal("BTCUSDT", config.Symbol)
	suite.Equal(10000.0, config.InitialCapital)
	suite.Equal(startTime, config.StartTime.Unwrap())
	suite.Equal(endTime, config.EndTime.Unwrap())
	suite.Equal(types.Timeframe1h, config.PrimaryTimeframe())
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestPeriodDefaults() {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	config := EmptyConfig()
	start, end := config.Period(now)
	suite.Equal(now, end)
	suite.Equal(now.Add(-DefaultLookback), start)

	config.EndTime = optional.Some(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	start, end = config.Period(now)
	suite.Equal(config.EndTime.Unwrap(), end)
	suite.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), start)
}

func (suite *ConfigTestSuite) TestValidate() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(c *BacktestEngineV1Config)
		code   errors.ErrorCode
	}{
		{"missing symbol", func(c *BacktestEngineV1Config) { c.Symbol = "" }, errors.ErrCodeBacktestConfigError},
		{"no timeframes", func(c *BacktestEngineV1Config) { c.Timeframes = nil }, errors.ErrCodeBacktestConfigError},
		{"zero capital", func(c *BacktestEngineV1Config) { c.InitialCapital = 0 }, errors.ErrCodeBacktestConfigError},
		{"zero min bars", func(c *BacktestEngineV1Config) { c.MinBars = 0 }, errors.ErrCodeBacktestConfigError},
		{"bad timeframe", func(c *BacktestEngineV1Config) { c.Timeframes = []types.Timeframe{"4x"} }, errors.ErrCodeInvalidTimeframe},
		{"duplicate timeframe", func(c *BacktestEngineV1Config) {
			c.Timeframes = []types.Timeframe{types.Timeframe4h, types.Timeframe4h}
		}, errors.ErrCodeInvalidTimeframe},
		{"reversed period", func(c *BacktestEngineV1Config) {
			c.StartTime, c.EndTime = c.EndTime, c.StartTime
		}, errors.ErrCodeBacktestConfigError},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			config := TestConfig("BTCUSDT", start, end)
			tt.mutate(&config)

			err := config.Validate()
			suite.Require().Error(err)
			suite.Equal(tt.code, errors.GetCode(err))
		})
	}

	suite.Run("risk out of range", func() {
		config := TestConfig("BTCUSDT", start, end)
		config.Risk.StopLossPct = 1.5

		err := config.Validate()
		suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError) || errors.HasCode(err, errors.ErrCodeInvalidRiskConfig))
	})
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	suite.NoError(err)
	suite.NotNil(schema)
	suite.Equal("backtest-engine-v1-config", schema.Title)
	suite.Equal("Configuration schema for BacktestEngineV1", schema.Description)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()

	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	var result map[string]interface{}
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &result))
	suite.Equal("backtest-engine-v1-config", result["title"])
	suite.Contains(schemaJSON, "initial_capital")
	suite.Contains(schemaJSON, "date-time")
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLComplete() {
	yamlData := `
symbol: ETHUSDT
timeframes: [1h, 4h, 1d]
start_time: 2024-01-01T00:00:00Z
end_time: 2024-03-01T00:00:00Z
initial_capital: 5000
risk:
  stop_loss_pct: 0.03
  take_profit_pct: 0.06
  trailing_stop_pct: 0.02
  max_position_size_pct: 0.5
warmup_days: 5
min_bars: 50
risk_free_rate: 0.04
include_price_data: true
`

	var config BacktestEngineV1Config
	suite.Require().NoError(yaml.Unmarshal([]byte(yamlData), &config))

	suite.Equal("ETHUSDT", config.Symbol)
	suite.Equal([]types.Timeframe{types.Timeframe1h, types.Timeframe4h, types.Timeframe1d}, config.Timeframes)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), config.StartTime.Unwrap())
	suite.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), config.EndTime.Unwrap())
	suite.Equal(5000.0, config.InitialCapital)
	suite.Equal(0.03, config.Risk.StopLossPct)
	suite.Equal(0.5, config.Risk.MaxPositionSizePct)
	suite.Equal(5, config.WarmupDays)
	suite.Equal(50, config.MinBars)
	suite.Equal(0.04, config.RiskFreeRate)
	suite.True(config.IncludePriceData)
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLKeepsDefaults() {
	yamlData := `
symbol: BTCUSDT
end_time: 2024-12-01T00:00:00Z
`

	var config BacktestEngineV1Config
	suite.Require().NoError(yaml.Unmarshal([]byte(yamlData), &config))

	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsSome())
	suite.Equal(DefaultInitialCapital, config.InitialCapital)
	suite.Equal(DefaultRiskConfig(), config.Risk)
	suite.Equal(DefaultMinBars, config.MinBars)
	suite.Equal([]types.Timeframe{types.Timeframe4h}, config.Timeframes)
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLPartialRisk() {
	yamlData := `
symbol: BTCUSDT
risk:
  stop_loss_pct: 0.03
`

	var config BacktestEngineV1Config
	suite.Require().NoError(yaml.Unmarshal([]byte(yamlData), &config))

	expected := DefaultRiskConfig()
	expected.StopLossPct = 0.03

	suite.Equal(expected, config.Risk)
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestPeriodExplicit() {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	startTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	start, end := TestConfig("BTCUSDT", startTime, endTime).Period(now)
	suite.Equal(startTime, start)
	suite.Equal(endTime, end)
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLInvalid() {
	yamlData := `
initial_capital: not_a_number
`

	var config BacktestEngineV1Config
	suite.Error(yaml.Unmarshal([]byte(yamlData), &config))
}
