package marketdata

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata/provider"
)

// downloadIntervals mirrors the interval enum of BaseDownloadConfig.
var downloadIntervals = []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d", "3d", "1w"}

type DownloadConfigTestSuite struct {
	suite.Suite
}

func TestDownloadConfigTestSuite(t *testing.T) {
	suite.Run(t, new(DownloadConfigTestSuite))
}

func baseConfig(interval string) BaseDownloadConfig {
	return BaseDownloadConfig{
		Ticker:    "BTCUSDT",
		StartDate: "2024-01-01T00:00:00Z",
		EndDate:   "2024-02-01T00:00:00Z",
		Interval:  interval,
	}
}

func (suite *DownloadConfigTestSuite) TestIntervalsMapToEveryProvider() {
	for _, interval := range downloadIntervals {
		config := &BinanceDownloadConfig{BaseDownloadConfig: baseConfig(interval)}
		suite.Require().NoError(config.Validate(), interval)

		params, err := config.ToDownloadParams()
		suite.Require().NoError(err, interval)
		suite.Equal(types.Timeframe(interval), params.Timeframe)

		_, err = params.Timeframe.Duration()
		suite.NoError(err, interval)

		_, err = provider.BinanceInterval(params.Timeframe)
		suite.NoError(err, interval)

		_, _, err = provider.PolygonTimespan(params.Timeframe)
		suite.NoError(err, interval)
	}
}

func (suite *DownloadConfigTestSuite) TestRejectedIntervals() {
	for _, interval := range []string{"2h", "12h", "1M", "", "4H"} {
		config := &BinanceDownloadConfig{BaseDownloadConfig: baseConfig(interval)}
		err := config.Validate()
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration), interval)
	}
}

func (suite *DownloadConfigTestSuite) TestValidationErrors() {
	tests := []struct {
		name   string
		mutate func(c *PolygonDownloadConfig)
		code   errors.ErrorCode
	}{
		{name: "missing ticker", mutate: func(c *PolygonDownloadConfig) { c.Ticker = "" }, code: errors.ErrCodeInvalidConfiguration},
		{name: "missing api key", mutate: func(c *PolygonDownloadConfig) { c.ApiKey = "" }, code: errors.ErrCodeInvalidConfiguration},
		{name: "date only", mutate: func(c *PolygonDownloadConfig) { c.StartDate = "2024-01-01" }, code: errors.ErrCodeInvalidConfiguration},
		{name: "end before start", mutate: func(c *PolygonDownloadConfig) { c.EndDate = "2023-12-31T00:00:00Z" }, code: errors.ErrCodeInvalidPeriod},
		{name: "empty period", mutate: func(c *PolygonDownloadConfig) { c.EndDate = c.StartDate }, code: errors.ErrCodeInvalidPeriod},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			config := &PolygonDownloadConfig{BaseDownloadConfig: baseConfig("4h"), ApiKey: "key"}
			tt.mutate(config)

			suite.True(errors.HasCode(config.Validate(), tt.code))
		})
	}
}

func (suite *DownloadConfigTestSuite) TestToDownloadParams() {
	config := BaseDownloadConfig{
		Ticker:    "ETHUSDT",
		StartDate: "2024-03-01T02:00:00+02:00",
		EndDate:   "2024-03-05T00:00:00Z",
		Interval:  "3d",
	}

	params, err := config.ToDownloadParams()
	suite.Require().NoError(err)

	suite.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), params.StartDate)
	suite.Equal("ETHUSDT_2024-03-01_2024-03-05_3d.parquet", params.OutputFileName())
}

func (suite *DownloadConfigTestSuite) TestToClientConfig() {
	polygon := &PolygonDownloadConfig{BaseDownloadConfig: baseConfig("1d"), ApiKey: "key"}
	suite.Equal(ClientConfig{
		ProviderType:  ProviderPolygon,
		WriterType:    WriterDuckDB,
		DataPath:      "data",
		PolygonApiKey: "key",
	}, polygon.ToClientConfig("data"))

	binance := &BinanceDownloadConfig{BaseDownloadConfig: baseConfig("1d")}
	suite.Equal(ProviderBinance, binance.ToClientConfig("data").ProviderType)
	suite.Empty(binance.ToClientConfig("data").PolygonApiKey)
}

func (suite *DownloadConfigTestSuite) TestSchemaIntervalEnum() {
	for _, name := range GetSupportedProviders() {
		schema, err := GetDownloadConfigSchema(name)
		suite.Require().NoError(err)

		var parsed struct {
			Properties map[string]struct {
				Enum []string `json:"enum"`
			} `json:"properties"`
			Required []string `json:"required"`
		}
		suite.Require().NoError(json.Unmarshal([]byte(schema), &parsed))

		suite.Equal(downloadIntervals, parsed.Properties["interval"].Enum, name)
		suite.Contains(parsed.Required, "interval", name)
		_, hasKey := parsed.Properties["apiKey"]
		suite.Equal(name == string(ProviderPolygon), hasKey, name)
	}
}
