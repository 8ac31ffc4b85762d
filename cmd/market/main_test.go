package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

type DownloadParamsTestSuite struct {
	suite.Suite
	start time.Time
	end   time.Time
}

func TestDownloadParamsSuite(t *testing.T) {
	suite.Run(t, new(DownloadParamsTestSuite))
}

func (suite *DownloadParamsTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.end = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *DownloadParamsTestSuite) TestValid() {
	params, err := downloadParams(" btcusdt ", "4h", suite.start, suite.end)
	suite.Require().NoError(err)

	suite.Equal("BTCUSDT", params.Symbol)
	suite.Equal(types.Timeframe4h, params.Timeframe)
	suite.Equal("BTCUSDT_2024-01-01_2024-02-01_4h.parquet", params.OutputFileName())
}

func (suite *DownloadParamsTestSuite) TestInvalidTimeframe() {
	_, err := downloadParams("BTCUSDT", "7x", suite.start, suite.end)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))
}

func (suite *DownloadParamsTestSuite) TestEndBeforeStart() {
	_, err := downloadParams("BTCUSDT", "1h", suite.end, suite.start)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))

	_, err = downloadParams("BTCUSDT", "1h", suite.start, suite.start)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *DownloadParamsTestSuite) TestCommandTree() {
	cmd := newCommand()

	names := make([]string, 0, len(cmd.Commands))
	for _, sub := range cmd.Commands {
		names = append(names, sub.Name)
	}

	suite.Equal([]string{"download", "providers"}, names)
}
