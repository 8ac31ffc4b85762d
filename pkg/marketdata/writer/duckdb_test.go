package writer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-macd/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

type DuckDBWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestDuckDBWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBWriterTestSuite))
}

func (suite *DuckDBWriterTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *DuckDBWriterTestSuite) newWriter(name string) (BarWriter, string) {
	path := filepath.Join(suite.tempDir, name)

	return NewDuckDBWriter(path, logger.NewNopLogger()), path
}

func testBar(i int) types.Bar {
	return types.Bar{
		Symbol: "BTCUSDT",
		Time:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		Open:   60000 + float64(i),
		High:   60100 + float64(i),
		Low:    59900 + float64(i),
		Close:  60050 + float64(i),
		Volume: 12.5,
	}
}

func (suite *DuckDBWriterTestSuite) TestNewDuckDBWriter() {
	w, path := suite.newWriter("new.parquet")

	duckWriter, ok := w.(*DuckDBWriter)
	suite.Require().True(ok)
	suite.Equal(path, duckWriter.GetOutputPath())
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
}

func (suite *DuckDBWriterTestSuite) TestWriteWithoutInitialize() {
	w, _ := suite.newWriter("no_init.parquet")

	err := w.Write(testBar(0))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))
	suite.Contains(err.Error(), "not initialized")
}

func (suite *DuckDBWriterTestSuite) TestFinalizeWithoutInitialize() {
	w, _ := suite.newWriter("finalize_no_init.parquet")

	_, err := w.Finalize()
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")
}

func (suite *DuckDBWriterTestSuite) TestFullWorkflowReadsBack() {
	w, path := suite.newWriter("workflow.parquet")
	suite.Require().NoError(w.Initialize())

	// written out of order; the export sorts by time
	for _, i := range []int{2, 0, 1, 4, 3} {
		suite.Require().NoError(w.Write(testBar(i)))
	}

	out, err := w.Finalize()
	suite.Require().NoError(err)
	suite.Equal(path, out)
	suite.Require().NoError(w.Close())

	info, err := os.Stat(path)
	suite.Require().NoError(err)
	suite.Greater(info.Size(), int64(0))

	source, err := datasource.NewParquetSource("", logger.NewNopLogger())
	suite.Require().NoError(err)
	defer source.Close()

	source.WithTimeframeFile(types.Timeframe1h, path)

	bars, err := source.FetchBars(context.Background(), "BTCUSDT", types.Timeframe1h,
		testBar(0).Time, testBar(4).Time)
	suite.Require().NoError(err)
	suite.Require().Len(bars, 5)

	for i, bar := range bars {
		suite.Equal(testBar(i).Time, bar.Time)
		suite.InDelta(testBar(i).Close, bar.Close, 1e-9)
	}
}

func (suite *DuckDBWriterTestSuite) TestDoubleFinalize() {
	w, _ := suite.newWriter("double_finalize.parquet")
	suite.Require().NoError(w.Initialize())
	suite.Require().NoError(w.Write(testBar(0)))

	_, err := w.Finalize()
	suite.Require().NoError(err)

	_, err = w.Finalize()
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")

	suite.NoError(w.Close())
}

func (suite *DuckDBWriterTestSuite) TestWriteAfterFinalize() {
	w, _ := suite.newWriter("write_after_finalize.parquet")
	suite.Require().NoError(w.Initialize())

	_, err := w.Finalize()
	suite.Require().NoError(err)

	err = w.Write(testBar(0))
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")

	suite.NoError(w.Close())
}

func (suite *DuckDBWriterTestSuite) TestCloseClearsState() {
	w, _ := suite.newWriter("close.parquet")
	suite.Require().NoError(w.Initialize())

	suite.NoError(w.Close())
	// closing twice is a no-op
	suite.NoError(w.Close())

	duckWriter := w.(*DuckDBWriter)
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
}

func (suite *DuckDBWriterTestSuite) TestFinalizeExportError() {
	w := NewDuckDBWriter("/nonexistent/directory/out.parquet", logger.NewNopLogger())
	suite.Require().NoError(w.Initialize())
	suite.Require().NoError(w.Write(testBar(0)))

	_, err := w.Finalize()
	suite.Error(err)
	suite.Contains(err.Error(), "failed to export parquet")

	suite.NoError(w.Close())
}
