package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

const (
	statsFileName   = "stats.yaml"
	tradesFileName  = "trades.parquet"
	balanceFileName = "balance.parquet"
)

// Paths lists the files written for one run.
type Paths struct {
	// Result is the JSON result document.
	Result string
	// Dir holds the run's companion files.
	Dir     string
	Stats   string
	Trades  string
	Balance string
}

// Writer persists backtest results under a base directory.
type Writer struct {
	baseDir  string
	exporter *ParquetExporter
	log      *logger.Logger
	now      func() time.Time
}

// NewWriter creates a writer rooted at baseDir. Parquet export is skipped
// when exporter is nil.
func NewWriter(baseDir string, exporter *ParquetExporter, log *logger.Logger) *Writer {
	return &Writer{
		baseDir:  baseDir,
		exporter: exporter,
		log:      log.Named("results"),
		now:      time.Now,
	}
}

// BaseName returns backtest_<SYMBOL>_<timeframes>_<yyyymmdd_hhmmss> for a
// run finished at t. Slashes in the symbol become underscores.
func BaseName(symbol string, timeframes []types.Timeframe, t time.Time) string {
	labels := make([]string, len(timeframes))
	for i, tf := range timeframes {
		labels[i] = string(tf)
	}

	return fmt.Sprintf("backtest_%s_%s_%s",
		strings.ReplaceAll(symbol, "/", "_"),
		strings.Join(labels, "_"),
		t.Format("20060102_150405"))
}

// Write stores result as JSON next to a directory holding stats.yaml and,
// when an exporter is configured, trades and balance parquet files.
func (w *Writer) Write(result types.BacktestResult) (Paths, error) {
	createdAt := w.now()
	name := BaseName(result.Symbol, result.Timeframes, createdAt)

	paths := Paths{
		Result: filepath.Join(w.baseDir, name+".json"),
		Dir:    filepath.Join(w.baseDir, name),
	}
	paths.Stats = filepath.Join(paths.Dir, statsFileName)

	if err := os.MkdirAll(paths.Dir, 0o755); err != nil {
		return Paths{}, errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to create result directory %s", paths.Dir)
	}

	file := ResultFile{
		BacktestResult: result,
		Trades:         EnrichTrades(result),
		CreatedAt:      createdAt.UTC(),
	}

	data, err := json.MarshalIndent(file, "", "    ")
	if err != nil {
		return Paths{}, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to encode result", err)
	}

	if err := os.WriteFile(paths.Result, data, 0o644); err != nil {
		return Paths{}, errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to write %s", paths.Result)
	}

	if err := types.WriteStatistics(paths.Stats, result.Statistics); err != nil {
		return Paths{}, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write statistics", err)
	}

	if w.exporter != nil {
		paths.Trades = filepath.Join(paths.Dir, tradesFileName)
		if err := w.exporter.ExportTrades(file.Trades, paths.Trades); err != nil {
			return Paths{}, err
		}

		paths.Balance = filepath.Join(paths.Dir, balanceFileName)
		if err := w.exporter.ExportBalance(result.BalanceHistory, result.DrawdownSeries, paths.Balance); err != nil {
			return Paths{}, err
		}
	}

	w.log.Info("results saved",
		zap.String("result", paths.Result),
		zap.String("dir", paths.Dir),
		zap.Int("trades", len(result.Trades)),
	)

	return paths, nil
}
