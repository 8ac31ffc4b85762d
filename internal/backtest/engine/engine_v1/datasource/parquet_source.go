package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"go.uber.org/zap"
)

// ParquetSource reads bars from parquet files through DuckDB. A timeframe
// with its own file is read as is; any other timeframe is aggregated from
// the base file with time_bucket.
type ParquetSource struct {
	db        *sql.DB
	logger    *logger.Logger
	sq        squirrel.StatementBuilderType
	basePath  string
	timeframe map[types.Timeframe]string
}

var _ BarSource = (*ParquetSource)(nil)

// NewParquetSource opens an in-memory DuckDB reading basePath.
func NewParquetSource(basePath string, log *logger.Logger) (*ParquetSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ParquetSource{
		db:        db,
		logger:    log,
		sq:        squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		basePath:  basePath,
		timeframe: make(map[types.Timeframe]string),
	}, nil
}

// WithTimeframeFile registers a file that already holds bars of timeframe.
func (p *ParquetSource) WithTimeframeFile(timeframe types.Timeframe, path string) *ParquetSource {
	p.timeframe[timeframe] = path

	return p
}

func (p *ParquetSource) Close() error {
	return p.db.Close()
}

func parquetTable(path string) string {
	return fmt.Sprintf("read_parquet('%s')", strings.ReplaceAll(path, "'", "''"))
}

func (p *ParquetSource) buildQuery(symbol string, timeframe types.Timeframe, start, end time.Time) (string, []any, error) {
	if path, ok := p.timeframe[timeframe]; ok {
		return p.sq.
			Select("time", "symbol", "open", "high", "low", "close", "volume").
			From(parquetTable(path)).
			Where(squirrel.Eq{"symbol": symbol}).
			Where(squirrel.GtOrEq{"time": start}).
			Where(squirrel.LtOrEq{"time": end}).
			OrderBy("time ASC").
			ToSql()
	}

	if p.basePath == "" {
		return "", nil, errors.Newf(errors.ErrCodeDataNotFound, "no parquet file for timeframe %s", timeframe)
	}

	duration, err := timeframe.Duration()
	if err != nil {
		return "", nil, err
	}

	bucket := fmt.Sprintf("time_bucket(INTERVAL '%d minutes', time)", int(duration.Minutes()))

	return p.sq.
		Select(
			bucket+" AS bucket_time",
			"symbol",
			"arg_min(open, time) AS open",
			"max(high) AS high",
			"min(low) AS low",
			"arg_max(close, time) AS close",
			"sum(volume) AS volume",
		).
		From(parquetTable(p.basePath)).
		Where(squirrel.Eq{"symbol": symbol}).
		Where(squirrel.GtOrEq{"time": start}).
		Where(squirrel.LtOrEq{"time": end}).
		GroupBy("bucket_time", "symbol").
		OrderBy("bucket_time ASC").
		ToSql()
}

// FetchBars implements BarSource.
func (p *ParquetSource) FetchBars(ctx context.Context, symbol string, timeframe types.Timeframe, start, end time.Time) ([]types.Bar, error) {
	query, args, err := p.buildQuery(symbol, timeframe, start, end)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Querying parquet bars",
		zap.String("symbol", symbol),
		zap.String("timeframe", string(timeframe)),
		zap.String("query", query),
	)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query parquet bars", err)
	}
	defer rows.Close()

	bars := make([]types.Bar, 0, 1000)

	for rows.Next() {
		var bar types.Bar
		if err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}

		bar.Time = bar.Time.UTC()
		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bars", err)
	}

	return NormalizeBars(bars), nil
}
