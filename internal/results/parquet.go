package results

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

// ParquetExporter writes trade ledgers and balance series to parquet
// through an in-memory DuckDB.
type ParquetExporter struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

// NewParquetExporter opens the in-memory database.
func NewParquetExporter() (*ParquetExporter, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to open duckdb", err)
	}

	return &ParquetExporter{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

func (e *ParquetExporter) Close() error {
	return e.db.Close()
}

func quotePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}

func (e *ParquetExporter) recreate(table, columns string) error {
	if _, err := e.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to drop %s", table)
	}

	if _, err := e.db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", table, columns)); err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to create %s", table)
	}

	return nil
}

func (e *ParquetExporter) copyTo(table, orderBy, path string) error {
	query := fmt.Sprintf("COPY (SELECT * FROM %s ORDER BY %s) TO '%s' (FORMAT PARQUET)", table, orderBy, quotePath(path))
	if _, err := e.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to export %s to %s", table, path)
	}

	return nil
}

// ExportTrades writes one row per trade to path.
func (e *ParquetExporter) ExportTrades(trades []TradeRecord, path string) error {
	err := e.recreate("trades", `
		trade_index INTEGER,
		type TEXT,
		timeframe TEXT,
		entry_time TIMESTAMP,
		exit_time TIMESTAMP,
		entry_price DOUBLE,
		exit_price DOUBLE,
		size DOUBLE,
		pnl DOUBLE,
		exit_reason TEXT,
		stop_loss_price DOUBLE,
		take_profit_price DOUBLE,
		price_change_pct DOUBLE,
		holding_seconds BIGINT,
		entry_signals INTEGER`)
	if err != nil {
		return err
	}

	for i, t := range trades {
		query, args, err := e.sq.Insert("trades").
			Columns("trade_index", "type", "timeframe", "entry_time", "exit_time",
				"entry_price", "exit_price", "size", "pnl", "exit_reason",
				"stop_loss_price", "take_profit_price", "price_change_pct",
				"holding_seconds", "entry_signals").
			Values(i, string(t.Type), string(t.Timeframe), t.EntryTime.UTC(), t.ExitTime.UTC(),
				t.EntryPrice, t.ExitPrice, t.Size, t.PnL, string(t.ExitReason),
				t.StopLossPrice, t.TakeProfitPrice, t.PriceChangePct,
				t.HoldingSeconds, len(t.EntrySignals)).
			ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to build trade insert", err)
		}

		if _, err := e.db.Exec(query, args...); err != nil {
			return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to insert trade %d", i)
		}
	}

	return e.copyTo("trades", "trade_index", path)
}

// ExportBalance writes the balance and drawdown series joined on time.
func (e *ParquetExporter) ExportBalance(balance, drawdown types.TimeSeries, path string) error {
	if err := e.recreate("balance", "time TIMESTAMP, balance DOUBLE, drawdown DOUBLE"); err != nil {
		return err
	}

	for _, p := range balance.Points() {
		dd, _ := drawdown.Get(p.Time)

		query, args, err := e.sq.Insert("balance").
			Columns("time", "balance", "drawdown").
			Values(p.Time.UTC(), p.Value, dd).
			ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to build balance insert", err)
		}

		if _, err := e.db.Exec(query, args...); err != nil {
			return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to insert balance at %s", p.Time)
		}
	}

	return e.copyTo("balance", "time", path)
}
