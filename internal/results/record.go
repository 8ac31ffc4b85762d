package results

import (
	"time"

	"github.com/rxtech-lab/argo-macd/internal/types"
)

// MACDSnapshot holds the indicator values of one bar.
type MACDSnapshot struct {
	MACD      types.Metric `json:"macd"`
	Signal    types.Metric `json:"signal"`
	Histogram types.Metric `json:"histogram"`
}

// TradeRecord is a trade as written to a result file, enriched with fields
// derived from the run.
type TradeRecord struct {
	types.Trade

	Timeframe types.Timeframe `json:"timeframe"`
	// PriceChangePct is the move from entry to exit in percent, positive
	// when it favoured the position.
	PriceChangePct float64       `json:"price_change_pct"`
	HoldingSeconds int64         `json:"holding_seconds"`
	EntryMACD      *MACDSnapshot `json:"entry_macd,omitempty"`
	ExitMACD       *MACDSnapshot `json:"exit_macd,omitempty"`
}

// ResultFile is the JSON document written for a run. Its Trades field
// shadows the embedded result's trades.
type ResultFile struct {
	types.BacktestResult

	Trades    []TradeRecord `json:"trades"`
	CreatedAt time.Time     `json:"created_at"`
}

// DirectionalChangePct returns the price move of t in percent, signed so a
// favourable move is positive for both longs and shorts.
func DirectionalChangePct(t types.Trade) float64 {
	if t.Type == types.PositionTypeShort {
		return -t.PriceChangePct()
	}

	return t.PriceChangePct()
}

// EnrichTrades derives TradeRecords from result. MACD snapshots are filled
// when the result carries price data for the entry or exit bar.
func EnrichTrades(result types.BacktestResult) []TradeRecord {
	var timeframe types.Timeframe
	if len(result.Timeframes) > 0 {
		timeframe = result.Timeframes[0]
	}

	points := make(map[int64]types.PricePoint, len(result.PriceData))
	for _, p := range result.PriceData {
		points[p.Time.UnixNano()] = p
	}

	snapshot := func(t time.Time) *MACDSnapshot {
		p, ok := points[t.UnixNano()]
		if !ok {
			return nil
		}

		return &MACDSnapshot{MACD: p.MACD, Signal: p.Signal, Histogram: p.Histogram}
	}

	records := make([]TradeRecord, 0, len(result.Trades))
	for _, t := range result.Trades {
		records = append(records, TradeRecord{
			Trade:          t,
			Timeframe:      timeframe,
			PriceChangePct: DirectionalChangePct(t),
			HoldingSeconds: int64(t.HoldingTime() / time.Second),
			EntryMACD:      snapshot(t.EntryTime),
			ExitMACD:       snapshot(t.ExitTime),
		})
	}

	return records
}

// TradeList strips the enrichment and returns the underlying trades.
func (f ResultFile) TradeList() []types.Trade {
	trades := make([]types.Trade, len(f.Trades))
	for i, r := range f.Trades {
		trades[i] = r.Trade
	}

	return trades
}
