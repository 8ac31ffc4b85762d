package types

import (
	"time"
)

// BacktestResult is everything a run produces.
type BacktestResult struct {
	ID            string    `json:"id"`
	EngineVersion string    `json:"engine_version"`
	Symbol        string    `json:"symbol"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	// DataStart is the first timestamp fetched, including the warmup buffer.
	DataStart      time.Time    `json:"data_start"`
	Timeframes     []Timeframe  `json:"timeframes"`
	Risk           RiskConfig   `json:"risk"`
	InitialCapital float64      `json:"initial_capital"`
	FinalCapital   float64      `json:"final_capital"`
	Statistics     Statistics   `json:"statistics"`
	Trades         []Trade      `json:"trades"`
	BalanceHistory TimeSeries   `json:"balance_history"`
	DrawdownSeries TimeSeries   `json:"drawdown_series"`
	PriceData      []PricePoint `json:"price_data,omitempty"`
	// OpenPosition is set when a position was still open after the last bar.
	OpenPosition *Position `json:"open_position,omitempty"`
}
