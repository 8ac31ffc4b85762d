package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type PositionType string

const (
	PositionTypeLong  PositionType = "long"
	PositionTypeShort PositionType = "short"
)

// ExitReason records which rule closed a position.
type ExitReason string

const (
	ExitReasonStopLoss     ExitReason = "stop_loss"
	ExitReasonTakeProfit   ExitReason = "take_profit"
	ExitReasonTrailingStop ExitReason = "trailing_stop"
	ExitReasonSignal       ExitReason = "signal"
)

// Position is the single open position held by a position manager.
type Position struct {
	Type       PositionType `json:"type" yaml:"type"`
	EntryPrice float64      `json:"entry_price" yaml:"entry_price"`
	EntryTime  time.Time    `json:"entry_time" yaml:"entry_time"`
	// Size is capital_at_entry * max_position_size_pct / entry_price.
	Size float64 `json:"size" yaml:"size"`
	// HighestPrice and LowestPrice are the extremes seen since entry.
	HighestPrice    float64  `json:"highest_price" yaml:"highest_price"`
	LowestPrice     float64  `json:"lowest_price" yaml:"lowest_price"`
	TrailingStop    float64  `json:"trailing_stop" yaml:"trailing_stop"`
	StopLossPrice   float64  `json:"stop_loss_price" yaml:"stop_loss_price"`
	TakeProfitPrice float64  `json:"take_profit_price" yaml:"take_profit_price"`
	EntrySignals    []Signal `json:"entry_signals" yaml:"entry_signals"`
}

// Clone returns a deep copy so callers cannot alias the signal slice.
func (p Position) Clone() Position {
	p.EntrySignals = cloneSignals(p.EntrySignals)

	return p
}

// PnLAt returns the profit or loss of closing the position at exitPrice.
func (p Position) PnLAt(exitPrice float64) decimal.Decimal {
	size := decimal.NewFromFloat(p.Size)
	entry := decimal.NewFromFloat(p.EntryPrice)
	exit := decimal.NewFromFloat(exitPrice)

	if p.Type == PositionTypeShort {
		return size.Mul(entry.Sub(exit))
	}

	return size.Mul(exit.Sub(entry))
}
