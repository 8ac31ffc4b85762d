package types

import (
	"time"
)

// Trade is a closed position. It is created once by the position manager
// and never mutated afterwards.
type Trade struct {
	Type            PositionType `json:"type" yaml:"type"`
	EntryTime       time.Time    `json:"entry_time" yaml:"entry_time"`
	ExitTime        time.Time    `json:"exit_time" yaml:"exit_time"`
	EntryPrice      float64      `json:"entry_price" yaml:"entry_price"`
	ExitPrice       float64      `json:"exit_price" yaml:"exit_price"`
	Size            float64      `json:"size" yaml:"size"`
	PnL             float64      `json:"pnl" yaml:"pnl"`
	ExitReason      ExitReason   `json:"exit_reason" yaml:"exit_reason"`
	EntrySignals    []Signal     `json:"entry_signals" yaml:"entry_signals"`
	ExitSignals     []Signal     `json:"exit_signals" yaml:"exit_signals"`
	StopLossPrice   float64      `json:"stop_loss_price" yaml:"stop_loss_price"`
	TakeProfitPrice float64      `json:"take_profit_price" yaml:"take_profit_price"`
}

// NewTrade builds a trade from the position being closed. Signal slices are copied.
func NewTrade(p Position, exitPrice float64, exitTime time.Time, pnl float64, reason ExitReason, exitSignals []Signal) Trade {
	return Trade{
		Type:            p.Type,
		EntryTime:       p.EntryTime,
		ExitTime:        exitTime,
		EntryPrice:      p.EntryPrice,
		ExitPrice:       exitPrice,
		Size:            p.Size,
		PnL:             pnl,
		ExitReason:      reason,
		EntrySignals:    cloneSignals(p.EntrySignals),
		ExitSignals:     cloneSignals(exitSignals),
		StopLossPrice:   p.StopLossPrice,
		TakeProfitPrice: p.TakeProfitPrice,
	}
}

// PriceChangePct is the signed move from entry to exit, in percent.
func (t Trade) PriceChangePct() float64 {
	if t.EntryPrice == 0 {
		return 0
	}

	return (t.ExitPrice - t.EntryPrice) / t.EntryPrice * 100
}

// HoldingTime is the time between entry and exit.
func (t Trade) HoldingTime() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// IsWin reports a strictly positive PnL.
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// IsLoss reports a strictly negative PnL.
func (t Trade) IsLoss() bool {
	return t.PnL < 0
}
