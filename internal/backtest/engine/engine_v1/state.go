package engine

import (
	"time"

	"github.com/rxtech-lab/argo-macd/internal/stats"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/shopspring/decimal"
)

// SimulationState is the trade ledger and capital bookkeeping of one run.
// It is written only by the bar loop.
type SimulationState struct {
	capital        decimal.Decimal
	peak           decimal.Decimal
	trades         []types.Trade
	balanceHistory types.TimeSeries
	drawdownSeries types.TimeSeries
}

// NewSimulationState seeds the balance history with the initial capital at
// start, which must not be later than the first recorded bar.
func NewSimulationState(initialCapital float64, start time.Time) *SimulationState {
	capital := decimal.NewFromFloat(initialCapital)

	s := &SimulationState{
		capital: capital,
		peak:    capital,
		trades:  []types.Trade{},
	}
	s.Record(start)

	return s
}

// ApplyTrade books a closed trade: capital moves by its PnL, then the peak
// is raised if the new capital exceeds it.
func (s *SimulationState) ApplyTrade(trade types.Trade) {
	s.trades = append(s.trades, trade)
	s.capital = s.capital.Add(decimal.NewFromFloat(trade.PnL))

	if s.capital.GreaterThan(s.peak) {
		s.peak = s.capital
	}
}

// Record stores the current capital and drawdown at t.
func (s *SimulationState) Record(t time.Time) {
	capital := s.capital.InexactFloat64()

	s.balanceHistory.Set(t, capital)
	s.drawdownSeries.Set(t, stats.Drawdown(s.peak.InexactFloat64(), capital))
}

func (s *SimulationState) Capital() float64 {
	return s.capital.InexactFloat64()
}

func (s *SimulationState) PeakCapital() float64 {
	return s.peak.InexactFloat64()
}

// Trades returns a copy of the ledger.
func (s *SimulationState) Trades() []types.Trade {
	out := make([]types.Trade, len(s.trades))
	copy(out, s.trades)

	return out
}

func (s *SimulationState) BalanceHistory() types.TimeSeries {
	return s.balanceHistory
}

func (s *SimulationState) DrawdownSeries() types.TimeSeries {
	return s.drawdownSeries
}
