// Package risk holds the single-position state machine that applies
// stop-loss, take-profit and trailing-stop exits.
package risk

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PositionState is FLAT or OPEN.
type PositionState string

const (
	PositionStateFlat PositionState = "FLAT"
	PositionStateOpen PositionState = "OPEN"
)

// ExitCheck is the outcome of CheckExitSignals. Reason and Price are only
// meaningful when Exit is true.
type ExitCheck struct {
	Exit   bool
	Reason types.ExitReason
	Price  float64
}

// PositionManager owns at most one open position. It is not safe for
// concurrent use; each backtest run owns its own instance.
type PositionManager struct {
	config   types.RiskConfig
	position *types.Position
	log      *logger.Logger
}

// NewPositionManager validates config and returns a FLAT manager.
func NewPositionManager(config types.RiskConfig, log *logger.Logger) (*PositionManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &PositionManager{
		config: config,
		log:    log,
	}, nil
}

func (m *PositionManager) Config() types.RiskConfig {
	return m.config
}

func (m *PositionManager) State() PositionState {
	if m.position == nil {
		return PositionStateFlat
	}

	return PositionStateOpen
}

// CurrentPosition returns a copy of the open position.
func (m *PositionManager) CurrentPosition() optional.Option[types.Position] {
	if m.position == nil {
		return optional.None[types.Position]()
	}

	return optional.Some(m.position.Clone())
}

// PositionSize is capital * max_position_size_pct / entryPrice.
func (m *PositionManager) PositionSize(capital, entryPrice float64) float64 {
	size, _ := decimal.NewFromFloat(capital).
		Mul(decimal.NewFromFloat(m.config.MaxPositionSizePct)).
		Div(decimal.NewFromFloat(entryPrice)).
		Float64()

	return size
}

func (m *PositionManager) trailingStop(positionType types.PositionType, reference float64) float64 {
	if positionType == types.PositionTypeLong {
		return reference * (1 - m.config.TrailingStopPct)
	}

	return reference * (1 + m.config.TrailingStopPct)
}

func (m *PositionManager) stopLossPrice(positionType types.PositionType, entry float64) float64 {
	if positionType == types.PositionTypeLong {
		return entry * (1 - m.config.StopLossPct)
	}

	return entry * (1 + m.config.StopLossPct)
}

func (m *PositionManager) takeProfitPrice(positionType types.PositionType, entry float64) float64 {
	if positionType == types.PositionTypeLong {
		return entry * (1 + m.config.TakeProfitPct)
	}

	return entry * (1 - m.config.TakeProfitPct)
}

// OpenPosition moves FLAT to OPEN. It fails when a position is already open.
func (m *PositionManager) OpenPosition(
	positionType types.PositionType,
	entryPrice float64,
	entryTime time.Time,
	capital float64,
	signals []types.Signal,
) (types.Position, error) {
	if m.position != nil {
		return types.Position{}, errors.Newf(errors.ErrCodePositionAlreadyOpen,
			"cannot open %s position: %s position open since %s",
			positionType, m.position.Type, m.position.EntryTime.Format(time.RFC3339))
	}

	if positionType != types.PositionTypeLong && positionType != types.PositionTypeShort {
		return types.Position{}, errors.Newf(errors.ErrCodeInvalidParameter, "unknown position type %q", positionType)
	}

	if entryPrice <= 0 {
		return types.Position{}, errors.Newf(errors.ErrCodeInvalidEntryPrice, "entry price must be positive, got %f", entryPrice)
	}

	position := types.Position{
		Type:            positionType,
		EntryPrice:      entryPrice,
		EntryTime:       entryTime,
		Size:            m.PositionSize(capital, entryPrice),
		HighestPrice:    entryPrice,
		LowestPrice:     entryPrice,
		TrailingStop:    m.trailingStop(positionType, entryPrice),
		StopLossPrice:   m.stopLossPrice(positionType, entryPrice),
		TakeProfitPrice: m.takeProfitPrice(positionType, entryPrice),
		EntrySignals:    signals,
	}
	position = position.Clone()
	m.position = &position

	m.log.Debug("Position opened",
		zap.String("type", string(positionType)),
		zap.Float64("entry_price", entryPrice),
		zap.Time("entry_time", entryTime),
		zap.Float64("size", position.Size),
		zap.Float64("trailing_stop", position.TrailingStop),
	)

	return position.Clone(), nil
}

// CheckExitSignals first tracks the favorable extreme (moving the trailing
// stop only on a new extreme), then tests stop-loss, take-profit and
// trailing-stop in that order. While FLAT it never exits.
func (m *PositionManager) CheckExitSignals(price float64) ExitCheck {
	p := m.position
	if p == nil {
		return ExitCheck{}
	}

	switch p.Type {
	case types.PositionTypeLong:
		if price > p.HighestPrice {
			p.HighestPrice = price
			p.TrailingStop = m.trailingStop(p.Type, price)
		}
	case types.PositionTypeShort:
		if price < p.LowestPrice {
			p.LowestPrice = price
			p.TrailingStop = m.trailingStop(p.Type, price)
		}
	}

	if m.stopLossHit(price) {
		return ExitCheck{Exit: true, Reason: types.ExitReasonStopLoss, Price: price}
	}

	if m.takeProfitHit(price) {
		return ExitCheck{Exit: true, Reason: types.ExitReasonTakeProfit, Price: price}
	}

	if m.trailingStopHit(price) {
		return ExitCheck{Exit: true, Reason: types.ExitReasonTrailingStop, Price: price}
	}

	return ExitCheck{}
}

func (m *PositionManager) stopLossHit(price float64) bool {
	if m.position.Type == types.PositionTypeLong {
		return price <= m.position.StopLossPrice
	}

	return price >= m.position.StopLossPrice
}

func (m *PositionManager) takeProfitHit(price float64) bool {
	if m.position.Type == types.PositionTypeLong {
		return price >= m.position.TakeProfitPrice
	}

	return price <= m.position.TakeProfitPrice
}

func (m *PositionManager) trailingStopHit(price float64) bool {
	if m.position.Type == types.PositionTypeLong {
		return price <= m.position.TrailingStop
	}

	return price >= m.position.TrailingStop
}

// ClosePosition moves OPEN to FLAT and returns the resulting trade. While
// FLAT it does nothing and reports false.
func (m *PositionManager) ClosePosition(
	exitPrice float64,
	exitTime time.Time,
	reason types.ExitReason,
	exitSignals []types.Signal,
) (types.Trade, bool) {
	if m.position == nil {
		m.log.Debug("Close requested with no open position",
			zap.Float64("exit_price", exitPrice),
			zap.Time("exit_time", exitTime),
		)

		return types.Trade{}, false
	}

	pnl, _ := m.position.PnLAt(exitPrice).Float64()
	trade := types.NewTrade(*m.position, exitPrice, exitTime, pnl, reason, exitSignals)
	m.position = nil

	m.log.Debug("Position closed",
		zap.String("type", string(trade.Type)),
		zap.String("reason", string(reason)),
		zap.Float64("exit_price", exitPrice),
		zap.Float64("pnl", pnl),
	)

	return trade, true
}
