// Package stats derives performance statistics from a finished trade ledger.
// Every function is pure and defines its zero-denominator cases explicitly.
package stats

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/shopspring/decimal"
)

// PeriodsPerYear annualizes per-trade ratios.
const PeriodsPerYear = 365

// WinRate is winners / total, 0 without trades.
func WinRate(trades []types.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}

	winners := 0

	for _, t := range trades {
		if t.IsWin() {
			winners++
		}
	}

	return float64(winners) / float64(len(trades))
}

// GrossProfitLoss returns the sum of positive pnl and the absolute sum of negative pnl.
func GrossProfitLoss(trades []types.Trade) (float64, float64) {
	profit := decimal.Zero
	loss := decimal.Zero

	for _, t := range trades {
		pnl := decimal.NewFromFloat(t.PnL)
		if t.IsWin() {
			profit = profit.Add(pnl)
		} else if t.IsLoss() {
			loss = loss.Add(pnl.Abs())
		}
	}

	p, _ := profit.Float64()
	l, _ := loss.Float64()

	return p, l
}

// ProfitFactor is gross profit / gross loss. Without losses it is +Inf when
// there was any profit and 0 otherwise, which also covers an empty ledger.
func ProfitFactor(trades []types.Trade) float64 {
	profit, loss := GrossProfitLoss(trades)
	if loss == 0 {
		if profit > 0 {
			return math.Inf(1)
		}

		return 0
	}

	return profit / loss
}

// CapitalHistory is the initial capital followed by the capital after each trade.
func CapitalHistory(initial float64, trades []types.Trade) []float64 {
	history := make([]float64, 0, len(trades)+1)
	capital := decimal.NewFromFloat(initial)
	history = append(history, initial)

	for _, t := range trades {
		capital = capital.Add(decimal.NewFromFloat(t.PnL))
		value, _ := capital.Float64()
		history = append(history, value)
	}

	return history
}

// DrawdownCurve returns the running peak and the drawdown against it for each
// point. The peak only ever moves up. A non-positive peak yields 0 drawdown.
func DrawdownCurve(capital []float64) ([]float64, []float64) {
	peaks := make([]float64, len(capital))
	drawdowns := make([]float64, len(capital))

	for i, value := range capital {
		peak := value
		if i > 0 && peaks[i-1] > peak {
			peak = peaks[i-1]
		}

		peaks[i] = peak
		drawdowns[i] = Drawdown(peak, value)
	}

	return peaks, drawdowns
}

// Drawdown is (peak - value) / peak, clamped at 0.
func Drawdown(peak, value float64) float64 {
	if peak <= 0 || value >= peak {
		return 0
	}

	return (peak - value) / peak
}

// MaxDrawdown is the largest drawdown over a capital history.
func MaxDrawdown(capital []float64) float64 {
	_, drawdowns := DrawdownCurve(capital)

	maxDrawdown := 0.0
	for _, dd := range drawdowns {
		maxDrawdown = math.Max(maxDrawdown, dd)
	}

	return maxDrawdown
}

// PerTradeRiskFree converts an annual rate to (1+rf)^(1/365) - 1.
func PerTradeRiskFree(annual float64) float64 {
	return math.Pow(1+annual, 1.0/PeriodsPerYear) - 1
}

func pnls(trades []types.Trade) []float64 {
	out := make([]float64, len(trades))
	for i, t := range trades {
		out[i] = t.PnL
	}

	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// populationStd is the standard deviation with ddof 0.
func populationStd(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	m := mean(values)
	sum := 0.0

	for _, v := range values {
		sum += (v - m) * (v - m)
	}

	return math.Sqrt(sum / float64(len(values)))
}

// SharpeRatio is (mean pnl - per-trade rf) / std(pnl) * sqrt(365). It is 0
// without trades or when every trade has the same pnl.
func SharpeRatio(trades []types.Trade, riskFreeRate float64) float64 {
	if len(trades) == 0 {
		return 0
	}

	returns := pnls(trades)

	std := populationStd(returns)
	if std == 0 {
		return 0
	}

	return (mean(returns) - PerTradeRiskFree(riskFreeRate)) / std * math.Sqrt(PeriodsPerYear)
}

// SortinoRatio divides by the std of losing trades only. It is 0 without
// trades, +Inf without losing trades and 0 when all losses are equal.
func SortinoRatio(trades []types.Trade, riskFreeRate float64) float64 {
	if len(trades) == 0 {
		return 0
	}

	returns := pnls(trades)
	negative := make([]float64, 0, len(returns))

	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}

	if len(negative) == 0 {
		return math.Inf(1)
	}

	downside := populationStd(negative)
	if downside == 0 {
		return 0
	}

	return (mean(returns) - PerTradeRiskFree(riskFreeRate)) / downside * math.Sqrt(PeriodsPerYear)
}

func holdingTime(trades []types.Trade) types.TradeHoldingTime {
	if len(trades) == 0 {
		return types.TradeHoldingTime{}
	}

	var total time.Duration

	minHolding := trades[0].HoldingTime()
	maxHolding := minHolding

	for _, t := range trades {
		h := t.HoldingTime()
		total += h
		minHolding = min(minHolding, h)
		maxHolding = max(maxHolding, h)
	}

	return types.TradeHoldingTime{
		Min: int(minHolding.Seconds()),
		Max: int(maxHolding.Seconds()),
		Avg: int((total / time.Duration(len(trades))).Seconds()),
	}
}

func tradePnl(trades []types.Trade) types.TradePnl {
	profit, loss := GrossProfitLoss(trades)
	result := types.TradePnl{
		GrossProfit: profit,
		GrossLoss:   loss,
	}

	realized := decimal.Zero

	for i, t := range trades {
		realized = realized.Add(decimal.NewFromFloat(t.PnL))

		if i == 0 || t.PnL > result.MaximumProfit {
			result.MaximumProfit = t.PnL
		}

		if i == 0 || t.PnL < result.MaximumLoss {
			result.MaximumLoss = t.PnL
		}
	}

	result.RealizedPnL, _ = realized.Float64()

	return result
}

// Calculate aggregates the full statistics block for a run.
func Calculate(trades []types.Trade, initialCapital, finalCapital, riskFreeRate float64) types.Statistics {
	result := types.Statistics{
		InitialCapital: initialCapital,
		FinalCapital:   finalCapital,
		TotalTrades:    len(trades),
		WinRate:        WinRate(trades),
		MaxDrawdown:    MaxDrawdown(CapitalHistory(initialCapital, trades)),
		ProfitFactor:   types.Metric(ProfitFactor(trades)),
		SharpeRatio:    types.Metric(SharpeRatio(trades, riskFreeRate)),
		SortinoRatio:   types.Metric(SortinoRatio(trades, riskFreeRate)),
		RiskFreeRate:   riskFreeRate,
		TradePnl:       tradePnl(trades),
		HoldingTime:    holdingTime(trades),
		ExitReasons:    map[types.ExitReason]int{},
	}

	if initialCapital != 0 {
		result.TotalReturn = (finalCapital - initialCapital) / initialCapital
	}

	for _, t := range trades {
		if t.IsWin() {
			result.WinningTrades++
		} else if t.IsLoss() {
			result.LosingTrades++
		}

		result.ExitReasons[t.ExitReason]++
	}

	return result
}
