package types

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Statistics summarizes a finished backtest. Rates and drawdown are fractions.
type Statistics struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	FinalCapital   float64 `yaml:"final_capital" json:"final_capital"`
	// TotalReturn is (final - initial) / initial.
	TotalReturn   float64 `yaml:"total_return" json:"total_return"`
	TotalTrades   int     `yaml:"total_trades" json:"total_trades"`
	WinningTrades int     `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades  int     `yaml:"losing_trades" json:"losing_trades"`
	WinRate       float64 `yaml:"win_rate" json:"win_rate"`
	// MaxDrawdown is measured over the capital history rebuilt from the trade ledger.
	MaxDrawdown  float64            `yaml:"max_drawdown" json:"max_drawdown"`
	ProfitFactor Metric             `yaml:"profit_factor" json:"profit_factor"`
	SharpeRatio  Metric             `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	SortinoRatio Metric             `yaml:"sortino_ratio" json:"sortino_ratio"`
	RiskFreeRate float64            `yaml:"risk_free_rate" json:"risk_free_rate"`
	TradePnl     TradePnl           `yaml:"trade_pnl" json:"trade_pnl"`
	HoldingTime  TradeHoldingTime   `yaml:"holding_time" json:"holding_time"`
	ExitReasons  map[ExitReason]int `yaml:"exit_reasons" json:"exit_reasons"`
}

type TradePnl struct {
	// Realized PnL. Sum of all closed trades' pnl.
	RealizedPnL float64 `yaml:"realized_pnl" json:"realized_pnl"`
	// Gross profit. Sum of positive pnl.
	GrossProfit float64 `yaml:"gross_profit" json:"gross_profit"`
	// Gross loss. Absolute sum of negative pnl.
	GrossLoss float64 `yaml:"gross_loss" json:"gross_loss"`
	// Maximum loss. Smallest realized pnl.
	MaximumLoss float64 `yaml:"maximum_loss" json:"maximum_loss"`
	// Maximum profit. Largest realized pnl.
	MaximumProfit float64 `yaml:"maximum_profit" json:"maximum_profit"`
}

type TradeHoldingTime struct {
	// Minimum holding time of a trade in seconds
	Min int `yaml:"min" json:"min"`
	// Maximum holding time of a trade in seconds
	Max int `yaml:"max" json:"max"`
	// Average holding time of a trade in seconds
	Avg int `yaml:"avg" json:"avg"`
}

func WriteStatistics(path string, stats Statistics) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal statistics to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write statistics to file: %w", err)
	}

	return nil
}

func ReadStatistics(path string) (Statistics, error) {
	var stats Statistics

	data, err := os.ReadFile(path)
	if err != nil {
		return stats, fmt.Errorf("failed to read statistics file: %w", err)
	}

	if err := yaml.Unmarshal(data, &stats); err != nil {
		return stats, fmt.Errorf("failed to unmarshal statistics: %w", err)
	}

	return stats, nil
}
