package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

// RiskConfig holds the exit thresholds and sizing of a run. All values are
// fractions in (0,1]. It is fixed for the lifetime of a backtest.
type RiskConfig struct {
	StopLossPct        float64 `yaml:"stop_loss_pct" json:"stop_loss_pct" validate:"gt=0,lte=1" jsonschema:"title=Stop Loss,description=Loss fraction from entry that closes the position,exclusiveMinimum=0,maximum=1"`
	TakeProfitPct      float64 `yaml:"take_profit_pct" json:"take_profit_pct" validate:"gt=0,lte=1" jsonschema:"title=Take Profit,description=Gain fraction from entry that closes the position,exclusiveMinimum=0,maximum=1"`
	TrailingStopPct    float64 `yaml:"trailing_stop_pct" json:"trailing_stop_pct" validate:"gt=0,lte=1" jsonschema:"title=Trailing Stop,description=Give-back fraction from the best price since entry,exclusiveMinimum=0,maximum=1"`
	MaxPositionSizePct float64 `yaml:"max_position_size_pct" json:"max_position_size_pct" validate:"gt=0,lte=1" jsonschema:"title=Max Position Size,description=Fraction of capital committed per position,exclusiveMinimum=0,maximum=1"`
}

// Validate validates the RiskConfig struct.
func (r RiskConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRiskConfig, "invalid risk config", err)
	}

	return nil
}
