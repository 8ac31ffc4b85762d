package main

import (
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	enginev1 "github.com/rxtech-lab/argo-macd/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

// options are the command line values that shape the engine config. Unset
// optional values keep whatever the config file says.
type options struct {
	ConfigPath       string
	Symbol           optional.Option[string]
	Timeframes       optional.Option[[]string]
	Start            optional.Option[time.Time]
	End              optional.Option[time.Time]
	Capital          optional.Option[float64]
	IncludePriceData bool
}

func optionsFromCommand(cmd *cli.Command) options {
	opts := options{
		ConfigPath:       cmd.String("config"),
		Symbol:           optional.None[string](),
		Timeframes:       optional.None[[]string](),
		Start:            optional.None[time.Time](),
		End:              optional.None[time.Time](),
		Capital:          optional.None[float64](),
		IncludePriceData: cmd.Bool("include-price-data"),
	}

	// Defaults only apply without a config file.
	fromFlags := opts.ConfigPath == ""

	if fromFlags || cmd.IsSet("symbol") {
		opts.Symbol = optional.Some(cmd.String("symbol"))
	}

	if fromFlags || cmd.IsSet("timeframes") {
		opts.Timeframes = optional.Some(cmd.StringSlice("timeframes"))
	}

	if cmd.IsSet("start") {
		opts.Start = optional.Some(cmd.Timestamp("start"))
	}

	if cmd.IsSet("end") {
		opts.End = optional.Some(cmd.Timestamp("end"))
	}

	if fromFlags || cmd.IsSet("capital") {
		opts.Capital = optional.Some(cmd.Float("capital"))
	}

	return opts
}

// buildConfig reads the config file when one is given and applies opts on
// top of it.
func buildConfig(opts options) (enginev1.BacktestEngineV1Config, error) {
	config := enginev1.EmptyConfig()

	if opts.ConfigPath != "" {
		data, err := os.ReadFile(opts.ConfigPath)
		if err != nil {
			return config, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to read config file", err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse config file", err)
		}
	}

	if opts.Symbol.IsSome() {
		config.Symbol = opts.Symbol.Unwrap()
	}

	if opts.Timeframes.IsSome() {
		timeframes, err := types.ParseTimeframes(opts.Timeframes.Unwrap())
		if err != nil {
			return config, err
		}

		config.Timeframes = timeframes
	}

	if opts.Start.IsSome() {
		config.StartTime = optional.Some(opts.Start.Unwrap().UTC())
	}

	if opts.End.IsSome() {
		config.EndTime = optional.Some(opts.End.Unwrap().UTC())
	}

	if opts.Capital.IsSome() {
		config.InitialCapital = opts.Capital.Unwrap()
	}

	if opts.IncludePriceData {
		config.IncludePriceData = true
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}
