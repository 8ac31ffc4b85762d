package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-macd/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/argo-macd/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-macd/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/report"
	"github.com/rxtech-lab/argo-macd/internal/results"
	"github.com/rxtech-lab/argo-macd/internal/signal"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/internal/version"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata/provider"
)

const sourceParquet = "parquet"

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("schema") {
		schema, err := (&enginev1.BacktestEngineV1Config{}).GenerateSchemaJSON()
		if err != nil {
			return err
		}

		fmt.Println(schema)

		return nil
	}

	level, err := logger.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = log.Sync() }()

	config, err := buildConfig(optionsFromCommand(cmd))
	if err != nil {
		return err
	}

	source, closeSource, err := newSource(cmd, log)
	if err != nil {
		return err
	}

	defer closeSource()

	generator := signal.NewMACDGenerator(signal.DefaultMACDConfig(), log)

	backtester, err := enginev1.NewBacktestEngineV1(config, source, generator, log)
	if err != nil {
		return err
	}

	log.Info("loading market data",
		zap.String("symbol", config.Symbol),
		zap.Strings("timeframes", timeframeLabels(config.Timeframes)),
		zap.String("engine_version", version.Version),
	)

	if err := backtester.Initialize(ctx); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onStart := engine.OnBacktestStartCallback(func(symbol string, timeframes []types.Timeframe, totalBars int) error {
		bar = progressbar.NewOptions(totalBars,
			progressbar.OptionSetDescription(fmt.Sprintf("Backtesting %s", symbol)),
			progressbar.OptionShowCount(),
		)

		return nil
	})
	onProcess := engine.OnProcessDataCallback(func(current int, total int) error {
		if bar != nil {
			return bar.Set(current)
		}

		return nil
	})
	onEnd := engine.OnBacktestEndCallback(func(err error) {
		if bar != nil {
			_ = bar.Finish()
			fmt.Println()
		}
	})

	result, err := backtester.Run(engine.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnProcessData:   &onProcess,
		OnBacktestEnd:   &onEnd,
	})
	if err != nil {
		return err
	}

	exporter, err := results.NewParquetExporter()
	if err != nil {
		log.Warn("parquet export disabled", zap.Error(err))

		exporter = nil
	} else {
		defer exporter.Close()
	}

	paths, err := results.NewWriter(cmd.String("output"), exporter, log).Write(result)
	if err != nil {
		return err
	}

	printer := report.NewPrinter(os.Stdout)
	printer.PrintSummary(result)

	if cmd.Bool("trades") {
		printer.PrintTrades(results.EnrichTrades(result))
	}

	printer.PrintPaths(paths)

	return nil
}

// newSource opens the bar source selected by --source.
func newSource(cmd *cli.Command, log *logger.Logger) (datasource.BarSource, func(), error) {
	name := cmd.String("source")
	if name == sourceParquet {
		source, err := datasource.NewParquetSource(cmd.String("data"), log)
		if err != nil {
			return nil, nil, err
		}

		return source, func() { _ = source.Close() }, nil
	}

	p, err := provider.NewMarketDataProvider(provider.ProviderType(name), os.Getenv("POLYGON_API_KEY"), log)
	if err != nil {
		return nil, nil, err
	}

	return p, func() {}, nil
}

func timeframeLabels(timeframes []types.Timeframe) []string {
	labels := make([]string, len(timeframes))
	for i, tf := range timeframes {
		labels[i] = string(tf)
	}

	return labels
}

func newCommand() *cli.Command {
	defaultTimeframes := timeframeLabels(signal.DefaultTimeframes())

	return &cli.Command{
		Name:    "backtest",
		Usage:   "Backtest the multi-timeframe MACD strategy on historical bars",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML backtest config; flags override its values",
			},
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Instrument to backtest",
				Value:   "BTCUSDT",
			},
			&cli.StringSliceFlag{
				Name:    "timeframes",
				Aliases: []string{"t"},
				Usage:   "Timeframes to evaluate; the first one drives the simulation",
				Value:   defaultTimeframes,
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02", time.RFC3339},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "End date in `YYYY-MM-DD` format. Defaults to now.",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02", time.RFC3339},
				},
			},
			&cli.FloatFlag{
				Name:  "capital",
				Usage: "Initial capital in USD",
				Value: enginev1.DefaultInitialCapital,
			},
			&cli.BoolFlag{
				Name:  "include-price-data",
				Usage: "Attach bars and MACD values of the primary timeframe to the result",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: fmt.Sprintf("Bar source (%s, %s, %s)", provider.ProviderBinance, provider.ProviderPolygon, sourceParquet),
				Value: string(provider.ProviderBinance),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Parquet file or glob read by the parquet source",
				Value:   "data/*.parquet",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for result files",
				Value:   "results",
			},
			&cli.BoolFlag{
				Name:  "trades",
				Usage: "Print the trade table",
			},
			&cli.BoolFlag{
				Name:  "schema",
				Usage: "Print the JSON schema of the config file and exit",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Action: backtestAction,
	}
}

func main() {
	_ = godotenv.Load()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
