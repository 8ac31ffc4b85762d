package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/notify"
	"github.com/rxtech-lab/argo-macd/internal/report"
	macd "github.com/rxtech-lab/argo-macd/internal/signal"
	"github.com/rxtech-lab/argo-macd/internal/trading"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/internal/version"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata/provider"
)

func timeframeLabels(tfs []types.Timeframe) []string {
	labels := make([]string, len(tfs))
	for i, tf := range tfs {
		labels[i] = string(tf)
	}

	return labels
}

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return logger.NewLoggerWithLevel(level)
}

// evaluatorConfig turns the shared flags into an evaluator configuration.
func evaluatorConfig(timeframes []string, depth int) (trading.EvaluatorConfig, error) {
	config := trading.DefaultEvaluatorConfig()

	if len(timeframes) > 0 {
		tfs, err := types.ParseTimeframes(timeframes)
		if err != nil {
			return config, err
		}

		config.Timeframes = tfs
	}

	if depth < 0 {
		return config, errors.Newf(errors.ErrCodeInvalidParameter, "order book depth must not be negative, got %d", depth)
	}

	if depth > 0 {
		config.OrderBookDepth = depth
	}

	return config, nil
}

// buildSenders returns the notification senders configured by the
// environment, plus a log sender when requested.
func buildSenders(log *logger.Logger, logNotifications bool) []notify.Sender {
	var senders []notify.Sender

	if telegram, ok := notify.TelegramSenderFromEnv(); ok {
		senders = append(senders, telegram)
	}

	if logNotifications {
		senders = append(senders, notify.NewLogSender(log.Named("notify")))
	}

	return senders
}

// newEvaluator wires the selected provider into an Evaluator.
func newEvaluator(cmd *cli.Command, log *logger.Logger) (*trading.Evaluator, error) {
	config, err := evaluatorConfig(cmd.StringSlice("timeframes"), int(cmd.Int("depth")))
	if err != nil {
		return nil, err
	}

	source, err := provider.NewMarketDataProvider(provider.ProviderType(cmd.String("provider")), os.Getenv("POLYGON_API_KEY"), log)
	if err != nil {
		return nil, err
	}

	books, _ := source.(provider.OrderBookProvider)

	return trading.NewEvaluator(source, books, macd.NewMACDGenerator(macd.DefaultMACDConfig(), log), config, log)
}

func symbolOf(cmd *cli.Command) string {
	return strings.ToUpper(strings.TrimSpace(cmd.String("symbol")))
}

// evaluateAction runs a single multi-timeframe analysis and prints it.
func evaluateAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	evaluator, err := newEvaluator(cmd, log)
	if err != nil {
		return err
	}

	symbol := symbolOf(cmd)

	eval, err := evaluator.Evaluate(ctx, symbol)
	if err != nil {
		return err
	}

	report.NewPrinter(os.Stdout).PrintEvaluation(eval)

	if !cmd.Bool("notify") {
		return nil
	}

	notifier := notify.NewNotifier(buildSenders(log, cmd.Bool("log-notifications")), log)
	if !notifier.Enabled() {
		return errors.New(errors.ErrCodeMissingParameter, "no notification sender configured, set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
	}

	return notifier.SendSummary(ctx, symbol, eval.Vote, eval.OrderBook)
}

// orderBookAction prints a depth-limited order book summary.
func orderBookAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	evaluator, err := newEvaluator(cmd, log)
	if err != nil {
		return err
	}

	summary, err := evaluator.OrderBook(ctx, symbolOf(cmd))
	if err != nil {
		return err
	}

	report.NewPrinter(os.Stdout).PrintOrderBook(summary)

	return nil
}

// runAction polls the market until SIGINT or SIGTERM.
func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	evaluator, err := newEvaluator(cmd, log)
	if err != nil {
		return err
	}

	notifier := notify.NewNotifier(buildSenders(log, cmd.Bool("log-notifications")), log)
	if !notifier.Enabled() {
		log.Warn("No notification sender configured, signals are only printed")
	}

	trader, err := trading.NewLiveTrader(trading.LiveTraderConfig{
		Symbol:         symbolOf(cmd),
		PollInterval:   cmd.Duration("interval"),
		TradingEnabled: cmd.Bool("enable-trading"),
		StatsPath:      cmd.String("stats"),
	}, evaluator, notifier, trading.NewNotifyExecutor(notifier, log), log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := report.NewPrinter(os.Stdout)

	onStart := trading.OnStartCallback(func(symbol string, timeframes []types.Timeframe) error {
		fmt.Println(report.TitleStyle.Render(fmt.Sprintf("Watching %s on %s", symbol, strings.Join(timeframeLabels(timeframes), ", "))))
		fmt.Println(report.HelpStyle.Render("Press Ctrl+C to stop"))

		return nil
	})
	onEvaluation := trading.OnEvaluationCallback(func(eval trading.Evaluation) error {
		printer.PrintEvaluation(eval)

		return nil
	})
	onError := trading.OnErrorCallback(func(err error) {
		log.Error("Live trading error", zap.Error(err))
	})
	onStop := trading.OnStopCallback(func(err error) {
		stats := trader.Stats()
		fmt.Printf("Stopped after %d ticks, %d evaluations, %d errors\n", stats.Ticks, stats.Evaluations, stats.Errors)
	})

	err = trader.Run(ctx, trading.LiveTraderCallbacks{
		OnStart:      &onStart,
		OnStop:       &onStop,
		OnEvaluation: &onEvaluation,
		OnError:      &onError,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func newCommand() *cli.Command {
	shared := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Trading pair such as BTCUSDT",
				Value:   "BTCUSDT",
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Market data provider (%s)", strings.Join(marketdata.GetSupportedProviders(), ", ")),
				Value:   string(marketdata.ProviderBinance),
			},
			&cli.StringSliceFlag{
				Name:    "timeframes",
				Aliases: []string{"tf"},
				Usage:   "Timeframes to evaluate",
				Value:   timeframeLabels(macd.DefaultTimeframes()),
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Order book levels to summarize",
				Value: marketdata.DefaultOrderBookDepth,
			},
			&cli.BoolFlag{
				Name:  "log-notifications",
				Usage: "Also write notifications to the log",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
		}
	}

	return &cli.Command{
		Name:    "live",
		Usage:   "Live MACD signal monitor with notifications",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:  "evaluate",
				Usage: "Run one multi-timeframe analysis",
				Flags: append(shared(), &cli.BoolFlag{
					Name:  "notify",
					Usage: "Send the summary to the configured notification senders",
				}),
				Action: evaluateAction,
			},
			{
				Name:   "orderbook",
				Usage:  "Print an order book summary",
				Flags:  shared(),
				Action: orderBookAction,
			},
			{
				Name:  "run",
				Usage: "Poll the market and notify on signals until interrupted",
				Flags: append(shared(),
					&cli.DurationFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Usage:   "Pause between analyses",
						Value:   trading.DefaultPollInterval,
					},
					&cli.BoolFlag{
						Name:  "enable-trading",
						Usage: "Forward voted decisions to the executor",
					},
					&cli.StringFlag{
						Name:  "stats",
						Usage: "Session stats YAML path, empty to disable",
						Value: fmt.Sprintf("stats/live_%s.yaml", time.Now().Format("20060102_150405")),
					},
				),
				Action: runAction,
			},
		},
	}
}

func main() {
	_ = godotenv.Load()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
