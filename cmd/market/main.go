package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/internal/version"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata/provider"
)

// downloadParams builds and checks the download request from flag values.
func downloadParams(symbol, timeframe string, start, end time.Time) (marketdata.DownloadParams, error) {
	tf, err := types.ParseTimeframe(timeframe)
	if err != nil {
		return marketdata.DownloadParams{}, err
	}

	if !end.After(start) {
		return marketdata.DownloadParams{}, errors.New(errors.ErrCodeInvalidPeriod, "end date must be after start date")
	}

	return marketdata.DownloadParams{
		Symbol:    strings.ToUpper(strings.TrimSpace(symbol)),
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
		Timeframe: tf,
	}, nil
}

// progressReporter renders provider progress on a terminal bar.
func progressReporter(description string) provider.OnDownloadProgress {
	var bar *progressbar.ProgressBar

	return func(current, total float64, message string) {
		if bar == nil {
			bar = progressbar.NewOptions(int(total),
				progressbar.OptionSetDescription(description),
				progressbar.OptionShowCount(),
			)
		}

		if int(total) != bar.GetMax() {
			bar.ChangeMax(int(total))
		}

		_ = bar.Set(int(current))

		if current >= total {
			_ = bar.Finish()
			fmt.Println()
		}
	}
}

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return logger.NewLoggerWithLevel(level)
}

// downloadAction fetches the requested bars and writes them to parquet.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	params, err := downloadParams(cmd.String("symbol"), cmd.String("timeframe"), cmd.Timestamp("start"), cmd.Timestamp("end"))
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	providerName := cmd.String("provider")
	clientConfig := marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(providerName),
		WriterType:    marketdata.WriterType(cmd.String("writer")),
		DataPath:      cmd.String("data"),
		PolygonApiKey: os.Getenv("POLYGON_API_KEY"),
	}

	client, err := marketdata.NewClient(clientConfig, progressReporter(fmt.Sprintf("Downloading %s %s", params.Symbol, params.Timeframe)), log)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	fmt.Printf("Downloading %s %s from %s to %s using %s...\n",
		params.Symbol, params.Timeframe, params.StartDate.Format("2006-01-02"), params.EndDate.Format("2006-01-02"), providerName)

	path, err := client.Download(ctx, params)
	if err != nil {
		return err
	}

	fmt.Printf("Saved %s\n", path)

	return nil
}

func providersAction(_ context.Context, cmd *cli.Command) error {
	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			return err
		}

		fmt.Printf("%-8s %-11s auth=%-5t orderbook=%-5t %s\n",
			info.Name, info.DisplayName, info.RequiresAuth, info.SupportsOrderBook, info.Description)
	}

	if name := cmd.String("schema"); name != "" {
		schema, err := marketdata.GetDownloadConfigSchema(name)
		if err != nil {
			return err
		}

		fmt.Println(schema)
	}

	return nil
}

func newCommand() *cli.Command {
	logLevel := &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level (debug, info, warn, error)",
		Value: "warn",
	}

	return &cli.Command{
		Name:    "market",
		Usage:   "Market data tools",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:  "download",
				Usage: "Download historical bars to a parquet file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "symbol",
						Aliases:  []string{"t", "ticker"},
						Usage:    "Symbol such as BTCUSDT or SPY",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "timeframe",
						Aliases: []string{"i"},
						Usage:   "Bar timeframe (1m, 5m, 15m, 30m, 1h, 4h, 1d, 3d, 1w)",
						Value:   string(types.Timeframe1h),
					},
					&cli.TimestampFlag{
						Name:    "start",
						Aliases: []string{"s"},
						Usage:   "Start date in `YYYY-MM-DD` format (or RFC3339)",
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02", time.RFC3339},
						},
						Required: true,
					},
					&cli.TimestampFlag{
						Name:    "end",
						Aliases: []string{"e"},
						Usage:   "End date in `YYYY-MM-DD` format (or RFC3339). Defaults to now.",
						Value:   time.Now(),
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02", time.RFC3339},
						},
					},
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   fmt.Sprintf("Data provider (%s)", strings.Join(marketdata.GetSupportedProviders(), ", ")),
						Value:   string(marketdata.ProviderBinance),
					},
					&cli.StringFlag{
						Name:    "writer",
						Aliases: []string{"w"},
						Usage:   fmt.Sprintf("Data writer format (%s)", marketdata.WriterDuckDB),
						Value:   string(marketdata.WriterDuckDB),
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Output directory",
						Value:   "data",
					},
					logLevel,
				},
				Action: downloadAction,
			},
			{
				Name:  "providers",
				Usage: "List supported providers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "schema",
						Usage: "Also print the download config JSON schema of this provider",
					},
				},
				Action: providersAction,
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
