package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType = provider.ProviderType

const (
	ProviderPolygon = provider.ProviderPolygon
	ProviderBinance = provider.ProviderBinance
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  ProviderType `validate:"required,oneof=polygon binance"`
	WriterType    WriterType   `validate:"required,oneof=duckdb"`
	DataPath      string       `validate:"required"`
	PolygonApiKey string       `validate:"required_if=ProviderType polygon"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Symbol    string          `validate:"required"`
	StartDate time.Time       `validate:"required"`
	EndDate   time.Time       `validate:"required,gtfield=StartDate"`
	Timeframe types.Timeframe `validate:"required"`
}

// OutputFileName is the parquet file name a download writes:
// SYMBOL_START_END_TIMEFRAME.parquet.
func (p DownloadParams) OutputFileName() string {
	return fmt.Sprintf("%s_%s_%s_%s.parquet",
		p.Symbol,
		p.StartDate.Format("2006-01-02"),
		p.EndDate.Format("2006-01-02"),
		p.Timeframe)
}

// Client downloads bars from a provider into writers and serves bars and
// order book summaries to callers.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
	log        *logger.Logger
}

// NewClient creates a client for the configured provider.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, config.PolygonApiKey, log)
	if err != nil {
		return nil, err
	}

	return NewClientWithProvider(config, marketProvider, onProgress, log)
}

// NewClientWithProvider creates a client over an existing provider.
func NewClientWithProvider(config ClientConfig, p provider.Provider, onProgress provider.OnDownloadProgress, log *logger.Logger) (*Client, error) {
	if p == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "provider is required")
	}

	return &Client{
		provider:   p,
		config:     config,
		validate:   validator.New(),
		onProgress: onProgress,
		log:        log.Named("marketdata"),
	}, nil
}

// FetchBars delegates to the provider, so a Client can feed a backtest.
func (c *Client) FetchBars(ctx context.Context, symbol string, timeframe types.Timeframe, start, end time.Time) ([]types.Bar, error) {
	return c.provider.FetchBars(ctx, symbol, timeframe, start, end)
}

// Download writes the requested bars to a parquet file under DataPath and
// returns its path.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	if _, err := types.ParseTimeframe(string(params.Timeframe)); err != nil {
		return "", err
	}

	barWriter, err := c.setupWriter(params)
	if err != nil {
		return "", err
	}

	defer func() {
		if err := barWriter.Close(); err != nil {
			c.log.Warn("failed to close writer", zap.Error(err))
		}
	}()

	c.provider.ConfigWriter(barWriter)

	path, err := c.provider.Download(ctx, params.Symbol, params.StartDate, params.EndDate, params.Timeframe, c.onProgress)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	c.log.Info("download complete",
		zap.String("symbol", params.Symbol),
		zap.String("timeframe", params.Timeframe.String()),
		zap.String("path", path),
	)

	return path, nil
}

// OrderBookSummary fetches an order book snapshot and summarizes its top
// depth levels. Only providers that serve order books support it.
func (c *Client) OrderBookSummary(ctx context.Context, symbol string, depth int) (OrderBookSummary, error) {
	books, ok := c.provider.(provider.OrderBookProvider)
	if !ok {
		return OrderBookSummary{}, errors.Newf(errors.ErrCodeInvalidProvider, "provider %s does not serve order books", c.config.ProviderType)
	}

	book, err := books.OrderBook(ctx, symbol)
	if err != nil {
		return OrderBookSummary{}, err
	}

	return Summarize(book, depth), nil
}

func (c *Client) setupWriter(params DownloadParams) (writer.BarWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		if err := os.MkdirAll(c.config.DataPath, 0o755); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create data path %s", c.config.DataPath)
		}

		return writer.NewDuckDBWriter(filepath.Join(c.config.DataPath, params.OutputFileName()), c.log), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}
}
