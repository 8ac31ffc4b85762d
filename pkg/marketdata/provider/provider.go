package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-macd/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// OnDownloadProgress reports download progress. current and total share a
// unit chosen by the provider.
type OnDownloadProgress = func(current float64, total float64, message string)

// Provider fetches historical bars and can stream them into a BarWriter.
type Provider interface {
	datasource.BarSource
	// ConfigWriter sets the writer Download persists bars to.
	ConfigWriter(writer writer.BarWriter)
	// Download writes every bar of symbol in [start, end] to the configured
	// writer and returns the finalized output path.
	Download(ctx context.Context, symbol string, start, end time.Time, timeframe types.Timeframe, onProgress OnDownloadProgress) (path string, err error)
}

// OrderBookProvider returns a live order book snapshot.
type OrderBookProvider interface {
	OrderBook(ctx context.Context, symbol string) (OrderBook, error)
}

// NewMarketDataProvider creates a provider by type. apiKey is only used by
// providers that require authentication.
func NewMarketDataProvider(providerType ProviderType, apiKey string, log *logger.Logger) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient(log)
	case ProviderPolygon:
		return NewPolygonClient(apiKey, log)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

func reportProgress(onProgress OnDownloadProgress, current, total float64, message string) {
	if onProgress != nil {
		onProgress(current, total, message)
	}
}
