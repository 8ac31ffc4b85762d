package provider

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-macd/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata/writer"
)

// polygonAggsLimit is the maximum number of aggregates per page.
const polygonAggsLimit = 50000

// PolygonAggsIterator is the iterator returned by ListAggs.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient abstracts the aggregates endpoint so tests can inject fakes.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, opts ...models.RequestOption) PolygonAggsIterator
}

type polygonAPIWrapper struct {
	client *polygon.Client
}

func (w *polygonAPIWrapper) ListAggs(ctx context.Context, params *models.ListAggsParams, opts ...models.RequestOption) PolygonAggsIterator {
	return w.client.ListAggs(ctx, params, opts...)
}

// PolygonClient reads aggregate bars from Polygon.io.
type PolygonClient struct {
	api    PolygonAPIClient
	writer writer.BarWriter
	log    *logger.Logger
}

var _ Provider = (*PolygonClient)(nil)

// NewPolygonClient creates a client authenticated with apiKey.
func NewPolygonClient(apiKey string, log *logger.Logger) (*PolygonClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "polygon apiKey is required")
	}

	return NewPolygonClientWithAPI(&polygonAPIWrapper{client: polygon.New(apiKey)}, log), nil
}

// NewPolygonClientWithAPI creates a client over api.
func NewPolygonClientWithAPI(api PolygonAPIClient, log *logger.Logger) *PolygonClient {
	return &PolygonClient{
		api:    api,
		writer: nil,
		log:    log.Named("polygon"),
	}
}

func (c *PolygonClient) ConfigWriter(w writer.BarWriter) {
	c.writer = w
}

// PolygonTimespan splits a timeframe into Polygon's multiplier and timespan.
func PolygonTimespan(timeframe types.Timeframe) (int, models.Timespan, error) {
	d, err := timeframe.Duration()
	if err != nil {
		return 0, "", errors.Wrapf(errors.ErrCodeInvalidTimespan, err, "unsupported timeframe for Polygon: %s", timeframe)
	}

	label := string(timeframe)

	var span models.Timespan

	unit := time.Minute

	switch label[len(label)-1] {
	case 'm':
		span = models.Minute
	case 'h':
		span, unit = models.Hour, time.Hour
	case 'd':
		span, unit = models.Day, 24*time.Hour
	case 'w':
		span, unit = models.Week, 7*24*time.Hour
	}

	return int(d / unit), span, nil
}

func (c *PolygonClient) listAggs(ctx context.Context, symbol string, timeframe types.Timeframe, start, end time.Time) (PolygonAggsIterator, error) {
	multiplier, span, err := PolygonTimespan(timeframe)
	if err != nil {
		return nil, err
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: multiplier,
		Timespan:   span,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(polygonAggsLimit)

	return c.api.ListAggs(ctx, params), nil
}

func aggToBar(symbol string, agg models.Agg) types.Bar {
	return types.Bar{
		Symbol: symbol,
		Time:   time.Time(agg.Timestamp).UTC(),
		Open:   agg.Open,
		High:   agg.High,
		Low:    agg.Low,
		Close:  agg.Close,
		Volume: agg.Volume,
	}
}

// FetchBars returns the aggregates of symbol in [start, end].
func (c *PolygonClient) FetchBars(ctx context.Context, symbol string, timeframe types.Timeframe, start, end time.Time) ([]types.Bar, error) {
	iter, err := c.listAggs(ctx, symbol, timeframe, start, end)
	if err != nil {
		return nil, err
	}

	var bars []types.Bar
	for iter.Next() {
		bars = append(bars, aggToBar(symbol, iter.Item()))
	}

	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to list %s aggregates", symbol)
	}

	return datasource.FilterRange(datasource.NormalizeBars(bars), start, end), nil
}

// Download writes every aggregate of symbol in [start, end] to the
// configured writer. Progress is reported in elapsed days.
func (c *PolygonClient) Download(ctx context.Context, symbol string, start, end time.Time, timeframe types.Timeframe, onProgress OnDownloadProgress) (string, error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMissingParameter, "writer is not configured")
	}

	iter, err := c.listAggs(ctx, symbol, timeframe, start, end)
	if err != nil {
		return "", err
	}

	if err := c.writer.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	totalDays := end.Sub(start).Hours()/24 + 1
	message := fmt.Sprintf("Downloading %s", symbol)
	count := 0

	for iter.Next() {
		bar := aggToBar(symbol, iter.Item())
		if err := c.writer.Write(bar); err != nil {
			return "", fmt.Errorf("failed to write bar: %w", err)
		}

		count++
		if count%1000 == 0 {
			reportProgress(onProgress, bar.Time.Sub(start).Hours()/24, totalDays, message)
		}
	}

	if err := iter.Err(); err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to list %s aggregates", symbol)
	}

	reportProgress(onProgress, totalDays, totalDays, message)
	c.log.Info("downloaded aggregates", zap.String("symbol", symbol), zap.Int("bars", count))

	return c.writer.Finalize()
}
