package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rxtech-lab/argo-macd/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata/writer"
)

const (
	// binanceKlineLimit is the maximum number of klines per request.
	binanceKlineLimit = 1000
	// binanceDepthLimit is the number of levels requested per order book side.
	binanceDepthLimit = 100
)

// binanceIntervals are the kline intervals the exchange serves.
var binanceIntervals = map[types.Timeframe]struct{}{
	"1m": {}, "3m": {}, "5m": {}, "15m": {}, "30m": {},
	"1h": {}, "2h": {}, "4h": {}, "6h": {}, "8h": {}, "12h": {},
	"1d": {}, "3d": {}, "1w": {},
}

// BinanceKlinesService is the subset of the kline request builder we use.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceDepthService is the subset of the depth request builder we use.
type BinanceDepthService interface {
	Symbol(symbol string) BinanceDepthService
	Limit(limit int) BinanceDepthService
	Do(ctx context.Context) (*binance.DepthResponse, error)
}

// BinanceAPIClient abstracts the exchange client so tests can inject fakes.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
	NewDepthService() BinanceDepthService
}

type binanceAPIWrapper struct {
	client *binance.Client
}

func (w *binanceAPIWrapper) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesWrapper{svc: w.client.NewKlinesService()}
}

func (w *binanceAPIWrapper) NewDepthService() BinanceDepthService {
	return &binanceDepthWrapper{svc: w.client.NewDepthService()}
}

type binanceKlinesWrapper struct {
	svc *binance.KlinesService
}

func (k *binanceKlinesWrapper) Symbol(symbol string) BinanceKlinesService {
	k.svc.Symbol(symbol)

	return k
}

func (k *binanceKlinesWrapper) Interval(interval string) BinanceKlinesService {
	k.svc.Interval(interval)

	return k
}

func (k *binanceKlinesWrapper) StartTime(startTime int64) BinanceKlinesService {
	k.svc.StartTime(startTime)

	return k
}

func (k *binanceKlinesWrapper) EndTime(endTime int64) BinanceKlinesService {
	k.svc.EndTime(endTime)

	return k
}

func (k *binanceKlinesWrapper) Limit(limit int) BinanceKlinesService {
	k.svc.Limit(limit)

	return k
}

func (k *binanceKlinesWrapper) Do(ctx context.Context) ([]*binance.Kline, error) {
	return k.svc.Do(ctx)
}

type binanceDepthWrapper struct {
	svc *binance.DepthService
}

func (d *binanceDepthWrapper) Symbol(symbol string) BinanceDepthService {
	d.svc.Symbol(symbol)

	return d
}

func (d *binanceDepthWrapper) Limit(limit int) BinanceDepthService {
	d.svc.Limit(limit)

	return d
}

func (d *binanceDepthWrapper) Do(ctx context.Context) (*binance.DepthResponse, error) {
	return d.svc.Do(ctx)
}

// BinanceClient reads public spot market data. No credentials are needed.
type BinanceClient struct {
	api     BinanceAPIClient
	writer  writer.BarWriter
	limiter *rate.Limiter
	log     *logger.Logger
	now     func() time.Time
}

var (
	_ Provider          = (*BinanceClient)(nil)
	_ OrderBookProvider = (*BinanceClient)(nil)
)

// NewBinanceClient creates a client against the public Binance API.
func NewBinanceClient(log *logger.Logger) (*BinanceClient, error) {
	return NewBinanceClientWithAPI(&binanceAPIWrapper{client: binance.NewClient("", "")}, log), nil
}

// NewBinanceClientWithAPI creates a client over api. Requests are paced at
// ten per second with a burst of five.
func NewBinanceClientWithAPI(api BinanceAPIClient, log *logger.Logger) *BinanceClient {
	return &BinanceClient{
		api:     api,
		writer:  nil,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
		log:     log.Named("binance"),
		now:     time.Now,
	}
}

// WithRateLimit replaces the request limiter.
func (c *BinanceClient) WithRateLimit(limiter *rate.Limiter) *BinanceClient {
	c.limiter = limiter

	return c
}

func (c *BinanceClient) ConfigWriter(w writer.BarWriter) {
	c.writer = w
}

// BinanceInterval validates that the exchange serves timeframe.
func BinanceInterval(timeframe types.Timeframe) (string, error) {
	if _, ok := binanceIntervals[timeframe]; !ok {
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timeframe for Binance: %s", timeframe)
	}

	return string(timeframe), nil
}

// FetchBars pages through klines in [start, end] and returns them sorted
// and de-duplicated.
func (c *BinanceClient) FetchBars(ctx context.Context, symbol string, timeframe types.Timeframe, start, end time.Time) ([]types.Bar, error) {
	interval, err := BinanceInterval(timeframe)
	if err != nil {
		return nil, err
	}

	var bars []types.Bar

	err = c.fetchPages(ctx, symbol, interval, start, end, func(page []*binance.Kline) error {
		converted, err := klinesToBars(symbol, page)
		if err != nil {
			return err
		}

		bars = append(bars, converted...)

		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Debug("fetched klines",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.Int("bars", len(bars)),
	)

	return datasource.FilterRange(datasource.NormalizeBars(bars), start, end), nil
}

// Download writes every kline in [start, end] to the configured writer.
func (c *BinanceClient) Download(ctx context.Context, symbol string, start, end time.Time, timeframe types.Timeframe, onProgress OnDownloadProgress) (string, error) {
	interval, err := BinanceInterval(timeframe)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMissingParameter, "writer is not configured")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	total := float64(end.UnixMilli() - start.UnixMilli())
	message := fmt.Sprintf("Downloading %s %s klines from Binance", symbol, interval)

	err = c.fetchPages(ctx, symbol, interval, start, end, func(page []*binance.Kline) error {
		bars, err := klinesToBars(symbol, page)
		if err != nil {
			return err
		}

		for _, bar := range bars {
			if err := c.writer.Write(bar); err != nil {
				return fmt.Errorf("failed to write bar: %w", err)
			}
		}

		reportProgress(onProgress, float64(page[len(page)-1].OpenTime-start.UnixMilli()), total, message)

		return nil
	})
	if err != nil {
		return "", err
	}

	reportProgress(onProgress, total, total, message)

	return c.writer.Finalize()
}

// fetchPages requests klines from start onward, limit per page, until a
// short or empty page or a page reaching end.
func (c *BinanceClient) fetchPages(ctx context.Context, symbol, interval string, start, end time.Time, onPage func([]*binance.Kline) error) error {
	cursor := start.UnixMilli()
	endMillis := end.UnixMilli()

	for cursor <= endMillis {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "rate limiter wait interrupted", err)
		}

		klines, err := c.api.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(cursor).
			EndTime(endMillis).
			Limit(binanceKlineLimit).
			Do(ctx)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s %s klines from Binance", symbol, interval)
		}

		if len(klines) == 0 {
			return nil
		}

		if err := onPage(klines); err != nil {
			return err
		}

		last := klines[len(klines)-1].OpenTime
		if len(klines) < binanceKlineLimit || last >= endMillis {
			return nil
		}

		cursor = last + 1
	}

	return nil
}

// OrderBook returns the current depth snapshot for symbol.
func (c *BinanceClient) OrderBook(ctx context.Context, symbol string) (OrderBook, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return OrderBook{}, errors.Wrap(errors.ErrCodeOrderBookFailed, "rate limiter wait interrupted", err)
	}

	res, err := c.api.NewDepthService().Symbol(symbol).Limit(binanceDepthLimit).Do(ctx)
	if err != nil {
		return OrderBook{}, errors.Wrapf(errors.ErrCodeOrderBookFailed, err, "failed to fetch %s order book", symbol)
	}

	book := OrderBook{
		Symbol:       symbol,
		Time:         c.now().UTC(),
		LastUpdateID: res.LastUpdateID,
		Bids:         make([]PriceLevel, 0, len(res.Bids)),
		Asks:         make([]PriceLevel, 0, len(res.Asks)),
	}

	for _, b := range res.Bids {
		level, err := parseLevel(b.Price, b.Quantity)
		if err != nil {
			return OrderBook{}, err
		}

		book.Bids = append(book.Bids, level)
	}

	for _, a := range res.Asks {
		level, err := parseLevel(a.Price, a.Quantity)
		if err != nil {
			return OrderBook{}, err
		}

		book.Asks = append(book.Asks, level)
	}

	return book, nil
}

func parseLevel(price, quantity string) (PriceLevel, error) {
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return PriceLevel{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid price %q", price)
	}

	q, err := strconv.ParseFloat(quantity, 64)
	if err != nil {
		return PriceLevel{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid quantity %q", quantity)
	}

	return PriceLevel{Price: p, Quantity: q}, nil
}

// klinesToBars converts exchange klines, stamped at their open time.
func klinesToBars(symbol string, klines []*binance.Kline) ([]types.Bar, error) {
	bars := make([]types.Bar, 0, len(klines))

	for _, k := range klines {
		values := make([]float64, 5)

		for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q at %d", raw, k.OpenTime)
			}

			values[i] = v
		}

		bars = append(bars, types.Bar{
			Symbol: symbol,
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}

	return bars, nil
}
