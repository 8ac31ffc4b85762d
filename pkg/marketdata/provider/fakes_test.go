package provider

import (
	"context"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/rxtech-lab/argo-macd/internal/types"
)

// fakeWriter records bars written through the BarWriter interface.
type fakeWriter struct {
	initializeErr  error
	writeErr       error
	writeErrAfterN int
	finalizeErr    error
	outputPath     string

	initialized   bool
	written       []types.Bar
	writeCalls    int
	finalizeCalls int
}

func (f *fakeWriter) Initialize() error {
	if f.initializeErr != nil {
		return f.initializeErr
	}

	f.initialized = true

	return nil
}

func (f *fakeWriter) Write(bar types.Bar) error {
	f.writeCalls++
	if f.writeErr != nil && f.writeCalls > f.writeErrAfterN {
		return f.writeErr
	}

	f.written = append(f.written, bar)

	return nil
}

func (f *fakeWriter) Finalize() (string, error) {
	f.finalizeCalls++
	if f.finalizeErr != nil {
		return "", f.finalizeErr
	}

	return f.outputPath, nil
}

func (f *fakeWriter) Close() error { return nil }

func (f *fakeWriter) GetOutputPath() string { return f.outputPath }

// klineRequest captures the parameters of one kline request.
type klineRequest struct {
	symbol   string
	interval string
	start    int64
	end      int64
	limit    int
}

// fakeBinanceAPI serves one page per call from pages.
type fakeBinanceAPI struct {
	pages    [][]*binance.Kline
	errs     []error
	requests []klineRequest

	depth    *binance.DepthResponse
	depthErr error
	depthReq struct {
		symbol string
		limit  int
	}
}

func (f *fakeBinanceAPI) NewKlinesService() BinanceKlinesService {
	return &fakeKlinesService{api: f}
}

func (f *fakeBinanceAPI) NewDepthService() BinanceDepthService {
	return &fakeDepthService{api: f}
}

type fakeKlinesService struct {
	api *fakeBinanceAPI
	req klineRequest
}

func (s *fakeKlinesService) Symbol(symbol string) BinanceKlinesService {
	s.req.symbol = symbol

	return s
}

func (s *fakeKlinesService) Interval(interval string) BinanceKlinesService {
	s.req.interval = interval

	return s
}

func (s *fakeKlinesService) StartTime(startTime int64) BinanceKlinesService {
	s.req.start = startTime

	return s
}

func (s *fakeKlinesService) EndTime(endTime int64) BinanceKlinesService {
	s.req.end = endTime

	return s
}

func (s *fakeKlinesService) Limit(limit int) BinanceKlinesService {
	s.req.limit = limit

	return s
}

func (s *fakeKlinesService) Do(_ context.Context) ([]*binance.Kline, error) {
	idx := len(s.api.requests)
	s.api.requests = append(s.api.requests, s.req)

	var err error
	if idx < len(s.api.errs) {
		err = s.api.errs[idx]
	}

	if idx < len(s.api.pages) {
		return s.api.pages[idx], err
	}

	return nil, err
}

type fakeDepthService struct {
	api *fakeBinanceAPI
}

func (s *fakeDepthService) Symbol(symbol string) BinanceDepthService {
	s.api.depthReq.symbol = symbol

	return s
}

func (s *fakeDepthService) Limit(limit int) BinanceDepthService {
	s.api.depthReq.limit = limit

	return s
}

func (s *fakeDepthService) Do(_ context.Context) (*binance.DepthResponse, error) {
	return s.api.depth, s.api.depthErr
}

// klinePage builds count one-minute klines starting at start.
func klinePage(start time.Time, count int) []*binance.Kline {
	page := make([]*binance.Kline, count)
	for i := range page {
		open := start.Add(time.Duration(i) * time.Minute)
		page[i] = &binance.Kline{
			OpenTime:  open.UnixMilli(),
			CloseTime: open.Add(time.Minute).UnixMilli() - 1,
			Open:      "100.5",
			High:      "101",
			Low:       "99.5",
			Close:     "100.75",
			Volume:    "3.25",
		}
	}

	return page
}

type fakePolygonAPI struct {
	iter   *fakeAggsIterator
	params *models.ListAggsParams
}

func (f *fakePolygonAPI) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonAggsIterator {
	f.params = params

	return f.iter
}

type fakeAggsIterator struct {
	aggs  []models.Agg
	index int
	err   error
}

func (it *fakeAggsIterator) Next() bool {
	if it.index < len(it.aggs) {
		it.index++

		return true
	}

	return false
}

func (it *fakeAggsIterator) Item() models.Agg {
	return it.aggs[it.index-1]
}

func (it *fakeAggsIterator) Err() error {
	return it.err
}
