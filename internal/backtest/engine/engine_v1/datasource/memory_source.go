package datasource

import (
	"context"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

type memoryKey struct {
	symbol    string
	timeframe types.Timeframe
}

// MemorySource serves bars held in memory. It is safe for concurrent use.
type MemorySource struct {
	mu   sync.RWMutex
	data map[memoryKey][]types.Bar
}

var _ BarSource = (*MemorySource)(nil)

func NewMemorySource() *MemorySource {
	return &MemorySource{
		data: make(map[memoryKey][]types.Bar),
	}
}

// Set replaces the bars for a symbol and timeframe.
func (m *MemorySource) Set(symbol string, timeframe types.Timeframe, bars []types.Bar) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[memoryKey{symbol: symbol, timeframe: timeframe}] = NormalizeBars(bars)
}

// FetchBars implements BarSource. Unknown series are reported as not found.
func (m *MemorySource) FetchBars(ctx context.Context, symbol string, timeframe types.Timeframe, start, end time.Time) ([]types.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	bars, ok := m.data[memoryKey{symbol: symbol, timeframe: timeframe}]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no bars for %s %s", symbol, timeframe)
	}

	return FilterRange(bars, start, end), nil
}
