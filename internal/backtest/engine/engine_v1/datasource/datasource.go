// Package datasource supplies historical bars to the backtest engine.
package datasource

import (
	"context"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-macd/internal/types"
)

// BarSource returns bars for one symbol and timeframe within [start, end].
// Implementations return bars ascending by time with no duplicate
// timestamps. An empty slice is a valid answer.
type BarSource interface {
	FetchBars(ctx context.Context, symbol string, timeframe types.Timeframe, start, end time.Time) ([]types.Bar, error)
}

// NormalizeBars sorts bars by time and drops duplicate timestamps, keeping
// the last occurrence. The input slice is not modified.
func NormalizeBars(bars []types.Bar) []types.Bar {
	if len(bars) == 0 {
		return []types.Bar{}
	}

	out := make([]types.Bar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	deduped := out[:0]
	for _, b := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Time.Equal(b.Time) {
			deduped[n-1] = b

			continue
		}

		deduped = append(deduped, b)
	}

	return deduped
}

// FilterRange keeps the bars with start <= time <= end.
func FilterRange(bars []types.Bar, start, end time.Time) []types.Bar {
	out := make([]types.Bar, 0, len(bars))

	for _, b := range bars {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}

		out = append(out, b)
	}

	return out
}

// UpTo returns the prefix of an ascending series with time <= t.
func UpTo(bars []types.Bar, t time.Time) []types.Bar {
	n := sort.Search(len(bars), func(i int) bool { return bars[i].Time.After(t) })

	return bars[:n]
}
