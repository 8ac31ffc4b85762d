package trading

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/argo-macd/internal/signal"
	"github.com/rxtech-lab/argo-macd/internal/types"
)

func TestStatsTracker(t *testing.T) {
	t.Run("snapshot is a copy", func(t *testing.T) {
		tracker := NewStatsTracker("BTCUSDT", "")
		tracker.RecordSignal(types.Signal{Kind: types.SignalKindTopSell})

		snap := tracker.Snapshot()
		snap.Signals[types.SignalKindTopSell] = 10

		assert.Equal(t, 1, tracker.Snapshot().Signals[types.SignalKindTopSell])
	})

	t.Run("counts", func(t *testing.T) {
		tracker := NewStatsTracker("ETHUSDT", "")
		tracker.RecordTick()
		tracker.RecordTick()
		tracker.RecordDecision(signal.DecisionShort)
		tracker.RecordDecision(signal.DecisionWait)
		tracker.RecordError()

		snap := tracker.Snapshot()
		assert.Equal(t, 2, snap.Ticks)
		assert.Equal(t, 2, snap.Evaluations)
		assert.Equal(t, 1, snap.Errors)
		assert.Equal(t, 1, snap.Decisions[signal.DecisionShort])
		assert.Equal(t, signal.DecisionWait, snap.LastDecision)
		assert.False(t, snap.LastUpdated.Before(snap.SessionStart))
	})

	t.Run("no output path", func(t *testing.T) {
		require.NoError(t, NewStatsTracker("BTCUSDT", "").WriteStatsYAML())
	})

	t.Run("writes yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a", "stats.yaml")
		tracker := NewStatsTracker("BTCUSDT", path)
		tracker.SetTradingEnabled(true)

		require.NoError(t, tracker.WriteStatsYAML())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "symbol: BTCUSDT")
		assert.Contains(t, string(data), "trading_enabled: true")
		assert.Equal(t, path, tracker.OutputPath())
	})
}
