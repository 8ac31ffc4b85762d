package trading

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-macd/internal/signal"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

// SessionStats is the running summary of a live session.
type SessionStats struct {
	RunID          string                   `yaml:"run_id" json:"run_id"`
	Symbol         string                   `yaml:"symbol" json:"symbol"`
	SessionStart   time.Time                `yaml:"session_start" json:"session_start"`
	LastUpdated    time.Time                `yaml:"last_updated" json:"last_updated"`
	Ticks          int                      `yaml:"ticks" json:"ticks"`
	Evaluations    int                      `yaml:"evaluations" json:"evaluations"`
	Errors         int                      `yaml:"errors" json:"errors"`
	Signals        map[types.SignalKind]int `yaml:"signals" json:"signals"`
	Decisions      map[signal.Decision]int  `yaml:"decisions" json:"decisions"`
	LastDecision   signal.Decision          `yaml:"last_decision,omitempty" json:"last_decision,omitempty"`
	TradingEnabled bool                     `yaml:"trading_enabled" json:"trading_enabled"`
}

// StatsTracker accumulates SessionStats and optionally persists them as
// YAML. It is safe for concurrent use.
type StatsTracker struct {
	stats      SessionStats
	outputPath string
	mu         sync.Mutex
	now        func() time.Time
}

// NewStatsTracker starts a session for symbol. outputPath may be empty.
func NewStatsTracker(symbol, outputPath string) *StatsTracker {
	now := time.Now().UTC()

	return &StatsTracker{
		stats: SessionStats{
			RunID:        uuid.NewString(),
			Symbol:       symbol,
			SessionStart: now,
			LastUpdated:  now,
			Signals:      make(map[types.SignalKind]int),
			Decisions:    make(map[signal.Decision]int),
		},
		outputPath: outputPath,
		now:        time.Now,
	}
}

// RecordTick counts one polling iteration.
func (s *StatsTracker) RecordTick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Ticks++
	s.touch()
}

// RecordSignal counts a non-hold signal.
func (s *StatsTracker) RecordSignal(sig types.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Signals[sig.Kind]++
	s.touch()
}

// RecordDecision counts the outcome of a vote.
func (s *StatsTracker) RecordDecision(decision signal.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Evaluations++
	s.stats.Decisions[decision]++
	s.stats.LastDecision = decision
	s.touch()
}

// RecordError counts a failed evaluation step.
func (s *StatsTracker) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Errors++
	s.touch()
}

// SetTradingEnabled records the execution switch.
func (s *StatsTracker) SetTradingEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TradingEnabled = enabled
	s.touch()
}

// Snapshot returns a copy of the current stats.
func (s *StatsTracker) Snapshot() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.stats
	out.Signals = make(map[types.SignalKind]int, len(s.stats.Signals))
	for k, v := range s.stats.Signals {
		out.Signals[k] = v
	}

	out.Decisions = make(map[signal.Decision]int, len(s.stats.Decisions))
	for k, v := range s.stats.Decisions {
		out.Decisions[k] = v
	}

	return out
}

// WriteStatsYAML writes the current stats to the output path.
func (s *StatsTracker) WriteStatsYAML() error {
	if s.outputPath == "" {
		return nil
	}

	data, err := yaml.Marshal(s.Snapshot())
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to marshal session stats", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.outputPath), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create stats directory", err)
	}

	if err := os.WriteFile(s.outputPath, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write session stats", err)
	}

	return nil
}

// OutputPath returns where WriteStatsYAML writes.
func (s *StatsTracker) OutputPath() string {
	return s.outputPath
}

func (s *StatsTracker) touch() {
	s.stats.LastUpdated = s.now().UTC()
}
