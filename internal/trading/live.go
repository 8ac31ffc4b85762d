package trading

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/notify"
	"github.com/rxtech-lab/argo-macd/internal/signal"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

// DefaultPollInterval is the pause between two market analyses.
const DefaultPollInterval = 60 * time.Second

// LiveTraderConfig configures the polling loop.
type LiveTraderConfig struct {
	Symbol         string        `yaml:"symbol" json:"symbol" validate:"required"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval" validate:"gte=0"`
	TradingEnabled bool          `yaml:"trading_enabled" json:"trading_enabled"`
	// StatsPath is where session stats are written on every tick. Empty
	// disables persistence.
	StatsPath string `yaml:"stats_path" json:"stats_path"`
}

// Lifecycle callbacks. A nil pointer means no callback.
type (
	OnStartCallback      func(symbol string, timeframes []types.Timeframe) error
	OnStopCallback       func(err error)
	OnEvaluationCallback func(eval Evaluation) error
	OnErrorCallback      func(err error)
)

// LiveTraderCallbacks holds the optional lifecycle hooks of Run.
type LiveTraderCallbacks struct {
	// OnStart is called once before the first analysis. An error aborts Run.
	OnStart *OnStartCallback
	// OnStop is always called when Run returns.
	OnStop *OnStopCallback
	// OnEvaluation is called after every analysis that evaluated at least
	// one timeframe.
	OnEvaluation *OnEvaluationCallback
	// OnError is called for non-fatal failures.
	OnError *OnErrorCallback
}

// MinInterval is the shortest time between two signals of one timeframe.
func MinInterval(tf types.Timeframe) time.Duration {
	d, err := tf.Duration()
	if err != nil {
		return time.Hour / 4
	}

	return d / 4
}

// LiveTrader polls the market, notifies signals and forwards decisions to an
// Executor while trading is enabled.
type LiveTrader struct {
	config    LiveTraderConfig
	evaluator *Evaluator
	notifier  *notify.Notifier
	executor  Executor
	stats     *StatsTracker
	log       *logger.Logger
	now       func() time.Time

	tradingEnabled atomic.Bool

	mu         sync.Mutex
	lastSignal map[types.Timeframe]time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewLiveTrader creates a stopped trader. A nil notifier disables
// notifications and a nil executor announces decisions through notifier.
func NewLiveTrader(config LiveTraderConfig, evaluator *Evaluator, notifier *notify.Notifier, executor Executor, log *logger.Logger) (*LiveTrader, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid live trader config", err)
	}

	if evaluator == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "evaluator is required")
	}

	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}

	if notifier == nil {
		notifier = notify.NewNotifier(nil, log)
	}

	if executor == nil {
		executor = NewNotifyExecutor(notifier, log)
	}

	t := &LiveTrader{
		config:     config,
		evaluator:  evaluator,
		notifier:   notifier,
		executor:   executor,
		stats:      NewStatsTracker(config.Symbol, config.StatsPath),
		log:        log.Named("live"),
		now:        time.Now,
		lastSignal: make(map[types.Timeframe]time.Time),
	}

	t.tradingEnabled.Store(config.TradingEnabled)
	t.stats.SetTradingEnabled(config.TradingEnabled)

	return t, nil
}

// Stats returns a snapshot of the session stats.
func (t *LiveTrader) Stats() SessionStats {
	return t.stats.Snapshot()
}

// TradingEnabled reports whether decisions reach the executor.
func (t *LiveTrader) TradingEnabled() bool {
	return t.tradingEnabled.Load()
}

// EnableTrading lets decisions reach the executor.
func (t *LiveTrader) EnableTrading(ctx context.Context) {
	t.tradingEnabled.Store(true)
	t.stats.SetTradingEnabled(true)
	t.log.Info("trade execution enabled")
	t.notify(t.notifier.SendMessage(ctx, "", "✅ Trade execution enabled"))
}

// DisableTrading stops forwarding decisions.
func (t *LiveTrader) DisableTrading(ctx context.Context) {
	t.tradingEnabled.Store(false)
	t.stats.SetTradingEnabled(false)
	t.log.Info("trade execution disabled")
	t.notify(t.notifier.SendMessage(ctx, "", "⛔ Trade execution disabled"))
}

// Start runs the loop in a background goroutine. Starting a running trader
// is a no-op.
func (t *LiveTrader) Start(ctx context.Context, callbacks LiveTraderCallbacks) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)

		if err := t.Run(runCtx, callbacks); err != nil {
			t.log.Error("live trader stopped with error", zap.Error(err))
		}
	}()
}

// Stop cancels a loop started with Start and waits for it to exit.
func (t *LiveTrader) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// Running reports whether a loop started with Start is active.
func (t *LiveTrader) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cancel != nil
}

// Run analyzes the market immediately and then once per poll interval
// until ctx is cancelled. Failed analyses are reported and retried on the
// next tick.
func (t *LiveTrader) Run(ctx context.Context, callbacks LiveTraderCallbacks) (runErr error) {
	timeframes := t.evaluator.Config().Timeframes

	defer func() {
		if err := t.stats.WriteStatsYAML(); err != nil {
			t.log.Warn("failed to write session stats", zap.Error(err))
		}

		t.notify(t.notifier.SendMessage(context.WithoutCancel(ctx), "", "🔴 Trading bot stopped"))

		if callbacks.OnStop != nil {
			(*callbacks.OnStop)(runErr)
		}
	}()

	if callbacks.OnStart != nil {
		if err := (*callbacks.OnStart)(t.config.Symbol, timeframes); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "OnStart callback failed", err)
		}
	}

	t.log.Info("live trader started",
		zap.String("symbol", t.config.Symbol),
		zap.Duration("poll_interval", t.config.PollInterval),
		zap.Bool("trading_enabled", t.TradingEnabled()),
	)
	t.notify(t.notifier.SendMessage(ctx, "", "🟢 Trading bot started"))

	ticker := time.NewTicker(t.config.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := t.Tick(ctx, callbacks); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			t.reportError(ctx, callbacks, err, "trading loop")
		}

		if err := t.stats.WriteStatsYAML(); err != nil {
			t.log.Warn("failed to write session stats", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one analysis of the timeframes that are due. ok is false when
// no timeframe was due.
func (t *LiveTrader) Tick(ctx context.Context, callbacks LiveTraderCallbacks) (bool, error) {
	t.stats.RecordTick()

	now := t.now()

	due := t.dueTimeframes(now)
	if len(due) == 0 {
		t.log.Debug("no timeframe due")

		return false, nil
	}

	eval, err := t.evaluator.EvaluateTimeframes(ctx, t.config.Symbol, due)
	if err != nil {
		return false, err
	}

	active := 0

	for _, r := range eval.Timeframes {
		if r.Err != nil {
			t.reportError(ctx, callbacks, r.Err, fmt.Sprintf("analysis of %s", r.Timeframe))

			continue
		}

		if r.Signal.Kind.IsHold() {
			continue
		}

		active++

		t.mu.Lock()
		t.lastSignal[r.Timeframe] = now
		t.mu.Unlock()

		t.stats.RecordSignal(r.Signal)
		t.notify(t.notifier.SendTradeSignal(ctx, t.config.Symbol, r.Signal, r.LastPrice,
			fmt.Sprintf("Signal weight: %.2f", r.Weight)))
	}

	t.stats.RecordDecision(eval.Vote.Decision)

	if callbacks.OnEvaluation != nil {
		if err := (*callbacks.OnEvaluation)(eval); err != nil {
			return true, errors.Wrap(errors.ErrCodeCallbackFailed, "OnEvaluation callback failed", err)
		}
	}

	if t.TradingEnabled() && active > 0 && eval.Vote.Decision != signal.DecisionWait {
		if err := t.executor.Execute(ctx, t.config.Symbol, eval.Vote); err != nil {
			t.reportError(ctx, callbacks, err, "trade execution")
		}
	}

	return true, nil
}

func (t *LiveTrader) dueTimeframes(now time.Time) []types.Timeframe {
	t.mu.Lock()
	defer t.mu.Unlock()

	var due []types.Timeframe

	for _, tf := range t.evaluator.Config().Timeframes {
		if last, ok := t.lastSignal[tf]; ok && now.Sub(last) < MinInterval(tf) {
			continue
		}

		due = append(due, tf)
	}

	return due
}

func (t *LiveTrader) reportError(ctx context.Context, callbacks LiveTraderCallbacks, err error, operation string) {
	t.stats.RecordError()
	t.log.Warn("live trader error", zap.String("operation", operation), zap.Error(err))
	t.notify(t.notifier.SendError(ctx, err, operation))

	if callbacks.OnError != nil {
		(*callbacks.OnError)(err)
	}
}

// notify logs a failed notification. Delivery failures never stop trading.
func (t *LiveTrader) notify(err error) {
	if err != nil {
		t.log.Warn("notification failed", zap.Error(err))
	}
}
