package trading

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/notify"
	"github.com/rxtech-lab/argo-macd/internal/signal"
)

// Executor acts on a LONG or SHORT decision.
type Executor interface {
	Execute(ctx context.Context, symbol string, vote signal.VoteResult) error
}

// NotifyExecutor announces the decision instead of placing orders.
type NotifyExecutor struct {
	notifier *notify.Notifier
	log      *logger.Logger
}

func NewNotifyExecutor(notifier *notify.Notifier, log *logger.Logger) *NotifyExecutor {
	return &NotifyExecutor{notifier: notifier, log: log.Named("executor")}
}

func (x *NotifyExecutor) Execute(ctx context.Context, symbol string, vote signal.VoteResult) error {
	x.log.Info("execution requested",
		zap.String("symbol", symbol),
		zap.String("decision", string(vote.Decision)),
	)

	message := fmt.Sprintf("🔄 %s signal detected on %s\n⚠️ Automatic execution is not implemented", vote.Decision, symbol)

	return x.notifier.SendMessage(ctx, "Trade Signal", message)
}
