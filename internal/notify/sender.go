// Package notify delivers live trading alerts. A Notifier fans messages out
// to every registered Sender; with no senders it is disabled and silent.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-macd/internal/logger"
)

// Sender is one notification channel.
type Sender interface {
	// Send delivers a message. title is rendered as a heading.
	Send(ctx context.Context, title, message string) error
	// Name identifies the channel in logs and errors.
	Name() string
}

// LogSender writes notifications to the structured log.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.Named("notification")}
}

func (s *LogSender) Send(_ context.Context, title, message string) error {
	if title == "" {
		title = "notification"
	}

	s.log.Info(title, zap.String("message", message))

	return nil
}

func (s *LogSender) Name() string {
	return "log"
}
