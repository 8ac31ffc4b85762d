package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-macd/internal/logger"
	"github.com/rxtech-lab/argo-macd/internal/signal"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata"
)

const timestampLayout = "2006-01-02 15:04:05"

var kindEmoji = map[types.SignalKind]string{
	types.SignalKindBuy:       "🟢",
	types.SignalKindSell:      "🔴",
	types.SignalKindValleyBuy: "💚",
	types.SignalKindTopSell:   "❤️",
	types.SignalKindHold:      "⚪",
}

var decisionEmoji = map[signal.Decision]string{
	signal.DecisionLong:  "🚀",
	signal.DecisionShort: "🔻",
	signal.DecisionWait:  "⏳",
}

// Notifier formats trading events and dispatches them to every sender.
type Notifier struct {
	senders []Sender
	log     *logger.Logger
	now     func() time.Time
}

// NewNotifier creates a notifier over senders. Nil senders are dropped.
func NewNotifier(senders []Sender, log *logger.Logger) *Notifier {
	active := make([]Sender, 0, len(senders))
	for _, s := range senders {
		if s != nil {
			active = append(active, s)
		}
	}

	return &Notifier{
		senders: active,
		log:     log.Named("notifier"),
		now:     time.Now,
	}
}

// Enabled reports whether any sender is registered.
func (n *Notifier) Enabled() bool {
	return len(n.senders) > 0
}

// SendMessage delivers a message to all senders. A failing sender does not
// stop delivery to the others; failures are combined into one error.
func (n *Notifier) SendMessage(ctx context.Context, title, message string) error {
	if !n.Enabled() {
		return nil
	}

	var failed []string

	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.log.Error("sender failed", zap.String("sender", s.Name()), zap.Error(err))
			failed = append(failed, fmt.Sprintf("%s: %v", s.Name(), err))

			continue
		}

		n.log.Debug("notification sent", zap.String("sender", s.Name()), zap.String("title", title))
	}

	if len(failed) > 0 {
		return errors.Newf(errors.ErrCodeNotificationFailed, "%d sender(s) failed: %s", len(failed), strings.Join(failed, "; "))
	}

	return nil
}

// SendTradeSignal announces a single timeframe signal at price. info is
// appended when not empty.
func (n *Notifier) SendTradeSignal(ctx context.Context, symbol string, sig types.Signal, price float64, info string) error {
	emoji, ok := kindEmoji[sig.Kind]
	if !ok {
		emoji = "⚠️"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "⏰ <b>Time:</b> %s\n", n.now().Format(timestampLayout))
	fmt.Fprintf(&b, "💱 <b>Pair:</b> %s\n", html.EscapeString(symbol))
	fmt.Fprintf(&b, "📊 <b>Timeframe:</b> %s\n", sig.Timeframe)
	fmt.Fprintf(&b, "%s <b>Signal:</b> %s\n", emoji, strings.ToUpper(string(sig.Kind)))
	fmt.Fprintf(&b, "💪 <b>Strength:</b> %.2f\n", sig.Strength)
	fmt.Fprintf(&b, "💵 <b>Price:</b> $%.2f", price)

	if info != "" {
		fmt.Fprintf(&b, "\n\nℹ️ <b>Additional info:</b>\n%s", html.EscapeString(info))
	}

	return n.SendMessage(ctx, "🤖 Trading Signal", b.String())
}

// SendError reports a failure with the operation it happened in.
func (n *Notifier) SendError(ctx context.Context, err error, operation string) error {
	message := fmt.Sprintf("<b>Context:</b> %s\n<b>Error:</b> %s",
		html.EscapeString(operation), html.EscapeString(err.Error()))

	return n.SendMessage(ctx, "⚠️ Bot Error", message)
}

// SendSummary reports a multi-timeframe vote, with best prices from book
// when one is given.
func (n *Notifier) SendSummary(ctx context.Context, symbol string, vote signal.VoteResult, book *marketdata.OrderBookSummary) error {
	emoji, ok := decisionEmoji[vote.Decision]
	if !ok {
		emoji = "❓"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "⏰ <b>Time:</b> %s\n", n.now().Format(timestampLayout))
	fmt.Fprintf(&b, "💱 <b>Pair:</b> %s\n", html.EscapeString(symbol))
	fmt.Fprintf(&b, "📈 <b>Long score:</b> %.2f\n", vote.LongScore)
	fmt.Fprintf(&b, "📉 <b>Short score:</b> %.2f\n", vote.ShortScore)
	fmt.Fprintf(&b, "%s <b>Decision:</b> %s", emoji, vote.Decision)

	if book != nil && book.MidPrice.IsSome() {
		fmt.Fprintf(&b, "\n\n📚 <b>Order Book:</b>\n")
		fmt.Fprintf(&b, "💰 Bid: $%.2f\n", book.BidPrice.Unwrap())
		fmt.Fprintf(&b, "💰 Ask: $%.2f\n", book.AskPrice.Unwrap())
		fmt.Fprintf(&b, "📊 Mid: $%.2f", book.MidPrice.Unwrap())
	}

	return n.SendMessage(ctx, "📊 Trading Summary", b.String())
}
