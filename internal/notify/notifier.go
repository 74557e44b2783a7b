// Package notify delivers engine events to operator channels. Events are
// dispatched to all registered senders and can be filtered by event type so
// operators receive only the alerts they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier formats engine events into operator messages and dispatches them
// to every sender. It implements domain.EventSink; delivery failures are
// logged and never propagate into the engine.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed event types; empty allows all
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Only events
// whose type appears in the events slice are forwarded; an empty list allows
// every type.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

var _ domain.EventSink = (*Notifier)(nil)

// Emit formats and dispatches one engine event.
func (n *Notifier) Emit(ctx context.Context, ev domain.Event) {
	if len(n.events) > 0 && !n.events[ev.Type] {
		return
	}
	title, message := format(ev)
	if title == "" {
		return
	}
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.Warn("sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", ev.Type),
				slog.String("error", err.Error()),
			)
		}
	}
}

func format(ev domain.Event) (title, message string) {
	switch ev.Type {
	case domain.EventSignalDetected:
		return fmt.Sprintf("Signal: %s %s", ev.Asset, ev.Direction),
			fmt.Sprintf("edge %.2f%%, size $%.2f", ev.EdgePct, ev.SizeUSD)
	case domain.EventTradeOpened:
		return fmt.Sprintf("Opened: %s %s", ev.Asset, ev.Direction),
			fmt.Sprintf("size $%.2f", ev.SizeUSD)
	case domain.EventTradeClosed:
		return fmt.Sprintf("Closed: %s %s", ev.Asset, ev.Direction),
			fmt.Sprintf("%s, pnl %+.2f%%", ev.CloseReason, ev.PnLPct)
	case domain.EventFilterRejected:
		return fmt.Sprintf("Rejected: %s %s", ev.Asset, ev.Direction), ev.Reason
	default:
		return "", ""
	}
}
