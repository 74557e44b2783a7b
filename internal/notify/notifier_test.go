package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

type recordSender struct {
	name   string
	titles []string
	err    error
}

func (r *recordSender) Name() string { return r.name }

func (r *recordSender) Send(_ context.Context, title, _ string) error {
	if r.err != nil {
		return r.err
	}
	r.titles = append(r.titles, title)
	return nil
}

func TestEmitDispatchesToAllSenders(t *testing.T) {
	a := &recordSender{name: "a"}
	b := &recordSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	n.Emit(context.Background(), domain.Event{
		Type:      domain.EventTradeOpened,
		Asset:     "BTC",
		Direction: "UP",
		SizeUSD:   5,
	})
	if len(a.titles) != 1 || len(b.titles) != 1 {
		t.Fatalf("expected both senders called, got %d/%d", len(a.titles), len(b.titles))
	}
	if !strings.Contains(a.titles[0], "BTC") {
		t.Errorf("title = %q, want asset name", a.titles[0])
	}
}

func TestEmitEventFilter(t *testing.T) {
	s := &recordSender{name: "a"}
	n := NewNotifier([]Sender{s}, []string{domain.EventTradeClosed}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	n.Emit(context.Background(), domain.Event{Type: domain.EventSignalDetected, Asset: "BTC"})
	if len(s.titles) != 0 {
		t.Fatal("filtered event must not dispatch")
	}

	n.Emit(context.Background(), domain.Event{
		Type:        domain.EventTradeClosed,
		Asset:       "ETH",
		Direction:   "DOWN",
		PnLPct:      12.5,
		CloseReason: domain.CloseTakeProfit,
	})
	if len(s.titles) != 1 {
		t.Fatal("allowed event must dispatch")
	}
}

func TestEmitSenderFailureIsolated(t *testing.T) {
	bad := &recordSender{name: "bad", err: errors.New("downstream")}
	good := &recordSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	n.Emit(context.Background(), domain.Event{Type: domain.EventTradeOpened, Asset: "SOL", Direction: "UP"})
	if len(good.titles) != 1 {
		t.Fatal("one sender failing must not block the others")
	}
}

func TestEmitUnknownTypeIgnored(t *testing.T) {
	s := &recordSender{name: "a"}
	n := NewNotifier([]Sender{s}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	n.Emit(context.Background(), domain.Event{Type: "heartbeat"})
	if len(s.titles) != 0 {
		t.Fatal("unknown event type must not dispatch")
	}
}
