package domain

import (
	"context"
	"time"
)

// Event types published on every engine state transition. Delivery is
// best-effort; no core logic depends on it.
const (
	EventSignalDetected = "signal_detected"
	EventFilterRejected = "filter_rejected"
	EventTradeOpened    = "trade_opened"
	EventTradeClosed    = "trade_closed"
)

// Event is one structured engine state transition for external consumers
// (notification channels, the Redis bus).
type Event struct {
	Type        string      `json:"type"`
	Asset       string      `json:"asset"`
	Direction   string      `json:"direction,omitempty"`
	Reason      string      `json:"reason,omitempty"`
	EdgePct     float64     `json:"edge_pct,omitempty"`
	PnLPct      float64     `json:"pnl_pct,omitempty"`
	SizeUSD     float64     `json:"size_usd,omitempty"`
	CloseReason CloseReason `json:"close_reason,omitempty"`
	At          time.Time   `json:"at"`
}

// EventSink consumes engine events. Implementations must not block the
// caller for long; failures are logged and ignored by the engine.
type EventSink interface {
	Emit(ctx context.Context, ev Event)
}

// PriceCache mirrors the latest underlying prices for external consumers.
type PriceCache interface {
	SetPrice(ctx context.Context, asset Asset, price float64, ts time.Time) error
	GetPrice(ctx context.Context, asset Asset) (float64, time.Time, error)
}

// SignalBus provides publish/subscribe for engine events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// LedgerStore persists closed-position ledger entries.
type LedgerStore interface {
	Append(ctx context.Context, entry LedgerEntry) error
	List(ctx context.Context, limit int) ([]LedgerEntry, error)
}
