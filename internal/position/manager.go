// Package position owns the per-asset position state machine and the
// append-only ledger of closed trades.
package position

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/config"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

// QuoteProvider returns the current quoted price for a held token in
// dollars. domain.ErrNoQuote means no live quote is available this tick.
type QuoteProvider interface {
	TokenPrice(ctx context.Context, tokenID string) (float64, error)
}

type slot struct {
	pos       domain.Position
	lastQuote float64
}

// Manager enforces at most one open position per asset and evaluates exit
// conditions on a fixed cadence driven by the caller.
type Manager struct {
	cfg    config.ExitsConfig
	store  domain.LedgerStore
	sink   domain.EventSink
	logger *slog.Logger

	mu     sync.Mutex
	slots  map[domain.Asset]*slot
	ledger []domain.LedgerEntry
}

func NewManager(cfg config.ExitsConfig, store domain.LedgerStore, sink domain.EventSink, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		store:  store,
		sink:   sink,
		logger: logger.With(slog.String("component", "position")),
		slots:  make(map[domain.Asset]*slot, domain.NumAssets),
	}
}

// Open materializes a position from an accepted signal and its fill. A
// signal for an asset that already holds a position is discarded with
// domain.ErrPositionOpen and changes no state.
func (m *Manager) Open(ctx context.Context, sig domain.Signal, fill domain.ExecutionResult, now time.Time) (domain.Position, error) {
	if !fill.Filled {
		return domain.Position{}, fmt.Errorf("position: open %s: order not filled", sig.Asset)
	}

	m.mu.Lock()
	if _, held := m.slots[sig.Asset]; held {
		m.mu.Unlock()
		return domain.Position{}, domain.ErrPositionOpen
	}

	pos := domain.Position{
		ID:                   uuid.NewString(),
		Asset:                sig.Asset,
		Direction:            sig.Direction,
		TokenID:              sig.TokenID,
		EntryUnderlyingPrice: sig.TriggerPrice,
		EntryTokenPrice:      fill.FillPrice,
		SizeUSD:              sig.SizeUSD,
		MarketType:           sig.MarketType,
		OpenedAt:             now,
		State:                domain.PositionOpen,
	}
	m.slots[sig.Asset] = &slot{pos: pos, lastQuote: fill.FillPrice}
	m.mu.Unlock()

	m.logger.Info("position opened",
		slog.String("asset", sig.Asset.String()),
		slog.String("direction", sig.Direction.String()),
		slog.Float64("entry_token_price", fill.FillPrice),
		slog.Float64("size_usd", sig.SizeUSD),
	)
	m.emit(ctx, domain.Event{
		Type:      domain.EventTradeOpened,
		Asset:     sig.Asset.String(),
		Direction: sig.Direction.String(),
		SizeUSD:   sig.SizeUSD,
		At:        now,
	})
	return pos, nil
}

// Position returns the asset's open position, if any.
func (m *Manager) Position(asset domain.Asset) (domain.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[asset]
	if !ok {
		return domain.Position{}, false
	}
	return s.pos, true
}

// OpenCount returns the number of currently open positions across assets.
func (m *Manager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

// Ledger returns a copy of the closed-trade history in close order.
func (m *Manager) Ledger() []domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.LedgerEntry, len(m.ledger))
	copy(out, m.ledger)
	return out
}

// CheckExits evaluates every open position against the exit conditions and
// returns the entries closed this tick. A position younger than the minimum
// hold is never closed, whatever its pnl. A missing quote skips take-profit
// and stop-loss for that position this tick; the time exit still fires on
// wall clock using the last known quote. Quote fetches run without the
// manager lock so a slow venue never blocks Open or Position.
func (m *Manager) CheckExits(ctx context.Context, quotes QuoteProvider, now time.Time) []domain.LedgerEntry {
	m.mu.Lock()
	candidates := make([]domain.Position, 0, len(m.slots))
	for asset, s := range m.slots {
		if s.pos.State != domain.PositionOpen {
			panic(fmt.Sprintf("position: exit check on %s slot in state %s", asset, s.pos.State))
		}
		if now.Sub(s.pos.OpenedAt) < m.cfg.MinHold() {
			continue
		}
		candidates = append(candidates, s.pos)
	}
	m.mu.Unlock()

	var closed []domain.LedgerEntry
	for _, cand := range candidates {
		var quote float64
		haveQuote := false
		if quotes != nil {
			if q, err := quotes.TokenPrice(ctx, cand.TokenID); err == nil && q > 0 {
				quote, haveQuote = q, true
			}
		}

		held := now.Sub(cand.OpenedAt)
		timeExitDue := held >= m.timeExitAfter(cand.MarketType)

		m.mu.Lock()
		s, ok := m.slots[cand.Asset]
		if !ok || s.pos.ID != cand.ID {
			// The slot changed hands while the quote was in flight.
			m.mu.Unlock()
			continue
		}
		if haveQuote {
			s.lastQuote = quote
		} else {
			quote = s.lastQuote
		}
		if !haveQuote && !timeExitDue {
			m.mu.Unlock()
			continue
		}

		pnl := s.pos.PnLPct(quote)
		var reason domain.CloseReason
		switch {
		case haveQuote && pnl >= m.cfg.TakeProfitPct:
			reason = domain.CloseTakeProfit
		case haveQuote && pnl <= m.cfg.StopLossPct:
			reason = domain.CloseStopLoss
		case timeExitDue:
			reason = domain.CloseTimeExit
		default:
			m.mu.Unlock()
			continue
		}

		pos := s.pos
		pos.State = domain.PositionClosed
		entry := domain.LedgerEntry{
			Position:    pos,
			ClosedAt:    now,
			ExitPrice:   quote,
			PnLPct:      pnl,
			PnLUSD:      pos.SizeUSD * pnl / 100,
			CloseReason: reason,
		}
		m.ledger = append(m.ledger, entry)
		delete(m.slots, cand.Asset)
		m.mu.Unlock()
		closed = append(closed, entry)
	}

	for _, entry := range closed {
		m.logger.Info("position closed",
			slog.String("asset", entry.Position.Asset.String()),
			slog.String("reason", string(entry.CloseReason)),
			slog.Float64("pnl_pct", entry.PnLPct),
			slog.Float64("pnl_usd", entry.PnLUSD),
		)
		m.emit(ctx, domain.Event{
			Type:        domain.EventTradeClosed,
			Asset:       entry.Position.Asset.String(),
			Direction:   entry.Position.Direction.String(),
			PnLPct:      entry.PnLPct,
			SizeUSD:     entry.Position.SizeUSD,
			CloseReason: entry.CloseReason,
			At:          now,
		})
		if m.store != nil {
			if err := m.store.Append(ctx, entry); err != nil {
				m.logger.Warn("ledger persist failed", slog.Any("error", err))
			}
		}
	}
	return closed
}

func (m *Manager) timeExitAfter(mt domain.MarketType) time.Duration {
	d := mt.Duration()
	if d == 0 {
		d = 15 * time.Minute
	}
	return time.Duration(float64(d) * m.cfg.TimeExitFraction)
}

func (m *Manager) emit(ctx context.Context, ev domain.Event) {
	if m.sink == nil {
		return
	}
	m.sink.Emit(ctx, ev)
}
