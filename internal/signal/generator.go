// Package signal turns per-asset price state into sized trade proposals.
package signal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/config"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/edge"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/filter"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/momentum"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/tracker"
)

// kellyCap bounds the Kelly fraction so a single mispriced quote can never
// demand the whole bankroll.
const kellyCap = 0.25

// DepthProvider supplies an orderbook depth snapshot for a token. A nil
// snapshot with nil error means no book is available right now.
type DepthProvider interface {
	Depth(ctx context.Context, tokenID string) (*domain.OrderbookDepth, error)
}

// VolumeProvider supplies traded-volume data for an asset's market.
type VolumeProvider interface {
	Volume(ctx context.Context, asset domain.Asset) (*domain.VolumeData, error)
}

// Generator evaluates one asset at a time and emits a Signal when every gate
// passes. It owns the per-asset cooldown clock.
type Generator struct {
	tracker *tracker.Tracker
	chain   *filter.Chain
	depth   DepthProvider
	volume  VolumeProvider
	cfg     config.EngineConfig
	sink    domain.EventSink
	logger  *slog.Logger

	mu           sync.Mutex
	lastAccepted map[domain.Asset]time.Time
}

func NewGenerator(
	tr *tracker.Tracker,
	chain *filter.Chain,
	depth DepthProvider,
	volume VolumeProvider,
	cfg config.EngineConfig,
	sink domain.EventSink,
	logger *slog.Logger,
) *Generator {
	return &Generator{
		tracker:      tr,
		chain:        chain,
		depth:        depth,
		volume:       volume,
		cfg:          cfg,
		sink:         sink,
		logger:       logger.With(slog.String("component", "signal")),
		lastAccepted: make(map[domain.Asset]time.Time),
	}
}

// Evaluate runs the full accept/reject pipeline for one asset against its
// current market context. A nil Signal with an empty reason means the asset
// simply has nothing to act on yet.
func (g *Generator) Evaluate(ctx context.Context, asset domain.Asset, mkt domain.MarketContext, now time.Time) (*domain.Signal, string) {
	snap, ok := g.tracker.Snapshot(asset)
	if !ok || snap.CurrentPrice == 0 || snap.IntervalStartPrice == 0 {
		return nil, ""
	}
	if mkt.Stale(now, g.cfg.ContextStale()) {
		return nil, "market context stale"
	}

	changePct := snap.ChangePct()
	direction := domain.DirectionDown
	if snap.IsUp() {
		direction = domain.DirectionUp
	}

	mom := momentum.Score(snap)

	ask := mkt.Ask(direction)
	if ask <= 0 {
		return nil, "no quote for side"
	}
	if ask > g.cfg.MaxEntryPriceCents/100 {
		return nil, "entry price above cap"
	}

	est := edge.Evaluate(changePct, mom, ask, mkt.Type)
	if ok, reason := edge.Check(changePct, est, mkt.Type); !ok {
		return nil, reason
	}

	fctx := filter.Context{
		Momentum:  mom,
		Direction: direction,
		Now:       now,
	}
	if g.depth != nil {
		d, err := g.depth.Depth(ctx, mkt.TokenID(direction))
		if err != nil {
			g.logger.Warn("depth fetch failed", slog.String("asset", asset.String()), slog.Any("error", err))
		} else {
			fctx.Depth = d
		}
	}
	if g.volume != nil {
		v, err := g.volume.Volume(ctx, asset)
		if err == nil {
			fctx.Volume = v
		}
	}

	results := g.chain.Evaluate(fctx)
	if !results.Passed() {
		reasons := results.FailureReasons()
		g.emit(ctx, domain.Event{
			Type:      domain.EventFilterRejected,
			Asset:     asset.String(),
			Direction: direction.String(),
			Reason:    reasons[0],
			At:        now,
		})
		return nil, reasons[0]
	}

	// Cooldown is checked last so filter diagnostics still surface, but
	// it rejects regardless of how good the setup looks.
	g.mu.Lock()
	last, seen := g.lastAccepted[asset]
	if seen && now.Sub(last) < g.cfg.Cooldown() {
		g.mu.Unlock()
		return nil, "cooldown active"
	}
	g.lastAccepted[asset] = now
	g.mu.Unlock()

	sig := &domain.Signal{
		ID:           uuid.NewString(),
		Asset:        asset,
		Direction:    direction,
		TriggerPrice: snap.CurrentPrice,
		TokenID:      mkt.TokenID(direction),
		TokenAsk:     ask,
		ChangePct:    changePct,
		EdgePct:      est.EdgePct,
		Confidence:   est.Confidence,
		SizeUSD:      g.size(est.EdgePct, ask, mom),
		MarketType:   mkt.Type,
		GeneratedAt:  now,
	}

	g.logger.Info("signal detected",
		slog.String("asset", asset.String()),
		slog.String("direction", direction.String()),
		slog.Float64("change_pct", changePct),
		slog.Float64("edge_pct", est.EdgePct),
		slog.Float64("size_usd", sig.SizeUSD),
	)
	g.emit(ctx, domain.Event{
		Type:      domain.EventSignalDetected,
		Asset:     asset.String(),
		Direction: direction.String(),
		EdgePct:   est.EdgePct,
		SizeUSD:   sig.SizeUSD,
		At:        now,
	})
	return sig, ""
}

// size scales the base stake by the Kelly fraction relative to its cap and
// clamps the result to the configured position bounds.
func (g *Generator) size(edgePct, ask float64, mom domain.MomentumResult) float64 {
	kelly := (edgePct / 100) / (1 - ask)
	if kelly > kellyCap {
		kelly = kellyCap
	}
	if kelly < 0 {
		kelly = 0
	}
	size := g.cfg.BaseSizeUSD * (kelly / kellyCap)
	if mom.Strong() && mom.Accelerating {
		size *= 1.5
	}
	if size < g.cfg.MinPositionUSD {
		size = g.cfg.MinPositionUSD
	}
	if size > g.cfg.MaxPositionUSD {
		size = g.cfg.MaxPositionUSD
	}
	return size
}

func (g *Generator) emit(ctx context.Context, ev domain.Event) {
	if g.sink == nil {
		return
	}
	g.sink.Emit(ctx, ev)
}
