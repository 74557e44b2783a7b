package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/config"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/executor"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/position"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/signal"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/tracker"
)

const statusInterval = 10 * time.Second

// Discoverer supplies the current market context per asset.
type Discoverer interface {
	Discover(ctx context.Context, now time.Time) (map[domain.Asset]domain.MarketContext, error)
}

// Coordinator owns the engine's shared state lifecycles: it feeds price
// ticks into the tracker, refreshes market contexts, drives signal
// evaluation and exit checks on their own timers, and hands accepted
// signals to the executor.
type Coordinator struct {
	cfg        *config.Config
	tracker    *tracker.Tracker
	generator  *signal.Generator
	positions  *position.Manager
	exec       executor.Executor
	discoverer Discoverer
	quotes     position.QuoteProvider
	priceCache domain.PriceCache
	logger     *slog.Logger

	mu       sync.RWMutex
	contexts map[domain.Asset]domain.MarketContext

	mirror chan priceUpdate
}

// priceUpdate is one tick queued for the cache mirror.
type priceUpdate struct {
	asset domain.Asset
	price float64
	ts    time.Time
}

func NewCoordinator(
	cfg *config.Config,
	tr *tracker.Tracker,
	gen *signal.Generator,
	pm *position.Manager,
	exec executor.Executor,
	disc Discoverer,
	quotes position.QuoteProvider,
	priceCache domain.PriceCache,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		tracker:    tr,
		generator:  gen,
		positions:  pm,
		exec:       exec,
		discoverer: disc,
		quotes:     quotes,
		priceCache: priceCache,
		logger:     logger.With(slog.String("component", "coordinator")),
		contexts:   make(map[domain.Asset]domain.MarketContext, domain.NumAssets),
		mirror:     make(chan priceUpdate, 256),
	}
}

// OnTick ingests one price tick. It is called inline from the feed read
// loops and must never block: append to the tracker and hand the tick to
// the mirror goroutine, dropping it when the queue is full.
func (c *Coordinator) OnTick(asset domain.Asset, price float64, ts time.Time) {
	c.tracker.Update(asset, price, ts)
	if c.priceCache == nil {
		return
	}
	select {
	case c.mirror <- priceUpdate{asset: asset, price: price, ts: ts}:
	default:
	}
}

// mirrorLoop drains queued ticks into the price cache. A slow or dead cache
// loses mirror updates, never feed ticks.
func (c *Coordinator) mirrorLoop(ctx context.Context) error {
	if c.priceCache == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-c.mirror:
			mctx, cancel := context.WithTimeout(ctx, time.Second)
			if err := c.priceCache.SetPrice(mctx, u.asset, u.price, u.ts); err != nil {
				c.logger.Debug("price mirror failed", slog.String("asset", u.asset.String()))
			}
			cancel()
		}
	}
}

// RefreshContext installs a fresh market context for an asset. A change of
// condition id means a new trading interval began, so the tracker's
// reference price is re-based.
func (c *Coordinator) RefreshContext(asset domain.Asset, mkt domain.MarketContext) {
	c.mu.Lock()
	prev, had := c.contexts[asset]
	c.contexts[asset] = mkt
	c.mu.Unlock()

	if had && prev.ConditionID != mkt.ConditionID {
		c.tracker.ResetInterval(asset)
		c.logger.Info("interval rollover",
			slog.String("asset", asset.String()),
			slog.String("market", mkt.Description),
		)
	}
}

// Context returns the asset's current market context.
func (c *Coordinator) Context(asset domain.Asset) (domain.MarketContext, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	mkt, ok := c.contexts[asset]
	return mkt, ok
}

// Run drives the periodic loops until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.refreshLoop(ctx) })
	g.Go(func() error { return c.evalLoop(ctx) })
	g.Go(func() error { return c.exitLoop(ctx) })
	g.Go(func() error { return c.statusLoop(ctx) })
	g.Go(func() error { return c.mirrorLoop(ctx) })
	return g.Wait()
}

func (c *Coordinator) refreshLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Engine.RefreshInterval())
	defer ticker.Stop()

	// Prime the contexts before the first evaluation tick.
	c.refreshOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.refreshOnce(ctx)
		}
	}
}

func (c *Coordinator) refreshOnce(ctx context.Context) {
	if c.discoverer == nil {
		return
	}
	now := time.Now()
	found, err := c.discoverer.Discover(ctx, now)
	if err != nil {
		c.logger.Warn("market discovery failed", slog.Any("error", err))
		return
	}
	for asset, mkt := range found {
		c.RefreshContext(asset, mkt)
	}
}

func (c *Coordinator) evalLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Engine.EvalInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.evaluateAll(ctx, time.Now())
		}
	}
}

func (c *Coordinator) evaluateAll(ctx context.Context, now time.Time) {
	for _, asset := range domain.Assets {
		mkt, ok := c.Context(asset)
		if !ok {
			continue
		}
		// An asset holding a position is not evaluated; a signal now
		// would be discarded anyway.
		if _, held := c.positions.Position(asset); held {
			continue
		}

		sig, reason := c.generator.Evaluate(ctx, asset, mkt, now)
		if sig == nil {
			if reason != "" {
				c.logger.Debug("signal rejected",
					slog.String("asset", asset.String()),
					slog.String("reason", reason),
				)
			}
			continue
		}
		c.open(ctx, *sig, now)
	}
}

func (c *Coordinator) open(ctx context.Context, sig domain.Signal, now time.Time) {
	res, err := c.exec.Execute(ctx, domain.ExecutionRequest{
		Signal:         sig,
		ReferencePrice: sig.TokenAsk,
	})
	if err != nil {
		c.logger.Warn("execution failed",
			slog.String("asset", sig.Asset.String()),
			slog.Any("error", err),
		)
		return
	}
	if !res.Filled {
		c.logger.Info("order not filled, signal discarded",
			slog.String("asset", sig.Asset.String()),
		)
		return
	}
	if _, err := c.positions.Open(ctx, sig, res, now); err != nil {
		c.logger.Warn("open discarded",
			slog.String("asset", sig.Asset.String()),
			slog.Any("error", err),
		)
	}
}

func (c *Coordinator) exitLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Exits.CheckInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			closed := c.positions.CheckExits(ctx, c.quotes, time.Now())
			for _, entry := range closed {
				// The next trade on this asset measures its move from
				// the post-close price, not the old interval start.
				c.tracker.ResetInterval(entry.Position.Asset)
			}
		}
	}
}

func (c *Coordinator) statusLoop(ctx context.Context) error {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.logStatus()
		}
	}
}

func (c *Coordinator) logStatus() {
	ledger := c.positions.Ledger()
	var totalPnL float64
	for _, e := range ledger {
		totalPnL += e.PnLUSD
	}

	attrs := []any{
		slog.Int("open_positions", c.positions.OpenCount()),
		slog.Int("closed_trades", len(ledger)),
		slog.Float64("total_pnl_usd", totalPnL),
	}
	for _, asset := range domain.Assets {
		snap, ok := c.tracker.Snapshot(asset)
		if !ok {
			continue
		}
		attrs = append(attrs,
			slog.Float64(asset.String(), snap.CurrentPrice),
			slog.Float64(asset.String()+"_change_pct", snap.ChangePct()),
		)
	}
	c.logger.Info("status", attrs...)
}
