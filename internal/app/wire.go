package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/cache/redis"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/config"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/executor"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/filter"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/notify"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/platform/polymarket"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/position"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/signal"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/store/postgres"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/tracker"
)

// Dependencies bundles every component the application needs to run. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Tracker     *tracker.Tracker
	Generator   *signal.Generator
	Positions   *position.Manager
	Executor    executor.Executor
	Coordinator *Coordinator

	Gamma *polymarket.GammaClient
	Clob  *polymarket.ClobClient

	PriceCache  domain.PriceCache
	SignalBus   domain.SignalBus
	LedgerStore domain.LedgerStore
	Notifier    *notify.Notifier
}

// multiSink fans one event out to several sinks.
type multiSink []domain.EventSink

func (m multiSink) Emit(ctx context.Context, ev domain.Event) {
	for _, s := range m {
		s.Emit(ctx, ev)
	}
}

// Wire constructs all concrete implementations from the configuration and
// returns them with a cleanup function to call on shutdown. Redis and
// Postgres are optional: an empty addr or DSN leaves that integration off.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Tracker: tracker.New(),
		Gamma:   polymarket.NewGammaClient(cfg.Polymarket.GammaHost),
		Clob:    polymarket.NewClobClient(cfg.Polymarket.ClobHost),
	}

	var sinks multiSink

	if cfg.Redis.Addr != "" {
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: redis: %w", err)
		}
		closers = append(closers, func() { _ = rc.Close() })

		deps.PriceCache = redis.NewPriceCache(rc)
		bus := redis.NewSignalBus(rc)
		deps.SignalBus = bus
		sinks = append(sinks, redis.NewEventSink(bus, logger))
		logger.Info("redis connected", slog.String("addr", cfg.Redis.Addr))
	}

	if cfg.Postgres.DSN != "" {
		pc, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: postgres: %w", err)
		}
		closers = append(closers, pc.Close)

		if err := pc.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: migrate: %w", err)
		}
		deps.LedgerStore = postgres.NewLedgerStore(pc.Pool())

		// Surface prior session results at startup.
		if entries, err := deps.LedgerStore.List(ctx, 50); err == nil {
			var pnl float64
			for _, e := range entries {
				pnl += e.PnLUSD
			}
			logger.Info("postgres connected",
				slog.Int("recent_trades", len(entries)),
				slog.Float64("recent_pnl_usd", pnl),
			)
		} else {
			logger.Warn("ledger history unavailable", slog.Any("error", err))
		}
	}

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhook != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhook))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
		sinks = append(sinks, deps.Notifier)
	}

	var sink domain.EventSink
	if len(sinks) > 0 {
		sink = sinks
	}

	if cfg.MockTrading {
		deps.Executor = executor.NewMock(logger)
	} else {
		if deps.SignalBus == nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: live trading requires redis for the order relay")
		}
		deps.Executor = executor.NewRelay(deps.SignalBus, logger)
	}

	deps.Positions = position.NewManager(cfg.Exits, deps.LedgerStore, sink, logger)
	deps.Generator = signal.NewGenerator(
		deps.Tracker,
		filter.NewChain(cfg.Filters),
		deps.Clob,
		nil,
		cfg.Engine,
		sink,
		logger,
	)
	deps.Coordinator = NewCoordinator(
		cfg,
		deps.Tracker,
		deps.Generator,
		deps.Positions,
		deps.Executor,
		deps.Gamma,
		deps.Clob,
		deps.PriceCache,
		logger,
	)

	return deps, cleanup, nil
}
