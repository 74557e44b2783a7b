// Package app wires the engine together and manages its lifecycle: the
// price feed, market discovery, signal evaluation, and position monitoring
// goroutines.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/config"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/executor"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/feed"
)

// App is the root application object. It owns the configuration, logger, and
// cleanup of wired dependencies.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts the feed and engine goroutines, and
// blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting",
		slog.Bool("mock_trading", a.cfg.MockTrading),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	defer cleanup()

	binance := feed.NewBinanceFeed(
		a.cfg.Binance.WsHost,
		domain.Assets[:],
		deps.Coordinator.OnTick,
		a.logger,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return binance.Run(ctx) })
	g.Go(func() error { return deps.Coordinator.Run(ctx) })
	if relay, ok := deps.Executor.(*executor.Relay); ok {
		g.Go(func() error { return relay.Run(ctx) })
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		a.logger.Info("shutdown complete")
		return nil
	}
	return err
}
