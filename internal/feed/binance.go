// Package feed streams underlying trade prices from the Binance spot
// websocket, one connection per asset.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

const reconnectDelay = 3 * time.Second

// TickHandler receives every parsed trade tick. It must not block; the feed
// calls it inline from the read loop.
type TickHandler func(asset domain.Asset, price float64, ts time.Time)

// BinanceFeed maintains one trade-stream connection per tracked asset and
// reconnects each independently on failure. A dead stream suspends only its
// own asset.
type BinanceFeed struct {
	wsHost string
	assets []domain.Asset
	onTick TickHandler
	logger *slog.Logger
}

func NewBinanceFeed(wsHost string, assets []domain.Asset, onTick TickHandler, logger *slog.Logger) *BinanceFeed {
	return &BinanceFeed{
		wsHost: wsHost,
		assets: assets,
		onTick: onTick,
		logger: logger.With(slog.String("component", "binance_feed")),
	}
}

// Run streams until ctx is cancelled. Each asset reconnects on its own
// schedule; Run only returns on cancellation.
func (f *BinanceFeed) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, asset := range f.assets {
		asset := asset
		g.Go(func() error { return f.streamAsset(ctx, asset) })
	}
	return g.Wait()
}

func (f *BinanceFeed) streamAsset(ctx context.Context, asset domain.Asset) error {
	url := fmt.Sprintf("%s/ws/%s@trade", f.wsHost, asset.BinancePair())
	for {
		err := f.readStream(ctx, asset, url)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("stream disconnected, reconnecting",
			slog.String("asset", asset.String()),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// tradeMessage is the subset of the Binance trade event the feed consumes.
type tradeMessage struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Price     string `json:"p"`
}

func (f *BinanceFeed) readStream(ctx context.Context, asset domain.Asset, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("feed: dial %s: %w", asset, err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the context ends.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	f.logger.Info("stream connected", slog.String("asset", asset.String()))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read %s: %w", asset, err)
		}
		var msg tradeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			f.logger.Warn("unparseable message", slog.String("asset", asset.String()))
			continue
		}
		if msg.EventType != "trade" {
			continue
		}
		price, err := strconv.ParseFloat(msg.Price, 64)
		if err != nil || price <= 0 {
			continue
		}
		ts := time.UnixMilli(msg.EventTime)
		if msg.EventTime == 0 {
			ts = time.Now()
		}
		f.onTick(asset, price, ts)
	}
}
