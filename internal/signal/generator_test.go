package signal

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/config"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/filter"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/tracker"
)

// Wednesday 2026-01-07 15:00 UTC is 10:00 at UTC-5.
var tradingHour = time.Date(2026, 1, 7, 15, 0, 0, 0, time.UTC)

type stubDepth struct {
	depth *domain.OrderbookDepth
}

func (s stubDepth) Depth(context.Context, string) (*domain.OrderbookDepth, error) {
	return s.depth, nil
}

type captureSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *captureSink) Emit(_ context.Context, ev domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureSink) byType(t string) []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Event
	for _, ev := range c.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func feedUptrend(tr *tracker.Tracker, asset domain.Asset, now time.Time) {
	prices := []float64{10000, 10005, 10010, 10008, 10013, 10018, 10026, 10034, 10044, 10054}
	for i, p := range prices {
		tr.Update(asset, p, now.Add(time.Duration(i-len(prices))*time.Second))
	}
}

func feedDowntrend(tr *tracker.Tracker, asset domain.Asset, now time.Time) {
	prices := []float64{10000, 9995, 9990, 9992, 9987, 9982, 9974, 9966, 9956, 9946}
	for i, p := range prices {
		tr.Update(asset, p, now.Add(time.Duration(i-len(prices))*time.Second))
	}
}

func liveContext(now time.Time) domain.MarketContext {
	return domain.MarketContext{
		Asset:      domain.AssetBTC,
		Type:       domain.Market15m,
		YesTokenID: "yes-token",
		NoTokenID:  "no-token",
		YesAsk:     0.50,
		NoAsk:      0.52,
		ResolvesAt: now.Add(12 * time.Minute),
		UpdatedAt:  now,
	}
}

func newGenerator(tr *tracker.Tracker, sink domain.EventSink) *Generator {
	cfg := config.Defaults()
	return NewGenerator(
		tr,
		filter.NewChain(cfg.Filters),
		stubDepth{depth: &domain.OrderbookDepth{BidDepthUSD: 800, AskDepthUSD: 900}},
		nil,
		cfg.Engine,
		sink,
		discard(),
	)
}

func TestEvaluateAccepts(t *testing.T) {
	tr := tracker.New()
	feedUptrend(tr, domain.AssetBTC, tradingHour)
	sink := &captureSink{}
	gen := newGenerator(tr, sink)

	sig, reason := gen.Evaluate(context.Background(), domain.AssetBTC, liveContext(tradingHour), tradingHour)
	if sig == nil {
		t.Fatalf("expected signal, rejected: %s", reason)
	}
	if sig.Direction != domain.DirectionUp {
		t.Errorf("direction = %s, want UP", sig.Direction)
	}
	if sig.TokenID != "yes-token" {
		t.Errorf("token = %s, want yes-token", sig.TokenID)
	}
	if sig.SizeUSD < 1 || sig.SizeUSD > 10 {
		t.Errorf("size = %v outside configured bounds", sig.SizeUSD)
	}
	if sig.EdgePct < 1.0 {
		t.Errorf("edge = %v, want >= 1.0 on a 15m market", sig.EdgePct)
	}
	if got := sink.byType(domain.EventSignalDetected); len(got) != 1 {
		t.Errorf("expected one signal event, got %d", len(got))
	}
}

func TestEvaluateNoPriceData(t *testing.T) {
	gen := newGenerator(tracker.New(), nil)
	sig, reason := gen.Evaluate(context.Background(), domain.AssetBTC, liveContext(tradingHour), tradingHour)
	if sig != nil || reason != "" {
		t.Fatalf("expected silent abstain, got sig=%v reason=%q", sig, reason)
	}
}

func TestEvaluateStaleContext(t *testing.T) {
	tr := tracker.New()
	feedUptrend(tr, domain.AssetBTC, tradingHour)
	gen := newGenerator(tr, nil)

	mkt := liveContext(tradingHour)
	mkt.UpdatedAt = tradingHour.Add(-time.Minute)
	sig, reason := gen.Evaluate(context.Background(), domain.AssetBTC, mkt, tradingHour)
	if sig != nil {
		t.Fatal("stale context must abstain")
	}
	if !strings.Contains(reason, "stale") {
		t.Errorf("reason = %q, want stale context", reason)
	}
}

func TestEvaluateMoveBelowMinimum(t *testing.T) {
	tr := tracker.New()
	// 0.08% interval change on a 15m market, below the 0.10% minimum.
	prices := []float64{10000, 10001, 10002, 10003, 10004, 10005, 10006, 10007, 10008}
	for i, p := range prices {
		tr.Update(domain.AssetBTC, p, tradingHour.Add(time.Duration(i-len(prices))*time.Second))
	}
	gen := newGenerator(tr, nil)

	sig, reason := gen.Evaluate(context.Background(), domain.AssetBTC, liveContext(tradingHour), tradingHour)
	if sig != nil {
		t.Fatal("sub-minimum move must reject")
	}
	if !strings.Contains(reason, "move") {
		t.Errorf("reason = %q, want minimum-move rejection", reason)
	}
}

func TestEvaluateEntryPriceCap(t *testing.T) {
	tr := tracker.New()
	feedUptrend(tr, domain.AssetBTC, tradingHour)
	gen := newGenerator(tr, nil)

	mkt := liveContext(tradingHour)
	mkt.YesAsk = 0.70
	sig, reason := gen.Evaluate(context.Background(), domain.AssetBTC, mkt, tradingHour)
	if sig != nil {
		t.Fatal("70c ask must reject against 60c cap")
	}
	if !strings.Contains(reason, "cap") {
		t.Errorf("reason = %q, want entry price cap", reason)
	}
}

func TestEvaluateDepthRejection(t *testing.T) {
	tr := tracker.New()
	feedUptrend(tr, domain.AssetBTC, tradingHour)
	sink := &captureSink{}
	cfg := config.Defaults()
	gen := NewGenerator(
		tr,
		filter.NewChain(cfg.Filters),
		stubDepth{depth: &domain.OrderbookDepth{BidDepthUSD: 300, AskDepthUSD: 300}},
		nil,
		cfg.Engine,
		sink,
		discard(),
	)

	sig, reason := gen.Evaluate(context.Background(), domain.AssetBTC, liveContext(tradingHour), tradingHour)
	if sig != nil {
		t.Fatal("thin book must reject")
	}
	if !strings.Contains(reason, "depth") {
		t.Errorf("reason = %q, want depth rejection", reason)
	}
	if got := sink.byType(domain.EventFilterRejected); len(got) != 1 {
		t.Errorf("expected one rejection event, got %d", len(got))
	}
}

type recordDepth struct {
	depth     *domain.OrderbookDepth
	requested string
}

func (r *recordDepth) Depth(_ context.Context, tokenID string) (*domain.OrderbookDepth, error) {
	r.requested = tokenID
	return r.depth, nil
}

func TestEvaluateDownChecksNoBookAsks(t *testing.T) {
	tr := tracker.New()
	feedDowntrend(tr, domain.AssetBTC, tradingHour)
	cfg := config.Defaults()
	// The NO token's book: deep bids, almost no asks. Buying NO consumes
	// asks, so this must reject however deep the bid side is.
	depth := &recordDepth{depth: &domain.OrderbookDepth{BidDepthUSD: 900, AskDepthUSD: 100}}
	gen := NewGenerator(tr, filter.NewChain(cfg.Filters), depth, nil, cfg.Engine, nil, discard())

	sig, reason := gen.Evaluate(context.Background(), domain.AssetBTC, liveContext(tradingHour), tradingHour)
	if sig != nil {
		t.Fatal("down candidate must reject on $100 of asks in the NO book")
	}
	if !strings.Contains(reason, "depth") {
		t.Errorf("reason = %q, want depth rejection", reason)
	}
	if depth.requested != "no-token" {
		t.Errorf("fetched book for %q, want the NO token", depth.requested)
	}
}

func TestEvaluateCooldown(t *testing.T) {
	tr := tracker.New()
	feedUptrend(tr, domain.AssetBTC, tradingHour)
	gen := newGenerator(tr, nil)
	ctx := context.Background()

	if sig, reason := gen.Evaluate(ctx, domain.AssetBTC, liveContext(tradingHour), tradingHour); sig == nil {
		t.Fatalf("first evaluation should accept: %s", reason)
	}

	later := tradingHour.Add(30 * time.Second)
	mkt := liveContext(later)
	sig, reason := gen.Evaluate(ctx, domain.AssetBTC, mkt, later)
	if sig != nil {
		t.Fatal("second signal inside cooldown must reject")
	}
	if !strings.Contains(reason, "cooldown") {
		t.Errorf("reason = %q, want cooldown", reason)
	}

	// A different asset is unaffected.
	feedUptrend(tr, domain.AssetETH, later)
	ethMkt := liveContext(later)
	ethMkt.Asset = domain.AssetETH
	if sig, reason := gen.Evaluate(ctx, domain.AssetETH, ethMkt, later); sig == nil {
		t.Errorf("cooldown must be per asset: %s", reason)
	}

	// After the window the asset is eligible again.
	after := tradingHour.Add(3 * time.Minute)
	if sig, reason := gen.Evaluate(ctx, domain.AssetBTC, liveContext(after), after); sig == nil {
		t.Errorf("post-cooldown evaluation should accept: %s", reason)
	}
}

func TestSizeBounds(t *testing.T) {
	gen := newGenerator(tracker.New(), nil)

	strong := domain.MomentumResult{Score: 0.8, Consistency: 0.95, Accelerating: true}
	if got := gen.size(50, 0.5, strong); got != 10 {
		t.Errorf("huge edge size = %v, want max 10", got)
	}
	if got := gen.size(0.1, 0.5, domain.MomentumResult{}); got != 1 {
		t.Errorf("tiny edge size = %v, want min 1", got)
	}
	if got := gen.size(-2, 0.5, domain.MomentumResult{}); got != 1 {
		t.Errorf("negative edge size = %v, want min 1", got)
	}
}
