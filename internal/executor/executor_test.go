package executor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

type recordBus struct {
	mu      sync.Mutex
	channel string
	payload []byte
}

func (b *recordBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channel = channel
	b.payload = payload
	return nil
}

func (b *recordBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

func (b *recordBus) last() (string, []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channel, b.payload
}

// relayBus records publishes and serves an injectable fills stream.
type relayBus struct {
	recordBus
	fills chan []byte
}

func (b *relayBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.fills, nil
}

func request() domain.ExecutionRequest {
	return domain.ExecutionRequest{
		Signal: domain.Signal{
			ID:        "sig-1",
			Asset:     domain.AssetBTC,
			Direction: domain.DirectionUp,
			TokenAsk:  0.52,
			SizeUSD:   5,
		},
		ReferencePrice: 0.50,
	}
}

func TestMockFillsAtAsk(t *testing.T) {
	m := NewMock(slog.New(slog.NewTextHandler(io.Discard, nil)))
	res, err := m.Execute(context.Background(), request())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.Filled {
		t.Fatal("mock must always fill")
	}
	if res.FillPrice != 0.52 {
		t.Errorf("fill price = %v, want the quoted ask 0.52", res.FillPrice)
	}
}

func TestMockFallsBackToReference(t *testing.T) {
	m := NewMock(slog.New(slog.NewTextHandler(io.Discard, nil)))
	req := request()
	req.Signal.TokenAsk = 0
	res, _ := m.Execute(context.Background(), req)
	if res.FillPrice != 0.50 {
		t.Errorf("fill price = %v, want reference 0.50", res.FillPrice)
	}
}

func TestRelayUnfilledOnTimeout(t *testing.T) {
	bus := &recordBus{}
	r := NewRelay(bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.fillTimeout = 20 * time.Millisecond

	res, err := r.Execute(context.Background(), request())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Filled {
		t.Error("no fill report means unfilled")
	}
	channel, payload := bus.last()
	if channel != OrdersChannel {
		t.Errorf("channel = %s, want %s", channel, OrdersChannel)
	}
	var decoded domain.ExecutionRequest
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded.Signal.Asset != domain.AssetBTC {
		t.Errorf("decoded asset = %s", decoded.Signal.Asset)
	}
}

func TestRelayResolvesFillReport(t *testing.T) {
	bus := &relayBus{fills: make(chan []byte, 1)}
	r := NewRelay(bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.fillTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	resCh := make(chan domain.ExecutionResult, 1)
	go func() {
		res, err := r.Execute(ctx, request())
		if err != nil {
			t.Errorf("execute: %v", err)
		}
		resCh <- res
	}()

	// The waiter is registered before the publish, so once the request is
	// on the orders channel the fill report can be answered.
	deadline := time.Now().Add(time.Second)
	for {
		if ch, _ := bus.last(); ch == OrdersChannel {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("request never published")
		}
		time.Sleep(time.Millisecond)
	}
	bus.fills <- []byte(`{"signal_id":"sig-1","filled":true,"fill_price":0.53}`)

	select {
	case res := <-resCh:
		if !res.Filled {
			t.Fatal("fill report must resolve the request as filled")
		}
		if res.FillPrice != 0.53 {
			t.Errorf("fill price = %v, want 0.53", res.FillPrice)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("execute never resolved")
	}
}
