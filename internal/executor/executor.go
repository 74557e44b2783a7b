// Package executor turns accepted signals into fills. Mock execution fills
// at the quoted ask for paper trading; relay execution hands the request to
// an external order router over the signal bus.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

// Executor materializes an execution request into a result.
type Executor interface {
	Execute(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error)
}

// Mock fills every request immediately at the quoted token ask. It is the
// default trading mode; no order ever leaves the process.
type Mock struct {
	logger *slog.Logger
}

func NewMock(logger *slog.Logger) *Mock {
	return &Mock{logger: logger.With(slog.String("component", "executor"))}
}

var _ Executor = (*Mock)(nil)

func (m *Mock) Execute(_ context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
	fill := req.Signal.TokenAsk
	if fill <= 0 {
		fill = req.ReferencePrice
	}
	m.logger.Info("mock fill",
		slog.String("asset", req.Signal.Asset.String()),
		slog.String("direction", req.Signal.Direction.String()),
		slog.Float64("price", fill),
		slog.Float64("size_usd", req.Signal.SizeUSD),
	)
	return domain.ExecutionResult{Filled: true, FillPrice: fill}, nil
}

// Bus channels shared with the external order router.
const (
	// OrdersChannel carries execution requests to the router.
	OrdersChannel = "arbbot:orders"
	// FillsChannel carries the router's fill reports back.
	FillsChannel = "arbbot:fills"
)

const defaultFillTimeout = 5 * time.Second

// fillReport is the router's answer to one execution request.
type fillReport struct {
	SignalID  string  `json:"signal_id"`
	Filled    bool    `json:"filled"`
	FillPrice float64 `json:"fill_price"`
}

// Relay publishes execution requests for an external order router that
// holds the signing keys, then waits for the router's fill report on the
// fills channel. A request with no report inside the timeout counts as
// unfilled. Run must be active for reports to be delivered.
type Relay struct {
	bus         domain.SignalBus
	logger      *slog.Logger
	fillTimeout time.Duration

	mu      sync.Mutex
	waiters map[string]chan domain.ExecutionResult
}

func NewRelay(bus domain.SignalBus, logger *slog.Logger) *Relay {
	return &Relay{
		bus:         bus,
		logger:      logger.With(slog.String("component", "executor")),
		fillTimeout: defaultFillTimeout,
		waiters:     make(map[string]chan domain.ExecutionResult),
	}
}

var _ Executor = (*Relay)(nil)

// Run consumes fill reports from the bus and resolves the requests waiting
// on them until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	msgs, err := r.bus.Subscribe(ctx, FillsChannel)
	if err != nil {
		return fmt.Errorf("executor: subscribe fills: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-msgs:
			if !ok {
				return nil
			}
			var rep fillReport
			if err := json.Unmarshal(payload, &rep); err != nil {
				r.logger.Warn("unparseable fill report", slog.Any("error", err))
				continue
			}
			r.resolve(rep)
		}
	}
}

func (r *Relay) resolve(rep fillReport) {
	r.mu.Lock()
	ch, ok := r.waiters[rep.SignalID]
	if ok {
		delete(r.waiters, rep.SignalID)
	}
	r.mu.Unlock()
	if !ok {
		r.logger.Warn("fill report for unknown signal", slog.String("signal_id", rep.SignalID))
		return
	}
	ch <- domain.ExecutionResult{Filled: rep.Filled, FillPrice: rep.FillPrice}
}

func (r *Relay) Execute(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
	wait := make(chan domain.ExecutionResult, 1)
	r.mu.Lock()
	r.waiters[req.Signal.ID] = wait
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.waiters, req.Signal.ID)
		r.mu.Unlock()
	}()

	payload, err := json.Marshal(req)
	if err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("executor: marshal request: %w", err)
	}
	if err := r.bus.Publish(ctx, OrdersChannel, payload); err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("executor: publish request: %w", err)
	}
	r.logger.Info("execution request relayed",
		slog.String("asset", req.Signal.Asset.String()),
		slog.String("direction", req.Signal.Direction.String()),
		slog.Float64("size_usd", req.Signal.SizeUSD),
	)

	select {
	case res := <-wait:
		return res, nil
	case <-time.After(r.fillTimeout):
		r.logger.Warn("no fill report before timeout",
			slog.String("signal_id", req.Signal.ID),
			slog.String("asset", req.Signal.Asset.String()),
		)
		return domain.ExecutionResult{Filled: false}, nil
	case <-ctx.Done():
		return domain.ExecutionResult{}, ctx.Err()
	}
}
