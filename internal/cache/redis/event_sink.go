package redis

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

// EventsChannel is the Pub/Sub channel engine events are published on.
const EventsChannel = "arbbot:events"

// EventSink publishes engine events as JSON on the events channel. Publish
// failures are logged and dropped; the engine never waits on Redis.
type EventSink struct {
	bus    *SignalBus
	logger *slog.Logger
}

func NewEventSink(bus *SignalBus, logger *slog.Logger) *EventSink {
	return &EventSink{
		bus:    bus,
		logger: logger.With(slog.String("component", "redis_events")),
	}
}

var _ domain.EventSink = (*EventSink)(nil)

func (s *EventSink) Emit(ctx context.Context, ev domain.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Warn("marshal event", slog.Any("error", err))
		return
	}
	if err := s.bus.Publish(ctx, EventsChannel, payload); err != nil {
		s.logger.Warn("publish event", slog.Any("error", err))
	}
}
