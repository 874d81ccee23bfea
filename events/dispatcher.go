package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/shopfabrik/catalog/pkg/errors"
)

// Handler processes a single domain event. Handlers run synchronously
// on the dispatching goroutine; a returned error propagates to the
// dispatcher's caller.
type Handler func(ctx context.Context, event DomainEvent) error

// Dispatcher publishes events to their registered handlers and awaits
// completion.
type Dispatcher interface {
	Dispatch(ctx context.Context, event DomainEvent) error
}

// Bus is a synchronous in-process dispatcher keyed by event type.
// It can be swapped for an async or distributed implementation behind
// the same Dispatcher interface.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[string][]Handler
	allHandlers []Handler
	logger      *zap.Logger
}

// NewBus creates an empty in-process event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger.Named("events"),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// SubscribeAll registers a handler that receives every event.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, h)
}

// Dispatch delivers the event to typed handlers first and global
// handlers second, awaiting each. The first handler error aborts
// delivery and is returned as an event-dispatch failure.
func (b *Bus) Dispatch(ctx context.Context, event DomainEvent) error {
	b.mu.RLock()
	typed := append([]Handler(nil), b.handlers[event.EventType()]...)
	global := append([]Handler(nil), b.allHandlers...)
	b.mu.RUnlock()

	b.logger.Debug("dispatching event",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID()),
	)

	for _, h := range append(typed, global...) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h(ctx, event); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("aggregate_id", event.AggregateID()),
				zap.Error(err),
			)
			return apperrors.NewEventDispatch("handler failed for "+event.EventType(), err)
		}
	}
	return nil
}
