// internal/events/bus.go
package events

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bus is an in-memory event bus. Emit delivers synchronously, in registration
// order, and isolates every listener: a panicking or erroring handler is
// logged and never affects the remaining listeners or the emitting call.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscriber
	logger *zap.Logger
}

type subscriber struct {
	id      string
	typ     EventType
	handler Handler
}

// NewBus creates a new event bus. A nil logger falls back to a no-op logger.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{logger: logger.Named("event_bus")}
}

// Subscribe registers a handler for a specific event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	b.subs = append(b.subs, &subscriber{id: id, typ: eventType, handler: handler})

	b.logger.Debug("Handler subscribed",
		zap.String("event_type", string(eventType)),
		zap.String("subscription_id", id))

	return &subscription{id: id, bus: b}
}

// SubscribeFunc is a convenience method for subscribing with a function.
func (b *Bus) SubscribeFunc(eventType EventType, fn func(Event) error) Subscription {
	return b.Subscribe(eventType, HandlerFunc(fn))
}

// Emit delivers the event to every listener registered for its type. Safe to
// call on a nil bus.
func (b *Bus) Emit(event Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	matching := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s.typ == event.Type {
			matching = append(matching, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range matching {
		b.dispatch(s, event)
	}
}

func (b *Bus) dispatch(s *subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Listener panicked",
				zap.String("event_type", string(event.Type)),
				zap.String("subscription_id", s.id),
				zap.Any("panic", r))
		}
	}()

	if err := s.handler.Handle(event); err != nil {
		b.logger.Error("Listener error",
			zap.String("event_type", string(event.Type)),
			zap.String("subscription_id", s.id),
			zap.Error(err))
	}
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}

	b.logger.Debug("Handler unsubscribed", zap.String("subscription_id", id))
}

type subscription struct {
	id  string
	bus *Bus
}

func (s *subscription) Unsubscribe() {
	s.bus.unsubscribe(s.id)
}
