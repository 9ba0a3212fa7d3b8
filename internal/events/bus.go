package events

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Handler reacts to one integration event delivery
type Handler interface {
	Handle(ctx context.Context, event IntegrationEvent) error
}

// Bus is the publish/subscribe capability set for integration events
type Bus interface {
	// Publish delivers the event to every handler subscribed for its name.
	// Fan-out is synchronous: each handler runs to completion before the
	// call returns, and the first handler error stops delivery of that
	// message. There is no retry or dead-letter policy.
	Publish(ctx context.Context, event IntegrationEvent, routingKey string) error

	// Subscribe registers a handler for future events of the given name.
	// There is no unsubscribe; subscribing twice delivers twice.
	Subscribe(eventName string, handler Handler)
}

// InMemoryBus dispatches events to handlers within the process
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewInMemoryBus creates a new in-process event bus
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
	}
}

// Subscribe registers a handler for an event name
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish delivers the event sequentially to all subscribed handlers
func (b *InMemoryBus) Publish(ctx context.Context, event IntegrationEvent, routingKey string) error {
	b.mu.RLock()
	handlers := b.handlers[event.EventName()]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		log.Debug().
			Str("event", event.EventName()).
			Str("routing_key", routingKey).
			Msg("no handlers subscribed for event")
		return nil
	}

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			log.Error().
				Err(err).
				Str("event", event.EventName()).
				Msg("event handler failed")
			return errors.Wrapf(err, "handler failed for event %s", event.EventName())
		}
	}

	return nil
}
