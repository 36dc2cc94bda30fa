// util/event_bus.go

package util

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
)

const (
	EventPrincipalLogin         = "principal.login"
	EventPrincipalLoginFailed   = "principal.login_failed"
	EventPrincipalCreated       = "principal.created"
	EventPrincipalActiveChanged = "principal.active_changed"
	EventPrincipalInvalidated   = "cache.principal_invalidated"
	EventPrincipalCacheCleared  = "cache.principals_cleared"
)

// Event represents an event in the system
type Event struct {
	Type       string
	Actor      string
	Subject    string
	Granted    bool
	Details    map[string]any
	OccurredAt time.Time
}

// EventHandler is a function that handles an event
type EventHandler func(context.Context, Event) error

// EventBus fans events out to subscribers on their own goroutines so that
// publishers never wait on slow consumers such as the audit trail.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	errorChan   chan error
	inflight    sync.WaitGroup
}

// NewEventBus creates a new EventBus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]EventHandler),
		errorChan:   make(chan error, 100),
	}
}

// Subscribe adds a handler for each of the given event types
func (eb *EventBus) Subscribe(handler EventHandler, eventTypes ...string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, eventType := range eventTypes {
		eb.subscribers[eventType] = append(eb.subscribers[eventType], handler)
	}
}

// Publish sends an event to all subscribers. A nil bus drops the event.
func (eb *EventBus) Publish(ctx context.Context, event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	handlers := eb.subscribers[event.Type]
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	// Handlers outlive the request that published the event.
	ctx = context.WithoutCancel(ctx)
	for _, handler := range handlers {
		eb.inflight.Add(1)
		go func(h EventHandler) {
			defer eb.inflight.Done()
			if err := h(ctx, event); err != nil {
				select {
				case eb.errorChan <- fmt.Errorf("event handler error for %s: %w", event.Type, err):
				default:
					logger.Error("Error channel full, logging event handler error",
						zap.Error(err),
						zap.String("eventType", event.Type))
				}
			}
		}(handler)
	}
}

// Start begins processing handler errors
func (eb *EventBus) Start(ctx context.Context) {
	go eb.processErrors(ctx)
}

// Wait blocks until every handler started so far has returned.
func (eb *EventBus) Wait() {
	eb.inflight.Wait()
}

func (eb *EventBus) processErrors(ctx context.Context) {
	for {
		select {
		case err := <-eb.errorChan:
			logger.Error("Event handler error", zap.Error(err))
		case <-ctx.Done():
			return
		}
	}
}
