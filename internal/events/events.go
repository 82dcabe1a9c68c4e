package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// ===============================
// EVENT INTERFACE
// ===============================

// Event represents a domain event
type Event interface {
	GetEventID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetUserID() *int64
}

// BaseEvent provides common event functionality
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	UserID    *int64    `json:"user_id,omitempty"`
}

// GetEventID returns the event ID
func (e *BaseEvent) GetEventID() string {
	return e.EventID
}

// GetEventType returns the event type
func (e *BaseEvent) GetEventType() string {
	return e.EventType
}

// GetTimestamp returns the event timestamp
func (e *BaseEvent) GetTimestamp() time.Time {
	return e.Timestamp
}

// GetUserID returns the acting user ID
func (e *BaseEvent) GetUserID() *int64 {
	return e.UserID
}

func newBaseEvent(eventType string, userID int64) BaseEvent {
	base := BaseEvent{
		EventID:   GenerateEventID(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
	if userID != 0 {
		id := userID
		base.UserID = &id
	}
	return base
}

// ===============================
// EVENT BUS
// ===============================

// EventBus delivers events to subscribers
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType string, handler EventHandler) error
	SubscribePattern(pattern string, handler EventHandler) error
	Unsubscribe(eventType string, handler EventHandler) error
	Stats() *EventBusStats
}

// EventHandler handles a single event
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
	GetHandlerID() string
}

// EventHandlerFunc is a function type that implements EventHandler
type EventHandlerFunc struct {
	ID   string
	Func func(ctx context.Context, event Event) error
}

// Handle implements EventHandler
func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f.Func(ctx, event)
}

// GetHandlerID implements EventHandler
func (f EventHandlerFunc) GetHandlerID() string {
	return f.ID
}

// EventBusStats represents event bus statistics
type EventBusStats struct {
	EventsPublished int64 `json:"events_published"`
	EventsFailed    int64 `json:"events_failed"`
	HandlersCount   int   `json:"handlers_count"`
}

// inMemoryEventBus dispatches synchronously on the publisher's goroutine.
// Handlers run in subscription order.
type inMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
	patterns map[string][]EventHandler
	logger   *zap.Logger

	published int64
	failed    int64
}

// NewInMemoryEventBus creates a synchronous event bus
func NewInMemoryEventBus(logger *zap.Logger) EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryEventBus{
		handlers: make(map[string][]EventHandler),
		patterns: make(map[string][]EventHandler),
		logger:   logger,
	}
}

// Publish delivers event to every matching handler. Handler errors are
// joined and returned after all handlers ran.
func (b *inMemoryEventBus) Publish(ctx context.Context, event Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	atomic.AddInt64(&b.published, 1)

	var errs []error
	for _, handler := range b.matching(event.GetEventType()) {
		if err := b.executeHandler(ctx, handler, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		atomic.AddInt64(&b.failed, 1)
		return errors.Join(errs...)
	}
	return nil
}

func (b *inMemoryEventBus) matching(eventType string) []EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := append([]EventHandler(nil), b.handlers[eventType]...)
	for pattern, handlers := range b.patterns {
		if matchesPattern(eventType, pattern) {
			out = append(out, handlers...)
		}
	}
	return out
}

func (b *inMemoryEventBus) executeHandler(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", handler.GetHandlerID(), r)
		}
		if err != nil {
			b.logger.Error("Event handler failed",
				zap.String("handler_id", handler.GetHandlerID()),
				zap.String("event_type", event.GetEventType()),
				zap.String("event_id", event.GetEventID()),
				zap.Error(err),
			)
		}
	}()

	return handler.Handle(ctx, event)
}

// Subscribe registers handler for an exact event type
func (b *inMemoryEventBus) Subscribe(eventType string, handler EventHandler) error {
	if eventType == "" || handler == nil {
		return fmt.Errorf("event type and handler are required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("Event handler subscribed",
		zap.String("event_type", eventType),
		zap.String("handler_id", handler.GetHandlerID()),
	)
	return nil
}

// SubscribePattern registers handler for every type matching pattern,
// e.g. "donation.*"
func (b *inMemoryEventBus) SubscribePattern(pattern string, handler EventHandler) error {
	if pattern == "" || handler == nil {
		return fmt.Errorf("pattern and handler are required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.patterns[pattern] = append(b.patterns[pattern], handler)
	return nil
}

// Unsubscribe removes handler by ID from an exact event type
func (b *inMemoryEventBus) Unsubscribe(eventType string, handler EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[eventType]
	for i, h := range handlers {
		if h.GetHandlerID() == handler.GetHandlerID() {
			b.handlers[eventType] = append(handlers[:i:i], handlers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("handler %s not subscribed to %s", handler.GetHandlerID(), eventType)
}

// Stats returns delivery counters
func (b *inMemoryEventBus) Stats() *EventBusStats {
	b.mu.RLock()
	count := 0
	for _, hs := range b.handlers {
		count += len(hs)
	}
	for _, hs := range b.patterns {
		count += len(hs)
	}
	b.mu.RUnlock()

	return &EventBusStats{
		EventsPublished: atomic.LoadInt64(&b.published),
		EventsFailed:    atomic.LoadInt64(&b.failed),
		HandlersCount:   count,
	}
}

// matchesPattern supports "*" and a trailing ".*" wildcard
func matchesPattern(eventType, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, ".*") {
		return strings.HasPrefix(eventType, strings.TrimSuffix(pattern, "*"))
	}
	return eventType == pattern
}

// ===============================
// UTILITY FUNCTIONS
// ===============================

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	if id, err := uuid.NewV4(); err == nil {
		return "evt_" + id.String()
	}
	return fmt.Sprintf("evt_%d", time.Now().UnixNano())
}

// NewEventHandlerFunc creates an EventHandler from a function
func NewEventHandlerFunc(id string, fn func(ctx context.Context, event Event) error) EventHandler {
	return EventHandlerFunc{
		ID:   id,
		Func: fn,
	}
}

// TypedEventHandler is a generic handler for specific event types
type TypedEventHandler[T Event] struct {
	ID      string
	Handler func(ctx context.Context, event T) error
}

// Handle implements EventHandler
func (h TypedEventHandler[T]) Handle(ctx context.Context, event Event) error {
	if typedEvent, ok := event.(T); ok {
		return h.Handler(ctx, typedEvent)
	}
	return fmt.Errorf("event type mismatch: expected %T, got %T", *new(T), event)
}

// GetHandlerID implements EventHandler
func (h TypedEventHandler[T]) GetHandlerID() string {
	return h.ID
}

// NewTypedEventHandler creates a typed event handler
func NewTypedEventHandler[T Event](id string, handler func(ctx context.Context, event T) error) EventHandler {
	return TypedEventHandler[T]{
		ID:      id,
		Handler: handler,
	}
}
