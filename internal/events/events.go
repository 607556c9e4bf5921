package events

import (
	"context"
	"fmt"
	"sync"
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
func (e *BaseEvent) GetEventID() string { return e.EventID }

// GetEventType returns the event type
func (e *BaseEvent) GetEventType() string { return e.EventType }

// GetTimestamp returns the event timestamp
func (e *BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// GetUserID returns the user ID associated with the event
func (e *BaseEvent) GetUserID() *int64 { return e.UserID }

// newBaseEvent stamps a fresh event envelope.
func newBaseEvent(eventType string, userID int64) BaseEvent {
	id := ""
	if v4, err := uuid.NewV4(); err == nil {
		id = v4.String()
	}
	uid := userID
	return BaseEvent{
		EventID:   id,
		EventType: eventType,
		Timestamp: time.Now(),
		UserID:    &uid,
	}
}

// ===============================
// EVENT BUS
// ===============================

// EventBus defines the event publishing and subscription interface
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	PublishAsync(ctx context.Context, event Event) error
	Subscribe(eventType string, handler EventHandler) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Stats() *EventBusStats
}

// EventHandler represents an event handler
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
	GetHandlerID() string
}

// EventHandlerFunc adapts a function to the EventHandler interface
type EventHandlerFunc struct {
	ID   string
	Func func(ctx context.Context, event Event) error
}

// Handle implements EventHandler
func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f.Func(ctx, event)
}

// GetHandlerID implements EventHandler
func (f EventHandlerFunc) GetHandlerID() string { return f.ID }

// EventBusStats represents event bus statistics
type EventBusStats struct {
	EventsPublished int64 `json:"events_published"`
	EventsProcessed int64 `json:"events_processed"`
	EventsFailed    int64 `json:"events_failed"`
	HandlersCount   int   `json:"handlers_count"`
	QueueDepth      int   `json:"queue_depth"`
}

// inMemoryEventBus implements EventBus using in-memory channels
type inMemoryEventBus struct {
	mu         sync.RWMutex
	handlers   map[string][]EventHandler
	eventQueue chan eventMessage
	logger     *zap.Logger
	stats      EventBusStats
	statsMu    sync.Mutex
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	started    bool
}

type eventMessage struct {
	ctx   context.Context
	event Event
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryEventBus{
		handlers:   make(map[string][]EventHandler),
		eventQueue: make(chan eventMessage, 1000),
		logger:     logger,
	}
}

// Publish delivers an event to its handlers synchronously
func (b *inMemoryEventBus) Publish(ctx context.Context, event Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	b.logger.Debug("Publishing event",
		zap.String("event_id", event.GetEventID()),
		zap.String("event_type", event.GetEventType()),
	)

	if err := b.dispatch(ctx, event); err != nil {
		b.bump(func(s *EventBusStats) { s.EventsFailed++ })
		return err
	}

	b.bump(func(s *EventBusStats) { s.EventsPublished++; s.EventsProcessed++ })
	return nil
}

// PublishAsync queues an event for background delivery
func (b *inMemoryEventBus) PublishAsync(ctx context.Context, event Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	select {
	case b.eventQueue <- eventMessage{ctx: ctx, event: event}:
		b.bump(func(s *EventBusStats) { s.EventsPublished++ })
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("event queue is full")
	}
}

// Subscribe registers a handler for an event type
func (b *inMemoryEventBus) Subscribe(eventType string, handler EventHandler) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.bump(func(s *EventBusStats) { s.HandlersCount++ })

	b.logger.Info("Handler subscribed",
		zap.String("event_type", eventType),
		zap.String("handler_id", handler.GetHandlerID()),
	)
	return nil
}

// Start launches the background worker for async events
func (b *inMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return nil
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.started = true

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case msg := <-b.eventQueue:
				if err := b.dispatch(msg.ctx, msg.event); err != nil {
					b.bump(func(s *EventBusStats) { s.EventsFailed++ })
				} else {
					b.bump(func(s *EventBusStats) { s.EventsProcessed++ })
				}
			case <-workerCtx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop shuts the worker down and waits for it to exit
func (b *inMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return nil
	}
	b.cancel()
	b.started = false
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of bus counters
func (b *inMemoryEventBus) Stats() *EventBusStats {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()

	snapshot := b.stats
	snapshot.QueueDepth = len(b.eventQueue)
	return &snapshot
}

func (b *inMemoryEventBus) dispatch(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.handlers[event.GetEventType()]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Error("Event handler failed",
				zap.String("event_type", event.GetEventType()),
				zap.String("handler_id", handler.GetHandlerID()),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

func (b *inMemoryEventBus) bump(fn func(*EventBusStats)) {
	b.statsMu.Lock()
	fn(&b.stats)
	b.statsMu.Unlock()
}
