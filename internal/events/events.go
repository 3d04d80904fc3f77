package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingAdmitted  = "booking_admitted"
	EventBookingCancelled = "booking_cancelled"
)

// BookingEventPayload is the minimal booking snapshot consumers need:
// enough to render a notification or a report row without a store
// round trip.
type BookingEventPayload struct {
	BookingID   string `json:"booking_id"`
	UserID      string `json:"user_id"`
	TableID     string `json:"table_id"`
	TableNumber int    `json:"table_number,omitempty"`
	Date        string `json:"date"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Guests      int    `json:"guests"`
	Status      string `json:"status"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub. Handlers run synchronously in
// publish order; anything slow (SMS, exports) should hand off to its
// own queue.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
