package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishJSONReachesSubscribers(t *testing.T) {
	bus := NewEventBus()

	var received []BookingEventPayload
	bus.Subscribe(EventBookingAdmitted, func(event *Event) error {
		var payload BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		received = append(received, payload)
		return nil
	})

	payload := BookingEventPayload{BookingID: "b1", TableNumber: 5, Date: "2026-09-15", Start: "18:00", End: "19:30", Guests: 2}
	require.NoError(t, bus.PublishJSON(EventBookingAdmitted, payload))

	require.Len(t, received, 1)
	assert.Equal(t, payload, received[0])
}

func TestPublishOnlyMatchingType(t *testing.T) {
	bus := NewEventBus()

	admitted := 0
	cancelled := 0
	bus.Subscribe(EventBookingAdmitted, func(*Event) error { admitted++; return nil })
	bus.Subscribe(EventBookingCancelled, func(*Event) error { cancelled++; return nil })

	require.NoError(t, bus.PublishJSON(EventBookingCancelled, BookingEventPayload{BookingID: "b1"}))

	assert.Equal(t, 0, admitted)
	assert.Equal(t, 1, cancelled)
}

func TestHandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewEventBus()

	called := false
	bus.Subscribe(EventBookingAdmitted, func(*Event) error { return errors.New("handler failed") })
	bus.Subscribe(EventBookingAdmitted, func(*Event) error { called = true; return nil })

	require.NoError(t, bus.PublishJSON(EventBookingAdmitted, BookingEventPayload{BookingID: "b1"}))
	assert.True(t, called)
}

func TestNilBusPublishIsNoop(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventBookingAdmitted, BookingEventPayload{}))
}

func TestPublishSetsCreatedAt(t *testing.T) {
	bus := NewEventBus()

	var stamped bool
	bus.Subscribe(EventBookingAdmitted, func(event *Event) error {
		stamped = !event.CreatedAt.IsZero()
		return nil
	})
	bus.Publish(&Event{Type: EventBookingAdmitted})
	assert.True(t, stamped)
}
