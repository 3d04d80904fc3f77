// Package worker delivers booking notifications out of band. The
// reservation engine never waits on a notification: events are
// queued here and delivered with bounded retries.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stolik/internal/domain"
	"stolik/internal/events"
	"stolik/internal/models"

	"github.com/rs/zerolog"
)

// Notification is one queued delivery.
type Notification struct {
	BookingID string
	Recipient string
	Message   string
	CreatedAt time.Time
}

// Notifier consumes booking events and delivers messages through a
// NotificationSender with exponential backoff. Exhausted deliveries
// are logged as dead letters, never retried again.
type Notifier struct {
	sender domain.NotificationSender
	users  domain.Store
	retry  RetryPolicy
	queue  chan Notification
	logger *zerolog.Logger
}

func NewNotifier(sender domain.NotificationSender, users domain.Store, retry RetryPolicy, logger *zerolog.Logger) *Notifier {
	if retry.MaxRetries == 0 {
		retry = DefaultRetryPolicy()
	}
	return &Notifier{
		sender: sender,
		users:  users,
		retry:  retry,
		queue:  make(chan Notification, models.NotifyQueueSize),
		logger: logger,
	}
}

// HandleEvent is the event-bus subscription point. It renders the
// message and enqueues it; a full queue drops the notification
// rather than blocking the admission path.
func (n *Notifier) HandleEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode event payload: %w", err)
	}

	user, err := n.users.GetUserByID(context.Background(), payload.UserID)
	if err != nil || user.Phone == "" {
		// Нет телефона - нечего отправлять
		return nil
	}

	notification := Notification{
		BookingID: payload.BookingID,
		Recipient: user.Phone,
		Message:   renderMessage(event.Type, payload),
		CreatedAt: time.Now(),
	}

	select {
	case n.queue <- notification:
	default:
		n.logger.Warn().Str("booking_id", payload.BookingID).Msg("notification queue full, dropping")
	}
	return nil
}

func renderMessage(eventType string, p events.BookingEventPayload) string {
	switch eventType {
	case events.EventBookingAdmitted:
		return fmt.Sprintf("Your table %d is booked for %s, %s-%s (%d guests).",
			p.TableNumber, p.Date, p.Start, p.End, p.Guests)
	case events.EventBookingCancelled:
		return fmt.Sprintf("Your booking for %s, %s-%s has been cancelled.",
			p.Date, p.Start, p.End)
	default:
		return fmt.Sprintf("Booking %s update: %s.", p.BookingID, p.Status)
	}
}

// Start runs the delivery loop until ctx is done.
func (n *Notifier) Start(ctx context.Context) {
	n.logger.Info().Msg("notification worker started")
	for {
		select {
		case <-ctx.Done():
			n.logger.Info().Msg("notification worker stopped")
			return
		case notification := <-n.queue:
			n.deliver(ctx, notification)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, notification Notification) {
	var lastErr error
	for attempt := 1; attempt <= n.retry.MaxRetries; attempt++ {
		lastErr = n.sender.Send(ctx, notification.Recipient, notification.Message)
		if lastErr == nil {
			n.logger.Debug().Str("booking_id", notification.BookingID).Msg("notification delivered")
			return
		}

		delay := n.retry.NextDelay(attempt)
		n.logger.Warn().Err(lastErr).
			Str("booking_id", notification.BookingID).
			Int("attempt", attempt).
			Dur("next_delay", delay).
			Msg("notification delivery failed")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	n.logger.Error().Err(lastErr).
		Str("booking_id", notification.BookingID).
		Str("recipient", notification.Recipient).
		Msg("notification dead-lettered after retries")
}

// QueueLen reports the pending deliveries; exposed for tests.
func (n *Notifier) QueueLen() int {
	return len(n.queue)
}
