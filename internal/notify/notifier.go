// Package notify enqueues booking notifications on the message broker.
// The jobs are fire-and-forget: a failed enqueue is the caller's problem to
// log, never to roll back a committed booking over.
package notify

import (
	"context"
	"time"

	"salon-booking/internal/breaker"
)

// Notification job types.
const (
	TypeBookingConfirmation = "booking_confirmation"
	TypeBookingCancellation = "booking_cancellation"
)

// Job is the message pushed to the notifications queue.
type Job struct {
	Type      string `json:"type"`
	BookingID int    `json:"booking_id"`
	Reason    string `json:"reason,omitempty"`
	PushedAt  string `json:"pushed_at"`
}

// Publisher is the broker surface the notifier needs.
type Publisher interface {
	Publish(message interface{}) error
}

// Notifier publishes notification jobs behind a circuit breaker.
type Notifier struct {
	pub Publisher
	cb  *breaker.Breaker
}

// New creates a Notifier. pub may be nil, in which case every enqueue is a
// no-op (the service runs without a broker in development).
func New(pub Publisher) *Notifier {
	return &Notifier{pub: pub, cb: breaker.New(3, 30*time.Second)}
}

// BookingConfirmation enqueues a confirmation job for a booking.
func (n *Notifier) BookingConfirmation(_ context.Context, bookingID int) error {
	return n.push(Job{Type: TypeBookingConfirmation, BookingID: bookingID})
}

// BookingCancellation enqueues a cancellation job for a booking.
func (n *Notifier) BookingCancellation(_ context.Context, bookingID int, reason string) error {
	return n.push(Job{Type: TypeBookingCancellation, BookingID: bookingID, Reason: reason})
}

func (n *Notifier) push(job Job) error {
	if n.pub == nil {
		return nil
	}
	job.PushedAt = time.Now().UTC().Format("2006-01-02 15:04:05")
	return n.cb.Execute(func() error {
		return n.pub.Publish(job)
	})
}
