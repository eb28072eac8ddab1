package models

import "time"

// Booking statuses. Cancelled is terminal and reachable from any
// non-terminal status; the rest advance monotonically.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
	BookingStatusNoShow    = "no_show"
)

// Booking is a client's appointment against one or more slots.
// TimeSlotID references the anchor slot; secondary slots of a
// multi-slot booking point back via time_slots.booking_id.
type Booking struct {
	ID           int        `db:"id" json:"id"`
	TimeSlotID   int        `db:"time_slot_id" json:"time_slot_id"`
	ServiceID    int        `db:"service_id" json:"service_id"`
	ClientName   string     `db:"client_name" json:"client_name"`
	ClientPhone  string     `db:"client_phone" json:"client_phone"`
	ClientEmail  *string    `db:"client_email" json:"client_email,omitempty"`
	Status       string     `db:"status" json:"status"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"-"`
}
