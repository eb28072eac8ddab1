package models

import "time"

// Slot statuses.
const (
	SlotStatusFree    = "free"
	SlotStatusBooked  = "booked"
	SlotStatusBlocked = "blocked"
)

// Valid reasons for blocking a slot.
const (
	BlockReasonLunch = "lunch"
	BlockReasonBreak = "break"
)

// Slot is one indivisible bookable interval in a master's schedule.
// Date is YYYY-MM-DD, StartTime/EndTime are HH:MM:SS.
type Slot struct {
	ID          int       `db:"id" json:"id"`
	MasterID    int       `db:"master_id" json:"master_id"`
	Date        string    `db:"date" json:"date"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	Status      string    `db:"status" json:"status"`
	BlockReason *string   `db:"block_reason" json:"block_reason,omitempty"`
	BookingID   *int      `db:"booking_id" json:"booking_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"-"`
}

// IsFree reports whether the slot can still be reserved.
func (s *Slot) IsFree() bool {
	return s.Status == SlotStatusFree
}

// DurationMin returns the slot length in minutes, or 0 if the
// times do not parse.
func (s *Slot) DurationMin() int {
	start, err := time.Parse("15:04:05", s.StartTime)
	if err != nil {
		return 0
	}
	end, err := time.Parse("15:04:05", s.EndTime)
	if err != nil {
		return 0
	}
	return int(end.Sub(start).Minutes())
}
