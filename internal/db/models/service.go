package models

import "time"

// Service is a bookable offering of a master. DurationMin decides how
// many consecutive slots a booking for it must own.
type Service struct {
	ID          int       `db:"id" json:"id"`
	MasterID    int       `db:"master_id" json:"master_id"`
	Name        string    `db:"name" json:"name"`
	DurationMin int       `db:"duration_min" json:"duration_min"`
	Price       float64   `db:"price" json:"price"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"-"`
}
