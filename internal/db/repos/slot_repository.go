package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"salon-booking/internal/db/models"
)

// Columns cast to text so the YYYY-MM-DD / HH:MM:SS shape survives scanning.
const slotColumns = `id, master_id, date::text AS date, start_time::text AS start_time,
	end_time::text AS end_time, status, block_reason, booking_id, created_at, updated_at`

// SlotRepository handles database operations for time slots.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new SlotRepository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// GetByID retrieves a slot by its ID. Returns (nil, nil) when no slot exists.
func (r *SlotRepository) GetByID(ctx context.Context, id int) (*models.Slot, error) {
	var slot models.Slot
	err := r.db.GetContext(ctx, &slot,
		`SELECT `+slotColumns+` FROM time_slots WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// GetForMaster retrieves a slot only if it belongs to the given master.
func (r *SlotRepository) GetForMaster(ctx context.Context, id, masterID int) (*models.Slot, error) {
	var slot models.Slot
	err := r.db.GetContext(ctx, &slot,
		`SELECT `+slotColumns+` FROM time_slots WHERE id = $1 AND master_id = $2`, id, masterID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// FreeSlots returns all free slots of a master on a date, ordered by start time.
func (r *SlotRepository) FreeSlots(ctx context.Context, masterID int, date string) ([]models.Slot, error) {
	slots := []models.Slot{}
	err := r.db.SelectContext(ctx, &slots,
		`SELECT `+slotColumns+` FROM time_slots
		 WHERE master_id = $1 AND date = $2 AND status = $3
		 ORDER BY start_time ASC`,
		masterID, date, models.SlotStatusFree)
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// FreeSlotsFrom returns free slots of a master on a date starting at or after
// the given time, ordered by start time. The consecutive-slot matcher walks
// this list.
func (r *SlotRepository) FreeSlotsFrom(ctx context.Context, masterID int, date, startTime string) ([]models.Slot, error) {
	slots := []models.Slot{}
	err := r.db.SelectContext(ctx, &slots,
		`SELECT `+slotColumns+` FROM time_slots
		 WHERE master_id = $1 AND date = $2 AND status = $3 AND start_time >= $4
		 ORDER BY start_time ASC`,
		masterID, date, models.SlotStatusFree, startTime)
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// ByBookingID returns every slot owned by a booking.
func (r *SlotRepository) ByBookingID(ctx context.Context, bookingID int) ([]models.Slot, error) {
	slots := []models.Slot{}
	err := r.db.SelectContext(ctx, &slots,
		`SELECT `+slotColumns+` FROM time_slots WHERE booking_id = $1 ORDER BY start_time ASC`,
		bookingID)
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// WeekSlots returns every slot of a master between two dates inclusive.
func (r *SlotRepository) WeekSlots(ctx context.Context, masterID int, weekStart, weekEnd string) ([]models.Slot, error) {
	slots := []models.Slot{}
	err := r.db.SelectContext(ctx, &slots,
		`SELECT `+slotColumns+` FROM time_slots
		 WHERE master_id = $1 AND date >= $2 AND date <= $3
		 ORDER BY date ASC, start_time ASC`,
		masterID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// UpdateBlock flips a slot between free and blocked with an optional reason.
func (r *SlotRepository) UpdateBlock(ctx context.Context, id int, status string, reason *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE time_slots SET status = $1, block_reason = $2, updated_at = now() WHERE id = $3`,
		status, reason, id)
	return err
}

// GenerateWeek materializes a 7-day grid of slots for a master starting at
// weekStart. Existing slots are left untouched.
func (r *SlotRepository) GenerateWeek(ctx context.Context, masterID int, weekStart string, dayStartHour, dayEndHour, granularityMin int) error {
	start, err := time.Parse("2006-01-02", weekStart)
	if err != nil {
		return fmt.Errorf("parse week start: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for day := 0; day < 7; day++ {
		date := start.AddDate(0, 0, day).Format("2006-01-02")
		dayStart := time.Date(0, 1, 1, dayStartHour, 0, 0, 0, time.UTC)
		dayEnd := time.Date(0, 1, 1, dayEndHour, 0, 0, 0, time.UTC)

		for at := dayStart; at.Before(dayEnd); at = at.Add(time.Duration(granularityMin) * time.Minute) {
			end := at.Add(time.Duration(granularityMin) * time.Minute)
			if end.After(dayEnd) {
				break
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO time_slots (master_id, date, start_time, end_time, status)
				 VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (master_id, date, start_time) DO NOTHING`,
				masterID, date, at.Format("15:04:05"), end.Format("15:04:05"), models.SlotStatusFree)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}
