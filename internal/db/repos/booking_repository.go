package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"salon-booking/internal/db/models"
)

const bookingColumns = `id, time_slot_id, service_id, client_name, client_phone,
	client_email, status, notes, cancelled_at, cancel_reason, created_at, updated_at`

// BookingRepository handles database operations for bookings. The writes that
// touch both bookings and their slots run in a single transaction, so slot
// status and booking status can never diverge.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// GetByID retrieves a booking by its ID. Returns (nil, nil) when none exists.
func (r *BookingRepository) GetByID(ctx context.Context, id int) (*models.Booking, error) {
	var b models.Booking
	err := r.db.GetContext(ctx, &b,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ActiveBySlot returns the non-cancelled booking owning a slot, if any.
func (r *BookingRepository) ActiveBySlot(ctx context.Context, slotID int) (*models.Booking, error) {
	var b models.Booking
	err := r.db.GetContext(ctx, &b,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE time_slot_id = $1 AND status <> $2`,
		slotID, models.BookingStatusCancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateWithSlots inserts the booking and marks every slot in slotIDs as
// booked by it, all in one transaction.
func (r *BookingRepository) CreateWithSlots(ctx context.Context, b *models.Booking, slotIDs []int) (*models.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var created models.Booking
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO bookings (time_slot_id, service_id, client_name, client_phone, client_email, notes, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+bookingColumns,
		b.TimeSlotID, b.ServiceID, b.ClientName, b.ClientPhone, b.ClientEmail, b.Notes,
		models.BookingStatusPending,
	).StructScan(&created)
	if err != nil {
		return nil, err
	}

	for _, slotID := range slotIDs {
		res, err := tx.ExecContext(ctx,
			`UPDATE time_slots SET status = $1, booking_id = $2, updated_at = now()
			 WHERE id = $3 AND status = $4`,
			models.SlotStatusBooked, created.ID, slotID, models.SlotStatusFree)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n != 1 {
			return nil, fmt.Errorf("slot %d was not free at commit time", slotID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &created, nil
}

// CancelAndFree transitions the booking to cancelled and releases every slot
// it owns back to free, in one transaction. It returns the updated booking
// and the freed slots. The UPDATE itself guards against an already-cancelled
// booking: callers may pre-read for a friendlier error, but the guarded
// statement is the authority, so two concurrent cancels can never both
// commit (the loser would otherwise free slots a newer booking already owns).
func (r *BookingRepository) CancelAndFree(ctx context.Context, id int, reason *string) (*models.Booking, []models.Slot, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var cancelled models.Booking
	err = tx.QueryRowxContext(ctx,
		`UPDATE bookings
		 SET status = $1, cancelled_at = now(), cancel_reason = $2, updated_at = now()
		 WHERE id = $3 AND status <> $1
		 RETURNING `+bookingColumns,
		models.BookingStatusCancelled, reason, id,
	).StructScan(&cancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrAlreadyCancelled
	}
	if err != nil {
		return nil, nil, err
	}

	// Free by ownership only. CreateWithSlots stamps booking_id on every
	// slot of the run, anchor included, so this covers the whole booking
	// and cannot touch a slot that has since been handed to someone else.
	freed := []models.Slot{}
	err = tx.SelectContext(ctx, &freed,
		`UPDATE time_slots SET status = $1, booking_id = NULL, updated_at = now()
		 WHERE booking_id = $2
		 RETURNING `+slotColumns,
		models.SlotStatusFree, id)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &cancelled, freed, nil
}

// ConfirmPending moves a pending booking of the given master to confirmed.
// Returns (nil, nil) when the booking does not exist or belongs to another
// master, and ErrNotPending when it exists but is past pending. One guarded
// UPDATE does the transition, so a cancellation committing concurrently can
// never be flipped back to confirmed.
func (r *BookingRepository) ConfirmPending(ctx context.Context, id, masterID int) (*models.Booking, error) {
	var b models.Booking
	err := r.db.QueryRowxContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = now()
		 WHERE id = $2 AND status = $3
		   AND time_slot_id IN (SELECT id FROM time_slots WHERE master_id = $4)
		 RETURNING `+bookingColumns,
		models.BookingStatusConfirmed, id, models.BookingStatusPending, masterID,
	).StructScan(&b)
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// The guard matched nothing; a follow-up read only classifies why.
	var status string
	err = r.db.GetContext(ctx, &status,
		`SELECT b.status FROM bookings b
		 JOIN time_slots s ON s.id = b.time_slot_id
		 WHERE b.id = $1 AND s.master_id = $2`,
		id, masterID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, ErrNotPending
}

// ErrNotPending is returned when a confirmation targets a booking that has
// already moved past the pending state.
var ErrNotPending = errors.New("booking is not pending")

// ErrAlreadyCancelled is returned when the guarded cancellation statement
// matches no row because the booking is already in the terminal cancelled
// state (or does not exist).
var ErrAlreadyCancelled = errors.New("booking is already cancelled")
