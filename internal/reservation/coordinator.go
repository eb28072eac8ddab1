package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"salon-booking/internal/db/models"
	"salon-booking/internal/db/repos"
)

// SlotStore is the durable source of truth for slots.
type SlotStore interface {
	GetByID(ctx context.Context, id int) (*models.Slot, error)
	GetForMaster(ctx context.Context, id, masterID int) (*models.Slot, error)
	FreeSlotsFrom(ctx context.Context, masterID int, date, startTime string) ([]models.Slot, error)
	ByBookingID(ctx context.Context, bookingID int) ([]models.Slot, error)
	UpdateBlock(ctx context.Context, id int, status string, reason *string) error
}

// BookingStore persists bookings. The two write methods are transactional:
// booking row and slot statuses move together or not at all.
type BookingStore interface {
	GetByID(ctx context.Context, id int) (*models.Booking, error)
	CreateWithSlots(ctx context.Context, b *models.Booking, slotIDs []int) (*models.Booking, error)
	CancelAndFree(ctx context.Context, id int, reason *string) (*models.Booking, []models.Slot, error)
}

// ServiceStore resolves bookable services.
type ServiceStore interface {
	GetByID(ctx context.Context, id int) (*models.Service, error)
}

// Locker is the distributed lock manager. Acquire is non-blocking: false
// means someone else holds the key. Release must only delete a lock whose
// value still matches token.
type Locker interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

// CacheInvalidator drops derived schedule entries for a master/date.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, masterID int, date string) error
}

// EventPublisher records schedule change events for live viewers.
type EventPublisher interface {
	SlotBooked(ctx context.Context, masterID, slotID int, date string) error
	SlotFreed(ctx context.Context, masterID, slotID int, date string) error
}

// Notifier is the fire-and-forget notification sink.
type Notifier interface {
	BookingConfirmation(ctx context.Context, bookingID int) error
	BookingCancellation(ctx context.Context, bookingID int, reason string) error
}

// SlotLockKey builds the lock key for a slot.
func SlotLockKey(slotID int) string {
	return fmt.Sprintf("lock:slot:%d", slotID)
}

// Deps are the collaborators a Coordinator needs.
type Deps struct {
	Slots    SlotStore
	Bookings BookingStore
	Services ServiceStore
	Locker   Locker
	Cache    CacheInvalidator
	Events   EventPublisher
	Notify   Notifier
	LockTTL  time.Duration
}

// Coordinator drives the reservation protocol: lock acquisition,
// re-validation, the transactional write, lock release and the post-commit
// side effects. The durable store alone decides who wins a contended slot;
// the locks only keep losers from reaching the write.
type Coordinator struct {
	deps Deps
}

// NewCoordinator creates a Coordinator. A zero LockTTL defaults to 10s.
func NewCoordinator(deps Deps) *Coordinator {
	if deps.LockTTL <= 0 {
		deps.LockTTL = 10 * time.Second
	}
	return &Coordinator{deps: deps}
}

// CreateBookingInput is the payload for a reservation attempt.
type CreateBookingInput struct {
	TimeSlotID  int
	ServiceID   int
	ClientName  string
	ClientPhone string
	ClientEmail *string
	Notes       *string
}

// CreateBooking reserves the slot run needed by the service, anchored at the
// requested slot. On success the returned slots are the ones the booking now
// owns.
func (c *Coordinator) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, []models.Slot, error) {
	svc, err := c.deps.Services.GetByID(ctx, in.ServiceID)
	if err != nil {
		return nil, nil, err
	}
	if svc == nil {
		return nil, nil, ErrServiceNotFound
	}

	anchor, err := c.deps.Slots.GetByID(ctx, in.TimeSlotID)
	if err != nil {
		return nil, nil, err
	}
	if anchor == nil {
		return nil, nil, ErrSlotNotFound
	}

	needed := SlotsNeeded(svc.DurationMin, anchor.DurationMin())
	candidates, err := c.deps.Slots.FreeSlotsFrom(ctx, anchor.MasterID, anchor.Date, anchor.StartTime)
	if err != nil {
		return nil, nil, err
	}
	run := ConsecutiveRun(candidates, needed)
	if run == nil || run[0].ID != anchor.ID {
		return nil, nil, ErrInsufficientAvailability
	}

	token := uuid.NewString()
	acquired := []string{}
	defer func() {
		// Locks are released here no matter how the attempt ended; TTL
		// expiry is only the crash fallback.
		for _, key := range acquired {
			if err := c.deps.Locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
				log.Printf("release lock %s: %v", key, err)
			}
		}
	}()

	for _, s := range run {
		key := SlotLockKey(s.ID)
		ok, err := c.deps.Locker.Acquire(ctx, key, token, c.deps.LockTTL)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, ErrSlotContended
		}
		acquired = append(acquired, key)
	}

	// The lock does not carry state: re-read every slot to close the window
	// between the candidate query and lock acquisition.
	for _, s := range run {
		fresh, err := c.deps.Slots.GetByID(ctx, s.ID)
		if err != nil {
			return nil, nil, err
		}
		if fresh == nil || !fresh.IsFree() {
			return nil, nil, ErrSlotNoLongerAvailable
		}
	}

	if verr := validateClient(in); verr != nil {
		return nil, nil, verr
	}

	booking := &models.Booking{
		TimeSlotID:  anchor.ID,
		ServiceID:   svc.ID,
		ClientName:  strings.TrimSpace(in.ClientName),
		ClientPhone: strings.TrimSpace(in.ClientPhone),
		ClientEmail: in.ClientEmail,
		Notes:       in.Notes,
	}
	slotIDs := make([]int, len(run))
	for i, s := range run {
		slotIDs[i] = s.ID
	}

	created, err := c.deps.Bookings.CreateWithSlots(ctx, booking, slotIDs)
	if err != nil {
		return nil, nil, &PersistenceError{Err: err}
	}

	c.afterCommit(ctx, run, true)
	if err := c.deps.Notify.BookingConfirmation(context.WithoutCancel(ctx), created.ID); err != nil {
		log.Printf("enqueue confirmation for booking %d: %v", created.ID, err)
	}

	return created, run, nil
}

// CancelBooking transitions a booking to cancelled and frees its slots.
// Cancelling an already-cancelled booking is an error, not a silent success.
// The pre-read only distinguishes not-found from already-cancelled; the
// store's guarded write decides, so a cancel racing this one loses there.
func (c *Coordinator) CancelBooking(ctx context.Context, id int, reason *string) (*models.Booking, error) {
	b, err := c.deps.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	if b.Status == models.BookingStatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	cancelled, freed, err := c.deps.Bookings.CancelAndFree(ctx, id, reason)
	if errors.Is(err, repos.ErrAlreadyCancelled) {
		return nil, ErrAlreadyCancelled
	}
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	c.afterCommit(ctx, freed, false)
	why := ""
	if reason != nil {
		why = *reason
	}
	if err := c.deps.Notify.BookingCancellation(context.WithoutCancel(ctx), cancelled.ID, why); err != nil {
		log.Printf("enqueue cancellation for booking %d: %v", cancelled.ID, err)
	}

	return cancelled, nil
}

// ToggleSlotBlock flips a slot of the given master between free and blocked.
// Owner maintenance does not contend with clients, so no locks are taken,
// but the schedule cache still has to be dropped.
func (c *Coordinator) ToggleSlotBlock(ctx context.Context, masterID, slotID int, reason string) (*models.Slot, error) {
	slot, err := c.deps.Slots.GetForMaster(ctx, slotID, masterID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	if slot.Status == models.SlotStatusBooked {
		return nil, ErrSlotBooked
	}

	if slot.Status == models.SlotStatusFree {
		slot.Status = models.SlotStatusBlocked
		slot.BlockReason = nil
		if reason == models.BlockReasonLunch || reason == models.BlockReasonBreak {
			slot.BlockReason = &reason
		}
	} else {
		slot.Status = models.SlotStatusFree
		slot.BlockReason = nil
	}

	if err := c.deps.Slots.UpdateBlock(ctx, slot.ID, slot.Status, slot.BlockReason); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	if err := c.deps.Cache.Invalidate(context.WithoutCancel(ctx), slot.MasterID, slot.Date); err != nil {
		log.Printf("invalidate schedule cache %d/%s: %v", slot.MasterID, slot.Date, err)
	}

	return slot, nil
}

// afterCommit runs the best-effort post-commit effects: cache invalidation
// for every touched master/date, then one event per slot. Failures are
// logged and swallowed; the durable write already happened.
func (c *Coordinator) afterCommit(ctx context.Context, slots []models.Slot, booked bool) {
	ctx = context.WithoutCancel(ctx)

	seen := map[string]struct{}{}
	for _, s := range slots {
		key := fmt.Sprintf("%d/%s", s.MasterID, s.Date)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if err := c.deps.Cache.Invalidate(ctx, s.MasterID, s.Date); err != nil {
			log.Printf("invalidate schedule cache %s: %v", key, err)
		}
	}

	for _, s := range slots {
		var err error
		if booked {
			err = c.deps.Events.SlotBooked(ctx, s.MasterID, s.ID, s.Date)
		} else {
			err = c.deps.Events.SlotFreed(ctx, s.MasterID, s.ID, s.Date)
		}
		if err != nil {
			log.Printf("publish schedule event for slot %d: %v", s.ID, err)
		}
	}
}

func validateClient(in CreateBookingInput) *ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(in.ClientName) == "" {
		fields["client_name"] = "is required"
	}
	phone := strings.TrimSpace(in.ClientPhone)
	if phone == "" {
		fields["client_phone"] = "is required"
	} else if len(phone) > 20 {
		fields["client_phone"] = "must be at most 20 characters"
	}
	if in.ClientEmail != nil && *in.ClientEmail != "" {
		if _, err := mail.ParseAddress(*in.ClientEmail); err != nil {
			fields["client_email"] = "is not a valid email address"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
