package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"salon-booking/internal/cache"
	"salon-booking/internal/db/models"
	"salon-booking/internal/events"
	"salon-booking/internal/reservation"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Reservations is the coordinator surface the handlers drive.
type Reservations interface {
	CreateBooking(ctx context.Context, in reservation.CreateBookingInput) (*models.Booking, []models.Slot, error)
	CancelBooking(ctx context.Context, id int, reason *string) (*models.Booking, error)
	ToggleSlotBlock(ctx context.Context, masterID, slotID int, reason string) (*models.Slot, error)
}

// MasterStore resolves masters for the read and stream paths.
type MasterStore interface {
	Exists(ctx context.Context, id int) (bool, error)
}

// SlotStore is the slot surface the read and dashboard paths need.
type SlotStore interface {
	FreeSlots(ctx context.Context, masterID int, date string) ([]models.Slot, error)
	WeekSlots(ctx context.Context, masterID int, weekStart, weekEnd string) ([]models.Slot, error)
	GenerateWeek(ctx context.Context, masterID int, weekStart string, dayStartHour, dayEndHour, granularityMin int) error
	GetForMaster(ctx context.Context, id, masterID int) (*models.Slot, error)
}

// ServiceStore resolves services for the schedule pre-filter.
type ServiceStore interface {
	GetByID(ctx context.Context, id int) (*models.Service, error)
}

// BookingStore is the booking surface of the dashboard.
type BookingStore interface {
	GetByID(ctx context.Context, id int) (*models.Booking, error)
	ActiveBySlot(ctx context.Context, slotID int) (*models.Booking, error)
	ConfirmPending(ctx context.Context, id, masterID int) (*models.Booking, error)
}

// ScheduleCache is the read-through cache surface.
type ScheduleCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
}

// EventReader polls the last schedule event of a master.
type EventReader interface {
	Last(ctx context.Context, masterID int) (*events.Event, error)
}

// HandlerConfig tunes the read and dashboard paths.
type HandlerConfig struct {
	StreamPollInterval time.Duration
	DayStartHour       int
	DayEndHour         int
	SlotGranularityMin int
}

// Handler holds dependencies for API handlers.
type Handler struct {
	reservations Reservations
	masters      MasterStore
	slots        SlotStore
	services     ServiceStore
	bookings     BookingStore
	cache        ScheduleCache
	events       EventReader
	cfg          HandlerConfig
}

// NewHandler creates a new Handler with dependencies.
func NewHandler(
	reservations Reservations,
	masters MasterStore,
	slots SlotStore,
	services ServiceStore,
	bookings BookingStore,
	scheduleCache ScheduleCache,
	eventReader EventReader,
	cfg HandlerConfig,
) *Handler {
	if cfg.StreamPollInterval <= 0 {
		cfg.StreamPollInterval = 2 * time.Second
	}
	if cfg.DayStartHour == 0 && cfg.DayEndHour == 0 {
		cfg.DayStartHour, cfg.DayEndHour = 10, 19
	}
	if cfg.SlotGranularityMin <= 0 {
		cfg.SlotGranularityMin = 60
	}
	return &Handler{
		reservations: reservations,
		masters:      masters,
		slots:        slots,
		services:     services,
		bookings:     bookings,
		cache:        scheduleCache,
		events:       eventReader,
		cfg:          cfg,
	}
}

type createBookingRequest struct {
	TimeSlotID  int     `json:"time_slot_id" binding:"required"`
	ServiceID   int     `json:"service_id" binding:"required"`
	ClientName  string  `json:"client_name"`
	ClientPhone string  `json:"client_phone"`
	ClientEmail *string `json:"client_email"`
	Notes       *string `json:"notes"`
}

// CreateBooking reserves a slot run for a client.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "time_slot_id and service_id are required"})
		return
	}

	booking, slots, err := h.reservations.CreateBooking(c.Request.Context(), reservation.CreateBookingInput{
		TimeSlotID:  req.TimeSlotID,
		ServiceID:   req.ServiceID,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		ClientEmail: req.ClientEmail,
		Notes:       req.Notes,
	})
	if err != nil {
		h.renderReservationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"booking": booking, "slots": slots})
}

type cancelBookingRequest struct {
	Reason *string `json:"reason"`
}

// CancelBooking cancels a booking by id and frees its slots.
func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req cancelBookingRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	booking, err := h.reservations.CancelBooking(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.renderReservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ScheduleResponse is the payload of a schedule read; it is also what gets
// cached verbatim.
type ScheduleResponse struct {
	MasterID int           `json:"master_id"`
	Date     string        `json:"date"`
	Slots    []models.Slot `json:"slots"`
	Total    int           `json:"total"`
}

// GetSchedule returns the free slots of a master on a date, read through
// the schedule cache. An optional service_id hides slots that cannot anchor
// a run long enough for that service.
func (h *Handler) GetSchedule(c *gin.Context) {
	masterID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid master ID"})
		return
	}

	ok, err := h.masters.Exists(c.Request.Context(), masterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Master not found"})
		return
	}

	date := c.Query("date")
	if !dateRe.MatchString(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parameter \"date\" is required (format: YYYY-MM-DD)"})
		return
	}

	serviceID, _ := strconv.Atoi(c.Query("service_id"))
	key := cache.Key(masterID, date, serviceID)

	if data, err := h.cache.Get(c.Request.Context(), key); err == nil {
		c.Data(http.StatusOK, "application/json", data)
		return
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("schedule cache get %s: %v", key, err)
	}

	free, err := h.slots.FreeSlots(c.Request.Context(), masterID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if serviceID > 0 && len(free) > 0 {
		svc, err := h.services.GetByID(c.Request.Context(), serviceID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if svc != nil && svc.DurationMin > 0 {
			needed := reservation.SlotsNeeded(svc.DurationMin, free[0].DurationMin())
			free = reservation.RunStarts(free, needed)
		}
	}

	resp := ScheduleResponse{MasterID: masterID, Date: date, Slots: free, Total: len(free)}
	data, err := json.Marshal(resp)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.cache.Set(c.Request.Context(), key, data); err != nil {
		log.Printf("schedule cache set %s: %v", key, err)
	}

	c.Data(http.StatusOK, "application/json", data)
}

func (h *Handler) renderReservationError(c *gin.Context, err error) {
	var verr *reservation.ValidationError
	var perr *reservation.PersistenceError

	switch {
	case errors.Is(err, reservation.ErrServiceNotFound),
		errors.Is(err, reservation.ErrSlotNotFound),
		errors.Is(err, reservation.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, reservation.ErrSlotContended),
		errors.Is(err, reservation.ErrSlotNoLongerAvailable),
		errors.Is(err, reservation.ErrInsufficientAvailability),
		errors.Is(err, reservation.ErrAlreadyCancelled),
		errors.Is(err, reservation.ErrSlotBooked):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": verr.Fields})
	case errors.As(err, &perr):
		log.Printf("reservation persistence error: %v", perr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist booking"})
	default:
		log.Printf("reservation error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
