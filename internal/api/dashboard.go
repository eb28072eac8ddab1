package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"salon-booking/internal/db/repos"
)

// WeekSchedule returns every slot of the authenticated master for a week,
// materializing the week's grid on first access.
func (h *Handler) WeekSchedule(c *gin.Context) {
	masterID := c.GetInt(ctxMasterID)

	weekStart := c.Query("week_start")
	if !dateRe.MatchString(weekStart) {
		weekStart = mondayOfCurrentWeek()
	}
	start, err := time.Parse("2006-01-02", weekStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid week_start"})
		return
	}
	weekEnd := start.AddDate(0, 0, 6).Format("2006-01-02")

	slots, err := h.slots.WeekSlots(c.Request.Context(), masterID, weekStart, weekEnd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(slots) == 0 {
		err = h.slots.GenerateWeek(c.Request.Context(), masterID, weekStart,
			h.cfg.DayStartHour, h.cfg.DayEndHour, h.cfg.SlotGranularityMin)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		slots, err = h.slots.WeekSlots(c.Request.Context(), masterID, weekStart, weekEnd)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"week_start": weekStart,
		"week_end":   weekEnd,
		"slots":      slots,
	})
}

type toggleSlotRequest struct {
	SlotID int    `json:"slot_id" binding:"required"`
	Reason string `json:"reason"`
}

// ToggleSlot blocks or unblocks a slot of the authenticated master.
func (h *Handler) ToggleSlot(c *gin.Context) {
	masterID := c.GetInt(ctxMasterID)

	var req toggleSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parameter \"slot_id\" is required"})
		return
	}

	slot, err := h.reservations.ToggleSlotBlock(c.Request.Context(), masterID, req.SlotID, req.Reason)
	if err != nil {
		h.renderReservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           slot.ID,
		"status":       slot.Status,
		"block_reason": slot.BlockReason,
	})
}

// BookingDetail returns the active booking occupying a slot of the
// authenticated master.
func (h *Handler) BookingDetail(c *gin.Context) {
	masterID := c.GetInt(ctxMasterID)

	slotID, err := strconv.Atoi(c.Query("slot_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parameter \"slot_id\" is required"})
		return
	}

	slot, err := h.slots.GetForMaster(c.Request.Context(), slotID, masterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if slot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Time slot not found"})
		return
	}

	booking, err := h.bookings.ActiveBySlot(c.Request.Context(), slotID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if booking == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found for this slot"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking, "slot": slot})
}

type confirmBookingRequest struct {
	BookingID int `json:"booking_id" binding:"required"`
}

// ConfirmBooking moves a pending booking of the authenticated master to
// confirmed.
func (h *Handler) ConfirmBooking(c *gin.Context) {
	masterID := c.GetInt(ctxMasterID)

	var req confirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parameter \"booking_id\" is required"})
		return
	}

	booking, err := h.bookings.ConfirmPending(c.Request.Context(), req.BookingID, masterID)
	if errors.Is(err, repos.ErrNotPending) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only pending bookings can be confirmed"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if booking == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": booking.ID, "status": booking.Status})
}

type masterCancelRequest struct {
	BookingID int     `json:"booking_id" binding:"required"`
	Reason    *string `json:"reason"`
}

// MasterCancelBooking cancels a booking on behalf of the master who owns
// its slot. It runs the same cancellation path clients use.
func (h *Handler) MasterCancelBooking(c *gin.Context) {
	masterID := c.GetInt(ctxMasterID)

	var req masterCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parameter \"booking_id\" is required"})
		return
	}

	booking, err := h.bookings.GetByID(c.Request.Context(), req.BookingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if booking == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}
	slot, err := h.slots.GetForMaster(c.Request.Context(), booking.TimeSlotID, masterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if slot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	reason := req.Reason
	if reason == nil {
		def := "Cancelled by master"
		reason = &def
	}

	cancelled, err := h.reservations.CancelBooking(c.Request.Context(), req.BookingID, reason)
	if err != nil {
		h.renderReservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": cancelled.ID, "status": cancelled.Status})
}

func mondayOfCurrentWeek() string {
	now := time.Now()
	offset := (int(now.Weekday()) + 6) % 7
	return now.AddDate(0, 0, -offset).Format("2006-01-02")
}
