package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salon-booking/internal/db/models"
	"salon-booking/internal/reservation"
)

// withMaster stands in for RequireMaster: the middleware itself is covered
// by the auth tests.
func withMaster(id int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxMasterID, id)
		c.Next()
	}
}

func newDashboardFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := newHandlerFixture(t)
	dash := f.router.Group("/dashboard", withMaster(1))
	dash.GET("/schedule", f.handler.WeekSchedule)
	dash.POST("/slots/toggle", f.handler.ToggleSlot)
	dash.GET("/bookings/detail", f.handler.BookingDetail)
	dash.POST("/bookings/confirm", f.handler.ConfirmBooking)
	dash.POST("/bookings/cancel", f.handler.MasterCancelBooking)
	return f
}

func TestWeekSchedule(t *testing.T) {
	t.Run("existing week is returned as is", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.slots.week = []models.Slot{
			{ID: 1, MasterID: 1, Date: "2026-03-02", StartTime: "10:00:00", EndTime: "11:00:00", Status: models.SlotStatusFree},
		}

		w := f.do(http.MethodGet, "/dashboard/schedule?week_start=2026-03-02", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"week_start":"2026-03-02"`)
		assert.Contains(t, w.Body.String(), `"week_end":"2026-03-08"`)
		assert.Equal(t, 0, f.slots.generateCalls)
	})

	t.Run("empty week is materialized once", func(t *testing.T) {
		f := newDashboardFixture(t)

		w := f.do(http.MethodGet, "/dashboard/schedule?week_start=2026-03-02", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, f.slots.generateCalls)
		assert.Contains(t, w.Body.String(), `"id":100`)
	})
}

func TestToggleSlot(t *testing.T) {
	t.Run("toggled", func(t *testing.T) {
		f := newDashboardFixture(t)
		reason := models.BlockReasonLunch
		f.res.On("ToggleSlotBlock", mock.Anything, 1, 5, models.BlockReasonLunch).
			Return(&models.Slot{ID: 5, MasterID: 1, Status: models.SlotStatusBlocked, BlockReason: &reason}, nil)

		w := f.do(http.MethodPost, "/dashboard/slots/toggle", gin.H{"slot_id": 5, "reason": "lunch"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"blocked"`)
		assert.Contains(t, w.Body.String(), `"block_reason":"lunch"`)
		f.res.AssertExpectations(t)
	})

	t.Run("slot_id is required", func(t *testing.T) {
		f := newDashboardFixture(t)
		w := f.do(http.MethodPost, "/dashboard/slots/toggle", gin.H{"reason": "lunch"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("booked slot", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.res.On("ToggleSlotBlock", mock.Anything, 1, 5, "").
			Return(nil, reservation.ErrSlotBooked)
		w := f.do(http.MethodPost, "/dashboard/slots/toggle", gin.H{"slot_id": 5})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBookingDetail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.slots.byID[5] = models.Slot{ID: 5, MasterID: 1, Status: models.SlotStatusBooked}
		f.bookings.bookings[7] = models.Booking{ID: 7, TimeSlotID: 5, Status: models.BookingStatusPending}
		f.bookings.activeSlot[5] = 7

		w := f.do(http.MethodGet, "/dashboard/bookings/detail?slot_id=5", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"booking"`)
		assert.Contains(t, w.Body.String(), `"slot"`)
	})

	t.Run("slot of another master", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.slots.byID[5] = models.Slot{ID: 5, MasterID: 2, Status: models.SlotStatusBooked}

		w := f.do(http.MethodGet, "/dashboard/bookings/detail?slot_id=5", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("no active booking on the slot", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.slots.byID[5] = models.Slot{ID: 5, MasterID: 1, Status: models.SlotStatusFree}

		w := f.do(http.MethodGet, "/dashboard/bookings/detail?slot_id=5", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("slot_id is required", func(t *testing.T) {
		f := newDashboardFixture(t)
		w := f.do(http.MethodGet, "/dashboard/bookings/detail", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestConfirmBooking(t *testing.T) {
	t.Run("pending becomes confirmed", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.bookings.bookings[7] = models.Booking{ID: 7, Status: models.BookingStatusPending}

		w := f.do(http.MethodPost, "/dashboard/bookings/confirm", gin.H{"booking_id": 7})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"confirmed"`)
	})

	t.Run("only pending can be confirmed", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.bookings.bookings[7] = models.Booking{ID: 7, Status: models.BookingStatusCancelled}

		w := f.do(http.MethodPost, "/dashboard/bookings/confirm", gin.H{"booking_id": 7})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newDashboardFixture(t)
		w := f.do(http.MethodPost, "/dashboard/bookings/confirm", gin.H{"booking_id": 404})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMasterCancelBooking(t *testing.T) {
	t.Run("cancels with default reason", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.bookings.bookings[7] = models.Booking{ID: 7, TimeSlotID: 5, Status: models.BookingStatusConfirmed}
		f.slots.byID[5] = models.Slot{ID: 5, MasterID: 1, Status: models.SlotStatusBooked}

		f.res.On("CancelBooking", mock.Anything, 7, mock.MatchedBy(func(r *string) bool {
			return r != nil && *r == "Cancelled by master"
		})).Return(&models.Booking{ID: 7, Status: models.BookingStatusCancelled}, nil)

		w := f.do(http.MethodPost, "/dashboard/bookings/cancel", gin.H{"booking_id": 7})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"cancelled"`)
		f.res.AssertExpectations(t)
	})

	t.Run("booking on a foreign slot is invisible", func(t *testing.T) {
		f := newDashboardFixture(t)
		f.bookings.bookings[7] = models.Booking{ID: 7, TimeSlotID: 5, Status: models.BookingStatusConfirmed}
		f.slots.byID[5] = models.Slot{ID: 5, MasterID: 2, Status: models.SlotStatusBooked}

		w := f.do(http.MethodPost, "/dashboard/bookings/cancel", gin.H{"booking_id": 7})
		assert.Equal(t, http.StatusNotFound, w.Code)
		f.res.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newDashboardFixture(t)
		w := f.do(http.MethodPost, "/dashboard/bookings/cancel", gin.H{"booking_id": 404})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
