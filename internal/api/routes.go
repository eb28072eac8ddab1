package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"salon-booking/internal/ratelimit"
)

// RateLimits are the per-route admission budgets.
type RateLimits struct {
	CreatePerWindow int
	CancelPerWindow int
	Window          time.Duration
}

// SetupRoutes registers the public booking/schedule surface and the
// owner-only dashboard.
func SetupRoutes(r *gin.Engine, h *Handler, limiter *ratelimit.Limiter, limits RateLimits, jwtSecret string) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/bookings",
			ratelimit.Middleware(limiter, limits.CreatePerWindow, limits.Window),
			h.CreateBooking)
		v1.PATCH("/bookings/:id/cancel",
			ratelimit.Middleware(limiter, limits.CancelPerWindow, limits.Window),
			h.CancelBooking)

		v1.GET("/masters/:id/schedule", h.GetSchedule)
		v1.GET("/masters/:id/schedule/stream", h.StreamSchedule)
	}

	dash := v1.Group("/dashboard")
	dash.Use(RequireMaster(jwtSecret))
	{
		dash.GET("/schedule", h.WeekSchedule)
		dash.POST("/slots/toggle", h.ToggleSlot)
		dash.GET("/bookings/detail", h.BookingDetail)
		dash.POST("/bookings/confirm", h.ConfirmBooking)
		dash.POST("/bookings/cancel", h.MasterCancelBooking)
	}
}
