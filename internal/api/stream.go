package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// StreamSchedule is the long-lived schedule event stream for a master. It
// polls the last-event record on a ticker, forwards events the client has
// not seen yet, and writes a heartbeat comment every tick to keep
// intermediaries from closing the connection. The loop ends when the client
// disconnects; there is no server-side disconnect policy.
func (h *Handler) StreamSchedule(c *gin.Context) {
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

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	ticker := time.NewTicker(h.cfg.StreamPollInterval)
	defer ticker.Stop()

	var lastSeen int64
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}

		ev, err := h.events.Last(ctx, masterID)
		if err == nil && ev != nil && ev.EventID > lastSeen {
			lastSeen = ev.EventID
			if data, merr := json.Marshal(ev); merr == nil {
				fmt.Fprintf(w, "id: %d\nevent: schedule_update\ndata: %s\n\n", ev.EventID, data)
			}
		}

		fmt.Fprint(w, ": heartbeat\n\n")
		return true
	})
}
