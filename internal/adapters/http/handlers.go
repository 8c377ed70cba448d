package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ovrsee/spyglass/internal/app"
	"github.com/ovrsee/spyglass/internal/domain"
)

// listDevices exposes the live room snapshot: which devices currently
// have viewers and when their room last saw traffic.
func listDevices(dispatcher *app.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"devices": dispatcher.Rooms.Rooms()})
	}
}

// postLocation is the entry point the persistence collaborator calls
// after it has durably stored a location record. The relay fans the
// event out to the device's current viewers and nothing more.
func postLocation(dispatcher *app.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ev domain.LocationEvent
		if err := c.ShouldBindJSON(&ev); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		if ev.Timestamp.IsZero() {
			ev.Timestamp = time.Now()
		}
		if err := dispatcher.Location(ev); err != nil {
			if errors.Is(err, app.ErrMalformedPayload) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location event"})
				return
			}
			log.Error().Err(err).Str("module", "adapters.http").Msg("location forward failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
