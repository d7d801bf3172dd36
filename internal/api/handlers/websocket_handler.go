package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ridebook/ride-booking/internal/api/dto"
	"github.com/ridebook/ride-booking/internal/api/middleware"
	"github.com/ridebook/ride-booking/pkg/logger"
	"github.com/ridebook/ride-booking/pkg/websocket"
)

// HandleWebSocket handles GET /api/ws
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	if h.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, dto.Fail("REALTIME_DISABLED", "Real-time updates are disabled"))
		return
	}

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn("Failed to upgrade to WebSocket", logger.Err(err))
		return
	}

	client := websocket.NewClient(h.Hub, conn, middleware.CallerID(c), string(middleware.CallerRole(c)), h.Logger)
	h.Hub.Register(client)

	// the pumps outlive this request
	ctx := context.WithoutCancel(c.Request.Context())
	go client.WritePump()
	go client.ReadPump(ctx)
}

// CanSubscribe lets only the trip's passenger or driver follow its events
func (h *Handlers) CanSubscribe(ctx context.Context, userID, tripID string) bool {
	_, err := h.Trips.GetTrip(ctx, tripID, userID)
	return err == nil
}
