package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"github.com/ridebook/ride-booking/internal/api/dto"
	"github.com/ridebook/ride-booking/internal/service/trips"
	"github.com/ridebook/ride-booking/pkg/cache"
	apperrors "github.com/ridebook/ride-booking/pkg/errors"
	"github.com/ridebook/ride-booking/pkg/logger"
	"github.com/ridebook/ride-booking/pkg/websocket"
)

// Handlers holds all handler dependencies
type Handlers struct {
	Trips          *trips.Service
	Idempotency    cache.ResponseStore
	IdempotencyTTL time.Duration
	Hub            *websocket.Hub
	Upgrader       gorilla.Upgrader
	Logger         *logger.Logger
}

// NewHandlers creates a new Handlers instance. hub may be nil when realtime
// updates are disabled.
func NewHandlers(svc *trips.Service, store cache.ResponseStore, ttl time.Duration, hub *websocket.Hub, log *logger.Logger) *Handlers {
	return &Handlers{
		Trips:          svc,
		Idempotency:    store,
		IdempotencyTTL: ttl,
		Hub:            hub,
		Upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		Logger: log,
	}
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// NotFound handles requests to unknown routes
func (h *Handlers) NotFound(c *gin.Context) {
	h.respondError(c, apperrors.NotFound("Route not found", nil))
}

// respondError writes the error envelope for err
func (h *Handlers) respondError(c *gin.Context, err error) {
	status, body := dto.FromError(err)
	if status >= http.StatusInternalServerError || !apperrors.IsAppError(err) {
		h.Logger.Error("Request failed",
			logger.String("path", c.FullPath()),
			logger.Int("status", status),
			logger.Err(err),
		)
	}
	c.JSON(status, body)
}

// badRequest reports a payload or query string that could not be decoded
func (h *Handlers) badRequest(c *gin.Context, message string, err error) {
	h.respondError(c, apperrors.BadRequest(message, err))
}
