package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ridebook/ride-booking/internal/api/dto"
	"github.com/ridebook/ride-booking/internal/api/middleware"
	"github.com/ridebook/ride-booking/internal/domain/trip"
	"github.com/ridebook/ride-booking/pkg/cache"
	apperrors "github.com/ridebook/ride-booking/pkg/errors"
	"github.com/ridebook/ride-booking/pkg/logger"
)

const (
	// IdempotencyHeader lets clients retry a booking without creating a second trip
	IdempotencyHeader = "Idempotency-Key"
	// ReplayedHeader marks a response served from the idempotency store
	ReplayedHeader = "Idempotent-Replayed"
)

// BookTrip handles POST /api/trips/book
func (h *Handlers) BookTrip(c *gin.Context) {
	ctx := c.Request.Context()
	passengerID := middleware.CallerID(c)

	var req dto.BookTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	// keys are scoped per passenger
	idempotencyKey := c.GetHeader(IdempotencyHeader)
	cacheKey := "booking:" + passengerID + ":" + idempotencyKey
	guarded := false
	if idempotencyKey != "" && h.Idempotency != nil {
		if h.replay(c, cacheKey) {
			return
		}
		reserved, err := h.Idempotency.Reserve(ctx, cacheKey, h.IdempotencyTTL)
		switch {
		case err != nil:
			h.Logger.Warn("Idempotency reservation failed", logger.Err(err))
		case !reserved:
			// the first request may have finished since the lookup
			if h.replay(c, cacheKey) {
				return
			}
			h.respondError(c, apperrors.ErrRequestInFlight)
			return
		default:
			guarded = true
		}
	}

	t, err := h.Trips.BookTrip(ctx, passengerID, req.FromLocationID, req.ToLocationID, trip.RideClass(req.RideType))
	if err != nil {
		h.releaseKey(ctx, cacheKey, guarded)
		h.respondError(c, err)
		return
	}

	body, err := json.Marshal(dto.OK("Trip booked", dto.TripResponse{Trip: t}))
	if err != nil {
		h.releaseKey(ctx, cacheKey, guarded)
		h.respondError(c, err)
		return
	}

	if guarded {
		resp := cache.StoredResponse{Status: http.StatusCreated, Body: body}
		if err := h.Idempotency.Save(ctx, cacheKey, resp, h.IdempotencyTTL); err != nil {
			h.Logger.Warn("Failed to cache booking response", logger.TripID(t.ID), logger.Err(err))
		}
	}

	c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
}

// replay writes the stored response for key, reporting whether there was one
func (h *Handlers) replay(c *gin.Context, key string) bool {
	stored, ok, err := h.Idempotency.Load(c.Request.Context(), key)
	if err != nil {
		h.Logger.Warn("Idempotency lookup failed", logger.Err(err))
		return false
	}
	if !ok {
		return false
	}
	h.Logger.Info("Returning cached booking response", logger.String("idempotency_key", key))
	c.Header(ReplayedHeader, "true")
	c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
	return true
}

// releaseKey frees a reservation after a failed booking so the client can retry
func (h *Handlers) releaseKey(ctx context.Context, key string, guarded bool) {
	if !guarded {
		return
	}
	if err := h.Idempotency.Release(ctx, key); err != nil {
		h.Logger.Warn("Failed to release idempotency key", logger.String("idempotency_key", key), logger.Err(err))
	}
}

// ListPassengerTrips handles GET /api/trips/user
func (h *Handlers) ListPassengerTrips(c *gin.Context) {
	h.listTrips(c, trip.RolePassenger)
}

// ListDriverTrips handles GET /api/trips/driver
func (h *Handlers) ListDriverTrips(c *gin.Context) {
	h.listTrips(c, trip.RoleDriver)
}

func (h *Handlers) listTrips(c *gin.Context, role trip.Role) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, "limit must be an integer", err)
		return
	}

	list, err := h.Trips.ListTrips(c.Request.Context(), middleware.CallerID(c), role, q.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK("", dto.NewTripList(list)))
}

// ListPending handles GET /api/trips/pending
func (h *Handlers) ListPending(c *gin.Context) {
	list, err := h.Trips.ListPending(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK("", dto.NewTripList(list)))
}

// ListActive handles GET /api/trips/active
func (h *Handlers) ListActive(c *gin.Context) {
	list, err := h.Trips.ListActive(c.Request.Context(), middleware.CallerID(c), middleware.CallerRole(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK("", dto.NewTripList(list)))
}

// GetTrip handles GET /api/trips/:tripId
func (h *Handlers) GetTrip(c *gin.Context) {
	t, err := h.Trips.GetTrip(c.Request.Context(), c.Param("tripId"), middleware.CallerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK("", dto.TripResponse{Trip: t}))
}

// AcceptTrip handles PUT /api/trips/:tripId/accept
func (h *Handlers) AcceptTrip(c *gin.Context) {
	t, err := h.Trips.AcceptTrip(c.Request.Context(), c.Param("tripId"), middleware.CallerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK("Trip accepted", dto.TripResponse{Trip: t}))
}

// UpdateStatus handles PUT /api/trips/:tripId/status
func (h *Handlers) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	t, err := h.Trips.UpdateStatus(c.Request.Context(), c.Param("tripId"), middleware.CallerID(c), trip.Status(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK("Trip status updated", dto.TripResponse{Trip: t}))
}
