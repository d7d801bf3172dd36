package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ridebook/ride-booking/internal/api/dto"
	"github.com/ridebook/ride-booking/internal/domain/trip"
)

// ListLocations handles GET /api/locations
func (h *Handlers) ListLocations(c *gin.Context) {
	locations, err := h.Trips.ListLocations(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK("", dto.LocationListResponse{Locations: locations}))
}

// QuoteFare handles GET /api/pricing/quote
func (h *Handlers) QuoteFare(c *gin.Context) {
	var q dto.QuoteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, "fromLocationId and toLocationId must be integers", err)
		return
	}

	quote, err := h.Trips.QuoteFare(c.Request.Context(), q.FromLocationID, q.ToLocationID, trip.RideClass(q.RideType))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK("", dto.QuoteResponse{Quote: quote}))
}
