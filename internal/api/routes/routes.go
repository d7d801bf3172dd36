package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/ridebook/ride-booking/internal/api/handlers"
	"github.com/ridebook/ride-booking/internal/api/middleware"
	"github.com/ridebook/ride-booking/internal/domain/trip"
)

// Options carries the cross-cutting pieces the router is assembled from
type Options struct {
	JWTSecret []byte
	// NewRelic is nil when monitoring is disabled
	NewRelic *newrelic.Application
	// BookingLimiter and GeneralLimiter are nil when rate limiting is disabled
	BookingLimiter *middleware.RateLimiter
	GeneralLimiter *middleware.RateLimiter
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, opts Options) {
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(h.Logger))

	// Add New Relic middleware if enabled
	if opts.NewRelic != nil {
		r.Use(nrgin.Middleware(opts.NewRelic))
	}

	// Health check
	r.GET("/health", h.Health)
	r.NoRoute(h.NotFound)

	api := r.Group("/api")
	if opts.GeneralLimiter != nil {
		api.Use(opts.GeneralLimiter.Middleware())
	}
	{
		api.GET("/locations", h.ListLocations)
		api.GET("/pricing/quote", h.QuoteFare)
	}

	auth := middleware.Auth(opts.JWTSecret)
	passengerOnly := middleware.RequireRole(trip.RolePassenger)
	driverOnly := middleware.RequireRole(trip.RoleDriver)

	// WebSocket connection
	api.GET("/ws", auth, h.HandleWebSocket)

	trips := api.Group("/trips", auth)
	{
		book := []gin.HandlerFunc{passengerOnly}
		if opts.BookingLimiter != nil {
			book = append(book, opts.BookingLimiter.Middleware())
		}
		book = append(book, h.BookTrip)
		trips.POST("/book", book...)

		trips.GET("/user", passengerOnly, h.ListPassengerTrips)
		trips.GET("/driver", driverOnly, h.ListDriverTrips)
		trips.GET("/pending", driverOnly, h.ListPending)
		trips.GET("/active", h.ListActive)
		trips.GET("/:tripId", h.GetTrip)
		trips.PUT("/:tripId/accept", driverOnly, h.AcceptTrip)
		trips.PUT("/:tripId/status", h.UpdateStatus)
	}
}
