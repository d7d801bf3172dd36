package dto

import (
	"github.com/ridebook/ride-booking/internal/domain/location"
	"github.com/ridebook/ride-booking/internal/domain/trip"
	"github.com/ridebook/ride-booking/internal/service/pricing"
)

// BookTripRequest represents a passenger booking a trip
type BookTripRequest struct {
	FromLocationID int    `json:"from_location_id"`
	ToLocationID   int    `json:"to_location_id"`
	RideType       string `json:"ride_type"`
}

// UpdateStatusRequest represents a lifecycle transition requested by a trip party
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// QuoteQuery is the query string of a fare quote
type QuoteQuery struct {
	FromLocationID int    `form:"fromLocationId"`
	ToLocationID   int    `form:"toLocationId"`
	RideType       string `form:"rideType"`
}

// ListQuery is the query string of trip listings
type ListQuery struct {
	Limit int `form:"limit"`
}

// TripResponse wraps one trip
type TripResponse struct {
	Trip *trip.Trip `json:"trip"`
}

// TripListResponse wraps a list of trips
type TripListResponse struct {
	Trips []*trip.Trip `json:"trips"`
	Count int          `json:"count"`
}

// LocationListResponse wraps the location catalog
type LocationListResponse struct {
	Locations []*location.Location `json:"locations"`
}

// QuoteResponse wraps a fare breakdown
type QuoteResponse struct {
	Quote *pricing.FareBreakdown `json:"quote"`
}

// NewTripList builds a list response, never encoding a null list
func NewTripList(trips []*trip.Trip) TripListResponse {
	if trips == nil {
		trips = []*trip.Trip{}
	}
	return TripListResponse{Trips: trips, Count: len(trips)}
}
