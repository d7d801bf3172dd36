package pricing

import (
	"math"

	"github.com/ridebook/ride-booking/internal/domain/trip"
	apperrors "github.com/ridebook/ride-booking/pkg/errors"
)

// Config holds pricing configuration
type Config struct {
	BaseFare  map[trip.RideClass]float64
	PerKMRate map[trip.RideClass]float64
}

// DefaultConfig returns the published PKR tariff
func DefaultConfig() Config {
	return Config{
		BaseFare: map[trip.RideClass]float64{
			trip.RideClassTwoWheeler:   50,
			trip.RideClassCar:          100,
			trip.RideClassThreeWheeler: 40,
		},
		PerKMRate: map[trip.RideClass]float64{
			trip.RideClassTwoWheeler:   15,
			trip.RideClassCar:          25,
			trip.RideClassThreeWheeler: 12,
		},
	}
}

// FareBreakdown represents the breakdown of a fare
type FareBreakdown struct {
	DistanceKM    float64        `json:"distance"`
	RideClass     trip.RideClass `json:"ride_type"`
	BasePrice     float64        `json:"base_price"`
	DistancePrice float64        `json:"distance_price"`
	TotalPrice    float64        `json:"total_price"`
}

// Calculator computes distance-based fares. It is stateless and safe for concurrent use.
type Calculator struct {
	config Config
}

// NewCalculator creates a new fare calculator
func NewCalculator(config Config) *Calculator {
	return &Calculator{config: config}
}

// ComputeFare prices a trip of distanceKM in the given ride class.
// TotalPrice is base + distance * rate rounded to the nearest unit.
func (c *Calculator) ComputeFare(distanceKM float64, rideClass trip.RideClass) (*FareBreakdown, error) {
	if math.IsNaN(distanceKM) || math.IsInf(distanceKM, 0) || distanceKM <= 0 {
		return nil, apperrors.Invalid("Distance must be a positive number")
	}

	base, okBase := c.config.BaseFare[rideClass]
	perKM, okRate := c.config.PerKMRate[rideClass]
	if !rideClass.IsValid() || !okBase || !okRate {
		return nil, apperrors.ErrInvalidRideClass
	}

	distancePrice := distanceKM * perKM

	return &FareBreakdown{
		DistanceKM:    distanceKM,
		RideClass:     rideClass,
		BasePrice:     base,
		DistancePrice: distancePrice,
		TotalPrice:    math.Round(base + distancePrice),
	}, nil
}
