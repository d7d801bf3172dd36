package trips

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ridebook/ride-booking/internal/domain/location"
	"github.com/ridebook/ride-booking/internal/domain/trip"
	"github.com/ridebook/ride-booking/internal/service/pricing"
	apperrors "github.com/ridebook/ride-booking/pkg/errors"
	"github.com/ridebook/ride-booking/pkg/logger"
)

// Notifier is told about every committed trip change. Implementations must not block.
type Notifier interface {
	TripBooked(ctx context.Context, t *trip.Trip)
	TripAccepted(ctx context.Context, t *trip.Trip)
	// TripStatusChanged receives the updated trip and the trip as it was before
	TripStatusChanged(ctx context.Context, t, previous *trip.Trip)
}

type nopNotifier struct{}

func (nopNotifier) TripBooked(context.Context, *trip.Trip)                    {}
func (nopNotifier) TripAccepted(context.Context, *trip.Trip)                  {}
func (nopNotifier) TripStatusChanged(context.Context, *trip.Trip, *trip.Trip) {}

// Service handles booking and the trip lifecycle
type Service struct {
	trips     trip.Repository
	locations location.Store
	pricing   *pricing.Calculator
	notifier  Notifier
	logger    *logger.Logger
	now       func() time.Time
	newID     func() string
}

// Option customises a Service
type Option func(*Service)

// WithNotifier sets the receiver of trip events
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides trip id generation
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a new trip service
func NewService(trips trip.Repository, locations location.Store, calc *pricing.Calculator, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		trips:     trips,
		locations: locations,
		pricing:   calc,
		notifier:  nopNotifier{},
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QuoteFare prices a prospective trip between two catalog locations
func (s *Service) QuoteFare(ctx context.Context, fromID, toID int, rideClass trip.RideClass) (*pricing.FareBreakdown, error) {
	if fromID == toID {
		return nil, apperrors.ErrSameLocation
	}
	if !rideClass.IsValid() {
		return nil, apperrors.ErrInvalidRideClass
	}

	from, err := s.locations.Get(ctx, fromID)
	if err != nil {
		return nil, err
	}
	if _, err := s.locations.Get(ctx, toID); err != nil {
		return nil, err
	}

	distance, err := location.Distance(from, toID)
	if err != nil {
		return nil, err
	}

	return s.pricing.ComputeFare(distance, rideClass)
}

// BookTrip creates a pending trip for the passenger, priced from the catalog distance
func (s *Service) BookTrip(ctx context.Context, passengerID string, fromID, toID int, rideClass trip.RideClass) (*trip.Trip, error) {
	if passengerID == "" {
		return nil, apperrors.Invalid("Passenger is required")
	}

	fare, err := s.QuoteFare(ctx, fromID, toID, rideClass)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t := &trip.Trip{
		ID:             s.newID(),
		PassengerID:    passengerID,
		FromLocationID: fromID,
		ToLocationID:   toID,
		RideClass:      rideClass,
		DistanceKM:     fare.DistanceKM,
		Fare:           fare.TotalPrice,
		Status:         trip.StatusPending,
		BookingTime:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.trips.Create(ctx, t); err != nil {
		s.logger.Error("Failed to store trip", logger.ActorID(passengerID), logger.Err(err))
		return nil, err
	}

	s.logger.Info("Trip booked",
		logger.TripID(t.ID),
		logger.ActorID(passengerID),
		logger.Int("from_location_id", fromID),
		logger.Int("to_location_id", toID),
		logger.String("ride_type", string(rideClass)),
		logger.Float64("fare", t.Fare),
	)
	s.notifier.TripBooked(ctx, t)

	return t, nil
}

// ListTrips returns the actor's trips newest first: booked trips for a
// passenger, assigned trips for a driver. A positive limit caps the result.
func (s *Service) ListTrips(ctx context.Context, actorID string, role trip.Role, limit int) ([]*trip.Trip, error) {
	if limit < 0 {
		return nil, apperrors.Invalid("Limit must not be negative")
	}

	filter, err := scopeFilter(actorID, role)
	if err != nil {
		return nil, err
	}
	filter.Limit = limit

	return s.trips.List(ctx, filter)
}

// ListPending returns every trip still waiting for a driver, newest first
func (s *Service) ListPending(ctx context.Context) ([]*trip.Trip, error) {
	return s.trips.List(ctx, trip.Filter{Statuses: []trip.Status{trip.StatusPending}})
}

// ListActive returns the actor's accepted and in-progress trips
func (s *Service) ListActive(ctx context.Context, actorID string, role trip.Role) ([]*trip.Trip, error) {
	filter, err := scopeFilter(actorID, role)
	if err != nil {
		return nil, err
	}
	filter.Statuses = trip.ActiveStatuses

	return s.trips.List(ctx, filter)
}

// GetTrip returns a trip visible to its passenger or driver
func (s *Service) GetTrip(ctx context.Context, tripID, actorID string) (*trip.Trip, error) {
	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !t.IsParty(actorID) {
		return nil, apperrors.ErrUnauthorized
	}
	return t, nil
}

// AcceptTrip assigns the driver to a pending trip. When several drivers race
// for the same trip exactly one wins; the rest get ErrTripNotPending.
func (s *Service) AcceptTrip(ctx context.Context, tripID, driverID string) (*trip.Trip, error) {
	if driverID == "" {
		return nil, apperrors.Invalid("Driver is required")
	}

	t, err := s.trips.AssignDriver(ctx, tripID, driverID, s.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrStorage) {
			s.logger.Error("Failed to accept trip", logger.TripID(tripID), logger.Err(err))
		} else {
			s.logger.Debug("Trip not accepted", logger.TripID(tripID), logger.ActorID(driverID), logger.Err(err))
		}
		return nil, err
	}

	s.logger.Info("Trip accepted", logger.TripID(t.ID), logger.ActorID(driverID))
	s.notifier.TripAccepted(ctx, t)

	return t, nil
}

// UpdateStatus moves a trip along the state machine on behalf of its passenger or driver.
// Acceptance is not reachable here; it goes through AcceptTrip.
func (s *Service) UpdateStatus(ctx context.Context, tripID, actorID string, to trip.Status) (*trip.Trip, error) {
	current, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !current.IsParty(actorID) {
		return nil, apperrors.ErrUnauthorized
	}
	if to == trip.StatusAccepted || !trip.CanTransition(current.Status, to) {
		return nil, apperrors.ErrInvalidTransition
	}

	updated, err := s.trips.TransitionStatus(ctx, tripID, current.Status, to, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("Trip status updated",
		logger.TripID(tripID),
		logger.ActorID(actorID),
		logger.Status("from", string(current.Status)),
		logger.Status("to", string(to)),
	)
	s.notifier.TripStatusChanged(ctx, updated, current)

	return updated, nil
}

// ListLocations returns the location catalog ordered by ID
func (s *Service) ListLocations(ctx context.Context) ([]*location.Location, error) {
	return s.locations.List(ctx)
}

func scopeFilter(actorID string, role trip.Role) (trip.Filter, error) {
	if actorID == "" {
		return trip.Filter{}, apperrors.Invalid("Actor is required")
	}
	switch role {
	case trip.RolePassenger:
		return trip.Filter{PassengerID: actorID}, nil
	case trip.RoleDriver:
		return trip.Filter{DriverID: actorID}, nil
	}
	return trip.Filter{}, apperrors.Invalid("Unknown role")
}

