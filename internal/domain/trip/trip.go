package trip

import (
	"context"
	"time"
)

// Status represents trip lifecycle status
type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// RideClass is the vehicle category requested for a trip
type RideClass string

const (
	RideClassTwoWheeler   RideClass = "bike"
	RideClassCar          RideClass = "car"
	RideClassThreeWheeler RideClass = "ricksha"
)

// Role is the capacity in which an actor calls the service
type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
)

// Trip represents one passenger request, its assignment and lifecycle
type Trip struct {
	ID             string     `json:"id"`
	PassengerID    string     `json:"user_id"`
	DriverID       *string    `json:"driver_id"`
	FromLocationID int        `json:"from_location_id"`
	ToLocationID   int        `json:"to_location_id"`
	RideClass      RideClass  `json:"ride_type"`
	DistanceKM     float64    `json:"distance_km"`
	Fare           float64    `json:"fare"`
	Status         Status     `json:"status"`
	BookingTime    time.Time  `json:"booking_time"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Filter selects trips for listing. Empty fields do not constrain the result.
type Filter struct {
	PassengerID string
	DriverID    string
	Statuses    []Status
	// Limit caps the result to the most recent trips when positive
	Limit int
}

// Repository persists trips. Implementations return apperrors values:
// ErrTripNotFound for unknown ids and ErrStorage for backend failures.
type Repository interface {
	Create(ctx context.Context, trip *Trip) error
	GetByID(ctx context.Context, id string) (*Trip, error)

	// List returns matching trips ordered by creation time, newest first
	List(ctx context.Context, filter Filter) ([]*Trip, error)

	// AssignDriver atomically sets the driver and moves the trip to accepted,
	// only if it is still pending with no driver. Otherwise ErrTripNotPending.
	AssignDriver(ctx context.Context, id, driverID string, at time.Time) (*Trip, error)

	// TransitionStatus moves the trip from -> to only if its status is still from.
	// Otherwise ErrInvalidTransition.
	TransitionStatus(ctx context.Context, id string, from, to Status, at time.Time) (*Trip, error)
}

// AllowedTransitions is the trip state machine. Terminal states have no entry.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

// CanTransition reports whether from -> to is an edge of the state machine
func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// HasDriver reports whether a trip in this status must carry a driver reference
func (s Status) HasDriver() bool {
	return s == StatusAccepted || s == StatusInProgress || s == StatusCompleted
}

// IsValid validates the ride class
func (c RideClass) IsValid() bool {
	switch c {
	case RideClassTwoWheeler, RideClassCar, RideClassThreeWheeler:
		return true
	}
	return false
}

// IsValid validates the role
func (r Role) IsValid() bool {
	return r == RolePassenger || r == RoleDriver
}

// ActiveStatuses are the statuses of a trip that is assigned but not finished
var ActiveStatuses = []Status{StatusAccepted, StatusInProgress}

// IsParty reports whether the actor is the trip's passenger or its driver
func (t *Trip) IsParty(actorID string) bool {
	if actorID == "" {
		return false
	}
	if t.PassengerID == actorID {
		return true
	}
	return t.DriverID != nil && *t.DriverID == actorID
}

// Clone returns a deep copy so callers cannot mutate stored state
func (t *Trip) Clone() *Trip {
	c := *t
	if t.DriverID != nil {
		d := *t.DriverID
		c.DriverID = &d
	}
	c.AcceptedAt = cloneTime(t.AcceptedAt)
	c.StartTime = cloneTime(t.StartTime)
	c.EndTime = cloneTime(t.EndTime)
	return &c
}

// Apply mutates the trip for a status change at the given time, keeping the
// driver invariant: cancellation clears the driver reference.
func (t *Trip) Apply(to Status, at time.Time) {
	t.Status = to
	t.UpdatedAt = at
	switch to {
	case StatusInProgress:
		t.StartTime = &at
	case StatusCompleted:
		t.EndTime = &at
	case StatusCancelled:
		t.EndTime = &at
		t.DriverID = nil
	}
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
