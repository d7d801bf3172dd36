package notify

import (
	"context"

	"github.com/ridebook/ride-booking/internal/domain/trip"
	"github.com/ridebook/ride-booking/pkg/logger"
	"github.com/ridebook/ride-booking/pkg/monitoring"
	"github.com/ridebook/ride-booking/pkg/websocket"
)

// Event types pushed over the WebSocket
const (
	EventTripBooked        = "trip.booked"
	EventTripAccepted      = "trip.accepted"
	EventTripStatusChanged = "trip.status_changed"
)

// Broadcaster is the part of the WebSocket hub used for trip events
type Broadcaster interface {
	BroadcastToRole(role string, message websocket.Message) int
	SendToUser(userID string, message websocket.Message) int
	BroadcastToTrip(tripID string, message websocket.Message, skipUsers ...string) int
}

// StatusChange is the payload of a status event
type StatusChange struct {
	Trip *trip.Trip  `json:"trip"`
	From trip.Status `json:"from"`
}

// Notifier pushes trip events to connected clients and records them in New Relic
type Notifier struct {
	hub     Broadcaster
	metrics *monitoring.NewRelicApp
	logger  *logger.Logger
}

// New creates a notifier. hub may be nil when realtime updates are disabled.
func New(hub Broadcaster, metrics *monitoring.NewRelicApp, log *logger.Logger) *Notifier {
	if metrics == nil {
		metrics = monitoring.Disabled()
	}
	return &Notifier{hub: hub, metrics: metrics, logger: log}
}

// TripBooked offers a new trip to every connected driver
func (n *Notifier) TripBooked(_ context.Context, t *trip.Trip) {
	n.metrics.RecordTripBooked(t.ID, string(t.RideClass), t.DistanceKM, t.Fare)
	if n.hub == nil {
		return
	}

	sent := n.hub.BroadcastToRole(string(trip.RoleDriver), websocket.Message{Type: EventTripBooked, Data: t})
	n.logger.Debug("Trip offered to drivers", logger.TripID(t.ID), logger.Int("drivers", sent))
}

// TripAccepted tells the passenger, the other drivers and trip subscribers
func (n *Notifier) TripAccepted(_ context.Context, t *trip.Trip) {
	wait := t.UpdatedAt.Sub(t.BookingTime)
	if t.AcceptedAt != nil {
		wait = t.AcceptedAt.Sub(t.BookingTime)
	}
	n.metrics.RecordTripAccepted(t.ID, wait)
	if n.hub == nil {
		return
	}

	msg := websocket.Message{Type: EventTripAccepted, Data: t}
	n.hub.SendToUser(t.PassengerID, msg)
	// drivers drop the trip from their pending lists
	n.hub.BroadcastToRole(string(trip.RoleDriver), msg)
	reached := []string{t.PassengerID}
	if t.DriverID != nil {
		reached = append(reached, *t.DriverID)
	}
	n.hub.BroadcastToTrip(t.ID, msg, reached...)
}

// TripStatusChanged tells both parties and trip subscribers. previous is the
// trip before the change; its driver is told even when a cancellation released them.
func (n *Notifier) TripStatusChanged(_ context.Context, t, previous *trip.Trip) {
	from := previous.Status
	n.metrics.RecordTripStatusChanged(t.ID, string(from), string(t.Status), t.Fare)
	if n.hub == nil {
		return
	}

	msg := websocket.Message{Type: EventTripStatusChanged, Data: StatusChange{Trip: t, From: from}}
	reached := []string{t.PassengerID}
	n.hub.SendToUser(t.PassengerID, msg)

	driverID := t.DriverID
	if driverID == nil {
		driverID = previous.DriverID
	}
	if driverID != nil {
		n.hub.SendToUser(*driverID, msg)
		reached = append(reached, *driverID)
	} else if from == trip.StatusPending {
		// a cancelled pending trip leaves the drivers' pending lists
		n.hub.BroadcastToRole(string(trip.RoleDriver), msg)
	}
	n.hub.BroadcastToTrip(t.ID, msg, reached...)
}
