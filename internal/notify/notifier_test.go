package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridebook/ride-booking/internal/domain/trip"
	"github.com/ridebook/ride-booking/internal/repository/memory"
	"github.com/ridebook/ride-booking/internal/service/pricing"
	"github.com/ridebook/ride-booking/internal/service/trips"
	"github.com/ridebook/ride-booking/pkg/logger"
	"github.com/ridebook/ride-booking/pkg/websocket"
)

type delivery struct {
	target string
	msg    websocket.Message
	skip   []string
}

type fakeHub struct {
	sent []delivery
}

func (h *fakeHub) BroadcastToRole(role string, m websocket.Message) int {
	h.sent = append(h.sent, delivery{target: "role:" + role, msg: m})
	return 1
}

func (h *fakeHub) SendToUser(userID string, m websocket.Message) int {
	h.sent = append(h.sent, delivery{target: "user:" + userID, msg: m})
	return 1
}

func (h *fakeHub) BroadcastToTrip(tripID string, m websocket.Message, skipUsers ...string) int {
	h.sent = append(h.sent, delivery{target: "trip:" + tripID, msg: m, skip: skipUsers})
	return 1
}

// last returns the most recent delivery to target
func (h *fakeHub) last(target string) (delivery, bool) {
	for i := len(h.sent) - 1; i >= 0; i-- {
		if h.sent[i].target == target {
			return h.sent[i], true
		}
	}
	return delivery{}, false
}

func (h *fakeHub) targets() []string {
	out := make([]string, len(h.sent))
	for i, d := range h.sent {
		out[i] = d.target
	}
	return out
}

func sampleTrip() *trip.Trip {
	booked := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	return &trip.Trip{
		ID:          "t1",
		PassengerID: "p1",
		RideClass:   trip.RideClassCar,
		Status:      trip.StatusPending,
		Fare:        475,
		BookingTime: booked,
		UpdatedAt:   booked,
	}
}

func TestNotifier_TripBookedGoesToDrivers(t *testing.T) {
	hub := &fakeHub{}
	n := New(hub, nil, logger.NewNop())

	n.TripBooked(context.Background(), sampleTrip())

	assert.Equal(t, []string{"role:driver"}, hub.targets())
	assert.Equal(t, EventTripBooked, hub.sent[0].msg.Type)
}

func TestNotifier_TripAccepted(t *testing.T) {
	hub := &fakeHub{}
	n := New(hub, nil, logger.NewNop())

	tr := sampleTrip()
	driver := "d1"
	at := tr.BookingTime.Add(time.Minute)
	tr.DriverID, tr.AcceptedAt, tr.Status = &driver, &at, trip.StatusAccepted

	n.TripAccepted(context.Background(), tr)

	assert.Equal(t, []string{"user:p1", "role:driver", "trip:t1"}, hub.targets())
	sub, _ := hub.last("trip:t1")
	assert.ElementsMatch(t, []string{"p1", "d1"}, sub.skip, "parties already got the event directly")
}

func TestNotifier_TripStatusChanged(t *testing.T) {
	hub := &fakeHub{}
	n := New(hub, nil, logger.NewNop())

	previous := sampleTrip()
	driver := "d1"
	previous.DriverID, previous.Status = &driver, trip.StatusAccepted
	tr := previous.Clone()
	tr.Status = trip.StatusInProgress

	n.TripStatusChanged(context.Background(), tr, previous)

	assert.Equal(t, []string{"user:p1", "user:d1", "trip:t1"}, hub.targets())
	change, ok := hub.sent[0].msg.Data.(StatusChange)
	if assert.True(t, ok) {
		assert.Equal(t, trip.StatusAccepted, change.From)
	}
	sub, _ := hub.last("trip:t1")
	assert.Equal(t, []string{"p1", "d1"}, sub.skip)
}

func TestNotifier_AcceptedCancelTellsReleasedDriver(t *testing.T) {
	hub := &fakeHub{}
	n := New(hub, nil, logger.NewNop())

	previous := sampleTrip()
	driver := "d1"
	previous.DriverID, previous.Status = &driver, trip.StatusAccepted
	cancelled := previous.Clone()
	cancelled.Apply(trip.StatusCancelled, previous.BookingTime.Add(time.Minute))
	assert.Nil(t, cancelled.DriverID)

	n.TripStatusChanged(context.Background(), cancelled, previous)

	assert.Equal(t, []string{"user:p1", "user:d1", "trip:t1"}, hub.targets())
	sub, _ := hub.last("trip:t1")
	assert.Equal(t, []string{"p1", "d1"}, sub.skip)
}

func TestNotifier_CancelThroughServiceReachesDriver(t *testing.T) {
	hub := &fakeHub{}
	svc := trips.NewService(
		memory.NewTripRepository(),
		memory.NewDefaultLocationStore(),
		pricing.NewCalculator(pricing.DefaultConfig()),
		logger.NewNop(),
		trips.WithNotifier(New(hub, nil, logger.NewNop())),
	)
	ctx := context.Background()

	booked, err := svc.BookTrip(ctx, "p1", 1, 2, trip.RideClassCar)
	require.NoError(t, err)
	_, err = svc.AcceptTrip(ctx, booked.ID, "d1")
	require.NoError(t, err)

	hub.sent = nil
	_, err = svc.UpdateStatus(ctx, booked.ID, "p1", trip.StatusCancelled)
	require.NoError(t, err)

	assert.Contains(t, hub.targets(), "user:d1")
	assert.NotContains(t, hub.targets(), "role:driver")
	d, ok := hub.last("user:d1")
	require.True(t, ok)
	assert.Equal(t, EventTripStatusChanged, d.msg.Type)
}

func TestNotifier_PendingCancelTellsDrivers(t *testing.T) {
	hub := &fakeHub{}
	n := New(hub, nil, logger.NewNop())

	previous := sampleTrip()
	tr := previous.Clone()
	tr.Status = trip.StatusCancelled

	n.TripStatusChanged(context.Background(), tr, previous)

	assert.Equal(t, []string{"user:p1", "role:driver", "trip:t1"}, hub.targets())
}

func TestNotifier_WithoutHub(t *testing.T) {
	n := New(nil, nil, logger.NewNop())

	assert.NotPanics(t, func() {
		n.TripBooked(context.Background(), sampleTrip())
		n.TripAccepted(context.Background(), sampleTrip())
		n.TripStatusChanged(context.Background(), sampleTrip(), sampleTrip())
	})
}
