package trip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestCanTransition verifies the state machine transition table
func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusAccepted, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusAccepted, StatusCancelled, true},

		// skipping states
		{StatusPending, StatusInProgress, false},
		{StatusPending, StatusCompleted, false},
		{StatusAccepted, StatusCompleted, false},

		// backwards and self loops
		{StatusAccepted, StatusPending, false},
		{StatusInProgress, StatusAccepted, false},
		{StatusPending, StatusPending, false},

		// in_progress cannot be cancelled
		{StatusInProgress, StatusCancelled, false},

		// terminal states
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCompleted, StatusInProgress, false},

		// unknown status
		{Status("teleported"), StatusCompleted, false},
		{StatusPending, Status("teleported"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatus_Predicates(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())

	assert.False(t, StatusPending.HasDriver())
	assert.True(t, StatusAccepted.HasDriver())
	assert.True(t, StatusInProgress.HasDriver())
	assert.True(t, StatusCompleted.HasDriver())
	assert.False(t, StatusCancelled.HasDriver())

	assert.False(t, Status("unknown").IsValid())
}

func TestRideClass_IsValid(t *testing.T) {
	for _, c := range []RideClass{RideClassTwoWheeler, RideClassCar, RideClassThreeWheeler} {
		assert.True(t, c.IsValid(), c)
	}
	assert.False(t, RideClass("helicopter").IsValid())
	assert.False(t, RideClass("").IsValid())
}

func TestTrip_IsParty(t *testing.T) {
	driver := "d1"
	tr := &Trip{PassengerID: "p1", DriverID: &driver}

	assert.True(t, tr.IsParty("p1"))
	assert.True(t, tr.IsParty("d1"))
	assert.False(t, tr.IsParty("stranger"))
	assert.False(t, tr.IsParty(""))
}

func TestTrip_ApplyCancelClearsDriver(t *testing.T) {
	driver := "d1"
	tr := &Trip{Status: StatusAccepted, DriverID: &driver}
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	tr.Apply(StatusCancelled, at)

	assert.Equal(t, StatusCancelled, tr.Status)
	assert.Nil(t, tr.DriverID)
	if assert.NotNil(t, tr.EndTime) {
		assert.Equal(t, at, *tr.EndTime)
	}
}

func TestTrip_ApplySetsTimestamps(t *testing.T) {
	tr := &Trip{Status: StatusAccepted}
	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	end := start.Add(20 * time.Minute)

	tr.Apply(StatusInProgress, start)
	tr.Apply(StatusCompleted, end)

	assert.Equal(t, start, *tr.StartTime)
	assert.Equal(t, end, *tr.EndTime)
	assert.Equal(t, end, tr.UpdatedAt)
}

func TestTrip_CloneIsDeep(t *testing.T) {
	driver := "d1"
	now := time.Now()
	tr := &Trip{DriverID: &driver, StartTime: &now}

	c := tr.Clone()
	*c.DriverID = "other"
	*c.StartTime = now.Add(time.Hour)

	assert.Equal(t, "d1", *tr.DriverID)
	assert.Equal(t, now, *tr.StartTime)
}
