package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridebook/ride-booking/internal/domain/location"
	"github.com/ridebook/ride-booking/internal/domain/trip"
	"github.com/ridebook/ride-booking/pkg/database"
	apperrors "github.com/ridebook/ride-booking/pkg/errors"
)

// setupTestDB connects to TEST_POSTGRES_DSN and rebuilds the schema from the migrations
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	db, err := database.OpenPostgres(dsn)
	require.NoError(t, err)
	require.NoError(t, database.MigrateDown(db))
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { db.Close() })
	return db
}

func pendingTrip(passenger string, createdAt time.Time) *trip.Trip {
	return &trip.Trip{
		ID:             uuid.New().String(),
		PassengerID:    passenger,
		FromLocationID: 1,
		ToLocationID:   2,
		RideClass:      trip.RideClassCar,
		DistanceKM:     15,
		Fare:           475,
		Status:         trip.StatusPending,
		BookingTime:    createdAt,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func TestLocationStore_MatchesCatalog(t *testing.T) {
	db := setupTestDB(t)
	store := NewLocationStore(db)
	ctx := context.Background()

	fromDB, err := store.List(ctx)
	require.NoError(t, err)

	catalog := location.DefaultCatalog()
	require.Len(t, fromDB, len(catalog))
	for i := range catalog {
		assert.Equal(t, catalog[i].ID, fromDB[i].ID)
		assert.Equal(t, catalog[i].Name, fromDB[i].Name)
		assert.Equal(t, catalog[i].Distances, fromDB[i].Distances)
	}

	airport, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 15.0, airport.Distances[1])

	_, err = store.Get(ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrInvalidLocation)
}

func TestTripRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTripRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	tr := pendingTrip("p1", now)
	require.NoError(t, repo.Create(ctx, tr))

	got, err := repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.StatusPending, got.Status)
	assert.Nil(t, got.DriverID)

	accepted, err := repo.AssignDriver(ctx, tr.ID, "d1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, trip.StatusAccepted, accepted.Status)
	assert.Equal(t, "d1", *accepted.DriverID)

	_, err = repo.AssignDriver(ctx, tr.ID, "d2", now)
	assert.ErrorIs(t, err, apperrors.ErrTripNotPending)

	_, err = repo.TransitionStatus(ctx, tr.ID, trip.StatusPending, trip.StatusCancelled, now)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	started, err := repo.TransitionStatus(ctx, tr.ID, trip.StatusAccepted, trip.StatusInProgress, now.Add(2*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, started.StartTime)

	done, err := repo.TransitionStatus(ctx, tr.ID, trip.StatusInProgress, trip.StatusCompleted, now.Add(20*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, done.EndTime)
	assert.Equal(t, "d1", *done.DriverID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrTripNotFound)
	_, err = repo.AssignDriver(ctx, "missing", "d1", now)
	assert.ErrorIs(t, err, apperrors.ErrTripNotFound)
}

func TestTripRepository_CancelClearsDriver(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTripRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	tr := pendingTrip("p1", now)
	require.NoError(t, repo.Create(ctx, tr))
	_, err := repo.AssignDriver(ctx, tr.ID, "d1", now)
	require.NoError(t, err)

	cancelled, err := repo.TransitionStatus(ctx, tr.ID, trip.StatusAccepted, trip.StatusCancelled, now)
	require.NoError(t, err)
	assert.Nil(t, cancelled.DriverID)
	assert.NotNil(t, cancelled.EndTime)
}

func TestTripRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTripRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	var ids []string
	for i := 0; i < 3; i++ {
		tr := pendingTrip("p1", now.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.Create(ctx, tr))
		ids = append(ids, tr.ID)
	}
	require.NoError(t, repo.Create(ctx, pendingTrip("p2", now)))

	trips, err := repo.List(ctx, trip.Filter{PassengerID: "p1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, ids[2], trips[0].ID)
	assert.Equal(t, ids[1], trips[1].ID)

	pending, err := repo.List(ctx, trip.Filter{Statuses: []trip.Status{trip.StatusPending}})
	require.NoError(t, err)
	assert.Len(t, pending, 4)
}

func TestTripRepository_ConcurrentAssign(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTripRepository(db)
	ctx := context.Background()

	tr := pendingTrip("p1", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, tr))

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(driverID string) {
			defer wg.Done()
			_, err := repo.AssignDriver(ctx, tr.ID, driverID, time.Now().UTC())
			errs <- err
		}(fmt.Sprintf("d%d", i))
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrTripNotPending)
	}
	assert.Equal(t, 1, success)
}
