package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/ridebook/ride-booking/internal/domain/trip"
	apperrors "github.com/ridebook/ride-booking/pkg/errors"
)

const tripColumns = `id, passenger_id, driver_id, from_location_id, to_location_id, ride_class,
	distance_km, fare, status, booking_time, accepted_at, start_time, end_time, created_at, updated_at`

// TripRepository stores trips in PostgreSQL
type TripRepository struct {
	db *sql.DB
}

// NewTripRepository creates a trip repository over an open pool
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

// Create inserts a new trip
func (r *TripRepository) Create(ctx context.Context, t *trip.Trip) error {
	query := `INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.PassengerID, nullString(t.DriverID), t.FromLocationID, t.ToLocationID, string(t.RideClass),
		t.DistanceKM, t.Fare, string(t.Status), t.BookingTime, nullTime(t.AcceptedAt), nullTime(t.StartTime),
		nullTime(t.EndTime), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return apperrors.Storage(apperrors.Wrap(err, "insert trip"))
	}
	return nil
}

// GetByID loads a trip
func (r *TripRepository) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	t, err := scanTrip(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrTripNotFound
	}
	if err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "get trip"))
	}
	return t, nil
}

// List returns matching trips newest first
func (r *TripRepository) List(ctx context.Context, filter trip.Filter) ([]*trip.Trip, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.PassengerID != "" {
		args = append(args, filter.PassengerID)
		conds = append(conds, fmt.Sprintf("passenger_id = $%d", len(args)))
	}
	if filter.DriverID != "" {
		args = append(args, filter.DriverID)
		conds = append(conds, fmt.Sprintf("driver_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	query := `SELECT ` + tripColumns + ` FROM trips`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, seq DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "list trips"))
	}
	defer rows.Close()

	trips := make([]*trip.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, apperrors.Storage(apperrors.Wrap(err, "scan trip"))
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "list trips"))
	}
	return trips, nil
}

// AssignDriver accepts a pending trip in a single conditional update
func (r *TripRepository) AssignDriver(ctx context.Context, id, driverID string, at time.Time) (*trip.Trip, error) {
	query := `UPDATE trips
		SET driver_id = $2, status = $3, accepted_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5 AND driver_id IS NULL
		RETURNING ` + tripColumns

	t, err := scanTrip(r.db.QueryRowContext(ctx, query,
		id, driverID, string(trip.StatusAccepted), at, string(trip.StatusPending)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.missOrConflict(ctx, id, apperrors.ErrTripNotPending)
	}
	if err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "accept trip"))
	}
	return t, nil
}

// TransitionStatus moves a trip from -> to if it is still in from
func (r *TripRepository) TransitionStatus(ctx context.Context, id string, from, to trip.Status, at time.Time) (*trip.Trip, error) {
	var set string
	switch to {
	case trip.StatusInProgress:
		set = "start_time = $4"
	case trip.StatusCompleted:
		set = "end_time = $4"
	case trip.StatusCancelled:
		set = "end_time = $4, driver_id = NULL"
	default:
		return nil, apperrors.ErrInvalidTransition
	}

	query := `UPDATE trips SET status = $3, updated_at = $4, ` + set + `
		WHERE id = $1 AND status = $2
		RETURNING ` + tripColumns

	t, err := scanTrip(r.db.QueryRowContext(ctx, query, id, string(from), string(to), at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.missOrConflict(ctx, id, apperrors.ErrInvalidTransition)
	}
	if err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "update trip status"))
	}
	return t, nil
}

// missOrConflict tells a missing trip apart from a lost conditional update
func (r *TripRepository) missOrConflict(ctx context.Context, id string, conflict error) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return apperrors.Storage(apperrors.Wrap(err, "check trip"))
	}
	if !exists {
		return apperrors.ErrTripNotFound
	}
	return conflict
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrip(row scanner) (*trip.Trip, error) {
	var (
		t                              trip.Trip
		driverID                       sql.NullString
		rideClass, status              string
		acceptedAt, startTime, endTime sql.NullTime
	)

	err := row.Scan(
		&t.ID, &t.PassengerID, &driverID, &t.FromLocationID, &t.ToLocationID, &rideClass,
		&t.DistanceKM, &t.Fare, &status, &t.BookingTime, &acceptedAt, &startTime, &endTime,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.RideClass = trip.RideClass(rideClass)
	t.Status = trip.Status(status)
	if driverID.Valid {
		t.DriverID = &driverID.String
	}
	t.AcceptedAt = timePtr(acceptedAt)
	t.StartTime = timePtr(startTime)
	t.EndTime = timePtr(endTime)
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
