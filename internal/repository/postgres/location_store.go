package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ridebook/ride-booking/internal/domain/location"
	apperrors "github.com/ridebook/ride-booking/pkg/errors"
)

// LocationStore reads the location catalog from PostgreSQL
type LocationStore struct {
	db *sql.DB
}

// NewLocationStore creates a location store over an open pool
func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

// Get returns one location with its distance table
func (s *LocationStore) Get(ctx context.Context, id int) (*location.Location, error) {
	loc := &location.Location{Distances: make(map[int]float64)}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, address FROM locations WHERE id = $1`, id,
	).Scan(&loc.ID, &loc.Name, &loc.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrInvalidLocation
	}
	if err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "get location"))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT to_location_id, distance_km FROM location_distances WHERE from_location_id = $1`, id)
	if err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "get distances"))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			toID int
			km   float64
		)
		if err := rows.Scan(&toID, &km); err != nil {
			return nil, apperrors.Storage(apperrors.Wrap(err, "scan distance"))
		}
		loc.Distances[toID] = km
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "get distances"))
	}
	return loc, nil
}

// List returns every location ordered by ID
func (s *LocationStore) List(ctx context.Context) ([]*location.Location, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, address FROM locations ORDER BY id`)
	if err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "list locations"))
	}
	defer rows.Close()

	locs := make([]*location.Location, 0)
	byID := make(map[int]*location.Location)
	for rows.Next() {
		loc := &location.Location{Distances: make(map[int]float64)}
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Address); err != nil {
			return nil, apperrors.Storage(apperrors.Wrap(err, "scan location"))
		}
		locs = append(locs, loc)
		byID[loc.ID] = loc
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "list locations"))
	}

	drows, err := s.db.QueryContext(ctx,
		`SELECT from_location_id, to_location_id, distance_km FROM location_distances`)
	if err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "list distances"))
	}
	defer drows.Close()

	for drows.Next() {
		var (
			fromID, toID int
			km           float64
		)
		if err := drows.Scan(&fromID, &toID, &km); err != nil {
			return nil, apperrors.Storage(apperrors.Wrap(err, "scan distance"))
		}
		if loc, ok := byID[fromID]; ok {
			loc.Distances[toID] = km
		}
	}
	if err := drows.Err(); err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "list distances"))
	}

	return locs, nil
}
