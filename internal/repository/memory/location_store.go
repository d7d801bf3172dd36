package memory

import (
	"context"

	"github.com/ridebook/ride-booking/internal/domain/location"
	apperrors "github.com/ridebook/ride-booking/pkg/errors"
)

// LocationStore serves a fixed location catalog. It is read-only after construction.
type LocationStore struct {
	byID    map[int]*location.Location
	ordered []*location.Location
}

// NewLocationStore builds a store over the given locations
func NewLocationStore(locs []*location.Location) *LocationStore {
	s := &LocationStore{byID: make(map[int]*location.Location, len(locs))}
	for _, l := range locs {
		s.byID[l.ID] = l
		s.ordered = append(s.ordered, l)
	}
	location.SortByID(s.ordered)
	return s
}

// NewDefaultLocationStore serves the seeded catalog
func NewDefaultLocationStore() *LocationStore {
	return NewLocationStore(location.DefaultCatalog())
}

// Get returns a copy of the location
func (s *LocationStore) Get(ctx context.Context, id int) (*location.Location, error) {
	l, ok := s.byID[id]
	if !ok {
		return nil, apperrors.ErrInvalidLocation
	}
	return copyLocation(l), nil
}

// List returns copies of every location ordered by ID
func (s *LocationStore) List(ctx context.Context) ([]*location.Location, error) {
	out := make([]*location.Location, len(s.ordered))
	for i, l := range s.ordered {
		out[i] = copyLocation(l)
	}
	return out, nil
}

func copyLocation(l *location.Location) *location.Location {
	c := *l
	c.Distances = make(map[int]float64, len(l.Distances))
	for k, v := range l.Distances {
		c.Distances[k] = v
	}
	return &c
}
