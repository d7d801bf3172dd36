package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ridebook/ride-booking/internal/domain/trip"
	apperrors "github.com/ridebook/ride-booking/pkg/errors"
)

// TripRepository keeps trips in process memory. Every read returns a copy and
// every conditional write happens under the same lock as its check.
type TripRepository struct {
	mu    sync.RWMutex
	trips map[string]*trip.Trip
	seq   map[string]uint64
	next  uint64
}

// NewTripRepository creates an empty in-memory trip repository
func NewTripRepository() *TripRepository {
	return &TripRepository{
		trips: make(map[string]*trip.Trip),
		seq:   make(map[string]uint64),
	}
}

// Create stores a new trip
func (r *TripRepository) Create(ctx context.Context, t *trip.Trip) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Storage(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.trips[t.ID]; exists {
		return apperrors.Storage(fmt.Errorf("trip %s already exists", t.ID))
	}
	r.next++
	r.trips[t.ID] = t.Clone()
	r.seq[t.ID] = r.next
	return nil
}

// GetByID returns a copy of the trip
func (r *TripRepository) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Storage(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trips[id]
	if !ok {
		return nil, apperrors.ErrTripNotFound
	}
	return t.Clone(), nil
}

// List returns matching trips newest first. Ties on CreatedAt fall back to insertion order.
func (r *TripRepository) List(ctx context.Context, filter trip.Filter) ([]*trip.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Storage(err)
	}

	r.mu.RLock()
	type entry struct {
		t   *trip.Trip
		seq uint64
	}
	matched := make([]entry, 0)
	for id, t := range r.trips {
		if matches(t, filter) {
			matched = append(matched, entry{t: t.Clone(), seq: r.seq[id]})
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.t.CreatedAt.Equal(b.t.CreatedAt) {
			return a.t.CreatedAt.After(b.t.CreatedAt)
		}
		return a.seq > b.seq
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	result := make([]*trip.Trip, len(matched))
	for i, e := range matched {
		result[i] = e.t
	}
	return result, nil
}

// AssignDriver moves a pending, unassigned trip to accepted
func (r *TripRepository) AssignDriver(ctx context.Context, id, driverID string, at time.Time) (*trip.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Storage(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trips[id]
	if !ok {
		return nil, apperrors.ErrTripNotFound
	}
	if t.Status != trip.StatusPending || t.DriverID != nil {
		return nil, apperrors.ErrTripNotPending
	}

	d := driverID
	acceptedAt := at
	t.DriverID = &d
	t.AcceptedAt = &acceptedAt
	t.Status = trip.StatusAccepted
	t.UpdatedAt = at
	return t.Clone(), nil
}

// TransitionStatus applies from -> to when the stored status is still from
func (r *TripRepository) TransitionStatus(ctx context.Context, id string, from, to trip.Status, at time.Time) (*trip.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Storage(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trips[id]
	if !ok {
		return nil, apperrors.ErrTripNotFound
	}
	if t.Status != from {
		return nil, apperrors.ErrInvalidTransition
	}

	t.Apply(to, at)
	return t.Clone(), nil
}

func matches(t *trip.Trip, f trip.Filter) bool {
	if f.PassengerID != "" && t.PassengerID != f.PassengerID {
		return false
	}
	if f.DriverID != "" && (t.DriverID == nil || *t.DriverID != f.DriverID) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if t.Status == s {
			return true
		}
	}
	return false
}
