package location

import (
	"context"
	"sort"

	apperrors "github.com/ridebook/ride-booking/pkg/errors"
)

// Location is a fixed pickup/drop point with the travel distance to every other point
type Location struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Distances map[int]float64 `json:"distances"`
}

// Store provides read access to the location catalog
type Store interface {
	// Get returns the location or apperrors.ErrInvalidLocation
	Get(ctx context.Context, id int) (*Location, error)

	// List returns every location ordered by ID
	List(ctx context.Context) ([]*Location, error)
}

// Distance returns the precomputed distance in km from one location to another.
// An absent entry and a non-positive entry are both reported as not found.
func Distance(from *Location, toID int) (float64, error) {
	if from == nil {
		return 0, apperrors.ErrInvalidLocation
	}
	d, ok := from.Distances[toID]
	if !ok || d <= 0 {
		return 0, apperrors.ErrDistanceNotFound
	}
	return d, nil
}

// SortByID orders locations by ascending ID in place
func SortByID(locs []*Location) {
	sort.Slice(locs, func(i, j int) bool { return locs[i].ID < locs[j].ID })
}
