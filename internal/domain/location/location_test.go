package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ridebook/ride-booking/pkg/errors"
)

func TestDefaultCatalog_IsSymmetricAndComplete(t *testing.T) {
	locs := DefaultCatalog()
	require.Len(t, locs, 10)

	for i, from := range locs {
		assert.Equal(t, i+1, from.ID, "catalog should be ordered by id")
		assert.Len(t, from.Distances, 9, "every location should reach every other one")
		for toID, d := range from.Distances {
			assert.NotEqual(t, from.ID, toID)
			assert.Greater(t, d, 0.0)
			assert.Equal(t, d, locs[toID-1].Distances[from.ID])
		}
	}
}

func TestDistance_CityCenterToAirport(t *testing.T) {
	locs := DefaultCatalog()

	d, err := Distance(locs[0], 2)
	require.NoError(t, err)
	assert.Equal(t, 15.0, d)
}

func TestDistance_AbsentEntry(t *testing.T) {
	from := &Location{ID: 1, Distances: map[int]float64{2: 3}}

	_, err := Distance(from, 42)
	assert.ErrorIs(t, err, apperrors.ErrDistanceNotFound)
}

func TestDistance_ZeroEntryIsNotFound(t *testing.T) {
	from := &Location{ID: 1, Distances: map[int]float64{2: 0}}

	_, err := Distance(from, 2)
	assert.ErrorIs(t, err, apperrors.ErrDistanceNotFound)
}

func TestDistance_NilLocation(t *testing.T) {
	_, err := Distance(nil, 2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidLocation)
}

func TestDefaultCatalog_ReturnsIndependentCopies(t *testing.T) {
	a := DefaultCatalog()
	a[0].Distances[2] = 99

	b := DefaultCatalog()
	assert.Equal(t, 15.0, b[0].Distances[2])
}

func TestBuild_IgnoresUnknownLegs(t *testing.T) {
	locs := Build([]Location{{ID: 1}, {ID: 2}}, []Leg{{1, 2, 5}, {1, 3, 7}})

	require.Len(t, locs, 2)
	assert.Equal(t, map[int]float64{2: 5}, locs[0].Distances)
	assert.Equal(t, map[int]float64{1: 5}, locs[1].Distances)
}
