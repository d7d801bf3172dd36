package location

// seed locations of the Lahore deployment
var seedLocations = []Location{
	{ID: 1, Name: "City Center", Address: "Main Street, Downtown"},
	{ID: 2, Name: "Airport", Address: "Allama Iqbal International Airport"},
	{ID: 3, Name: "Train Station", Address: "Lahore Railway Station"},
	{ID: 4, Name: "Emporium Mall", Address: "Johar Town"},
	{ID: 5, Name: "University", Address: "University of Lahore"},
	{ID: 6, Name: "Jinnah Hospital", Address: "Jinnah Hospital"},
	{ID: 7, Name: "Gadaffi Stadium", Address: "Gadaffi Stadium"},
	{ID: 8, Name: "Faisal Town", Address: "Faisal Town"},
	{ID: 9, Name: "DHA Raya", Address: "DHA Raya"},
	{ID: 10, Name: "Lake City", Address: "Lake City"},
}

// Leg is one undirected entry of the distance table
type Leg struct {
	From       int
	To         int
	DistanceKM float64
}

// seedLegs is kept in sync with pkg/database/migrations/000002_seed_locations.up.sql
var seedLegs = []Leg{
	{1, 2, 15}, {1, 3, 4}, {1, 4, 12}, {1, 5, 18}, {1, 6, 8}, {1, 7, 6}, {1, 8, 10}, {1, 9, 20}, {1, 10, 22},
	{2, 3, 14}, {2, 4, 24}, {2, 5, 30}, {2, 6, 19}, {2, 7, 16}, {2, 8, 21}, {2, 9, 12}, {2, 10, 32},
	{3, 4, 15}, {3, 5, 21}, {3, 6, 10}, {3, 7, 8}, {3, 8, 13}, {3, 9, 19}, {3, 10, 25},
	{4, 5, 7}, {4, 6, 6}, {4, 7, 9}, {4, 8, 4}, {4, 9, 22}, {4, 10, 11},
	{5, 6, 12}, {5, 7, 15}, {5, 8, 9}, {5, 9, 28}, {5, 10, 10},
	{6, 7, 5}, {6, 8, 4}, {6, 9, 18}, {6, 10, 14},
	{7, 8, 6}, {7, 9, 14}, {7, 10, 17},
	{8, 9, 19}, {8, 10, 12},
	{9, 10, 26},
}

// DefaultCatalog returns a fresh copy of the seeded locations with a symmetric distance table
func DefaultCatalog() []*Location {
	return Build(seedLocations, seedLegs)
}

// Build attaches the legs to the locations in both directions. Legs naming an
// unknown location are ignored.
func Build(locs []Location, legs []Leg) []*Location {
	byID := make(map[int]*Location, len(locs))
	out := make([]*Location, 0, len(locs))
	for _, l := range locs {
		loc := &Location{ID: l.ID, Name: l.Name, Address: l.Address, Distances: make(map[int]float64)}
		for k, v := range l.Distances {
			loc.Distances[k] = v
		}
		byID[loc.ID] = loc
		out = append(out, loc)
	}
	for _, leg := range legs {
		from, okFrom := byID[leg.From]
		to, okTo := byID[leg.To]
		if !okFrom || !okTo {
			continue
		}
		from.Distances[leg.To] = leg.DistanceKM
		to.Distances[leg.From] = leg.DistanceKM
	}
	SortByID(out)
	return out
}
