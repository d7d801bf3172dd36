package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ridebook/ride-booking/internal/domain/trip"
	apperrors "github.com/ridebook/ride-booking/pkg/errors"
)

// CollectionTrips is the collection holding trip documents
const CollectionTrips = "trips"

type tripDocument struct {
	ID             string     `bson:"_id"`
	PassengerID    string     `bson:"passenger_id"`
	DriverID       *string    `bson:"driver_id"`
	FromLocationID int        `bson:"from_location_id"`
	ToLocationID   int        `bson:"to_location_id"`
	RideClass      string     `bson:"ride_class"`
	DistanceKM     float64    `bson:"distance_km"`
	Fare           float64    `bson:"fare"`
	Status         string     `bson:"status"`
	BookingTime    time.Time  `bson:"booking_time"`
	AcceptedAt     *time.Time `bson:"accepted_at,omitempty"`
	StartTime      *time.Time `bson:"start_time,omitempty"`
	EndTime        *time.Time `bson:"end_time,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
	Seq            int64      `bson:"seq"`
}

// TripRepository stores trips as MongoDB documents
type TripRepository struct {
	coll *mongo.Collection
}

// NewTripRepository creates a trip repository over the trips collection of db
func NewTripRepository(db *mongo.Database) *TripRepository {
	return &TripRepository{coll: db.Collection(CollectionTrips)}
}

// EnsureIndexes creates the listing indexes. Safe to call on every start.
func (r *TripRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "passenger_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return apperrors.Storage(apperrors.Wrap(err, "create trip indexes"))
	}
	return nil
}

// Create inserts a new trip document
func (r *TripRepository) Create(ctx context.Context, t *trip.Trip) error {
	doc := toDocument(t)
	doc.Seq = time.Now().UnixNano()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return apperrors.Storage(apperrors.Wrap(err, "insert trip"))
	}
	return nil
}

// GetByID loads a trip
func (r *TripRepository) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	var doc tripDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrTripNotFound
	}
	if err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "get trip"))
	}
	return doc.toDomain(), nil
}

// List returns matching trips newest first
func (r *TripRepository) List(ctx context.Context, filter trip.Filter) ([]*trip.Trip, error) {
	query := bson.M{}
	if filter.PassengerID != "" {
		query["passenger_id"] = filter.PassengerID
	}
	if filter.DriverID != "" {
		query["driver_id"] = filter.DriverID
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query["status"] = bson.M{"$in": statuses}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "list trips"))
	}
	defer cursor.Close(ctx)

	trips := make([]*trip.Trip, 0)
	for cursor.Next(ctx) {
		var doc tripDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperrors.Storage(apperrors.Wrap(err, "decode trip"))
		}
		trips = append(trips, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "list trips"))
	}
	return trips, nil
}

// AssignDriver accepts a pending trip with a single FindOneAndUpdate
func (r *TripRepository) AssignDriver(ctx context.Context, id, driverID string, at time.Time) (*trip.Trip, error) {
	filter := bson.M{
		"_id":       id,
		"status":    string(trip.StatusPending),
		"driver_id": nil,
	}
	update := bson.M{"$set": bson.M{
		"driver_id":   driverID,
		"status":      string(trip.StatusAccepted),
		"accepted_at": at,
		"updated_at":  at,
	}}

	t, err := r.findAndUpdate(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.missOrConflict(ctx, id, apperrors.ErrTripNotPending)
	}
	if err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "accept trip"))
	}
	return t, nil
}

// TransitionStatus moves a trip from -> to if it is still in from
func (r *TripRepository) TransitionStatus(ctx context.Context, id string, from, to trip.Status, at time.Time) (*trip.Trip, error) {
	set := bson.M{
		"status":     string(to),
		"updated_at": at,
	}
	switch to {
	case trip.StatusInProgress:
		set["start_time"] = at
	case trip.StatusCompleted:
		set["end_time"] = at
	case trip.StatusCancelled:
		set["end_time"] = at
		set["driver_id"] = nil
	default:
		return nil, apperrors.ErrInvalidTransition
	}

	t, err := r.findAndUpdate(ctx, bson.M{"_id": id, "status": string(from)}, bson.M{"$set": set})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.missOrConflict(ctx, id, apperrors.ErrInvalidTransition)
	}
	if err != nil {
		return nil, apperrors.Storage(apperrors.Wrap(err, "update trip status"))
	}
	return t, nil
}

func (r *TripRepository) findAndUpdate(ctx context.Context, filter, update bson.M) (*trip.Trip, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc tripDocument
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *TripRepository) missOrConflict(ctx context.Context, id string, conflict error) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return apperrors.Storage(apperrors.Wrap(err, "check trip"))
	}
	if n == 0 {
		return apperrors.ErrTripNotFound
	}
	return conflict
}

func toDocument(t *trip.Trip) tripDocument {
	return tripDocument{
		ID:             t.ID,
		PassengerID:    t.PassengerID,
		DriverID:       t.DriverID,
		FromLocationID: t.FromLocationID,
		ToLocationID:   t.ToLocationID,
		RideClass:      string(t.RideClass),
		DistanceKM:     t.DistanceKM,
		Fare:           t.Fare,
		Status:         string(t.Status),
		BookingTime:    t.BookingTime,
		AcceptedAt:     t.AcceptedAt,
		StartTime:      t.StartTime,
		EndTime:        t.EndTime,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (d *tripDocument) toDomain() *trip.Trip {
	return &trip.Trip{
		ID:             d.ID,
		PassengerID:    d.PassengerID,
		DriverID:       d.DriverID,
		FromLocationID: d.FromLocationID,
		ToLocationID:   d.ToLocationID,
		RideClass:      trip.RideClass(d.RideClass),
		DistanceKM:     d.DistanceKM,
		Fare:           d.Fare,
		Status:         trip.Status(d.Status),
		BookingTime:    d.BookingTime,
		AcceptedAt:     d.AcceptedAt,
		StartTime:      d.StartTime,
		EndTime:        d.EndTime,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
