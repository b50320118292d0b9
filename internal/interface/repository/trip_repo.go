package repository

import (
	"context"
	"errors"
	"time"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/domain/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTripRepository implements TripRepository
type MongoTripRepository struct {
	collection *mongo.Collection
}

// NewMongoTripRepository creates a new trip repository
func NewMongoTripRepository(db *mongo.Database) repository.TripRepository {
	collection := db.Collection("trips")

	ctx := context.Background()
	updatedIndex := mongo.IndexModel{
		Keys: bson.M{"updatedAt": -1},
	}
	collection.Indexes().CreateOne(ctx, updatedIndex)

	return &MongoTripRepository{
		collection: collection,
	}
}

// FindByID returns the persisted trip, or nil when no record exists
func (r *MongoTripRepository) FindByID(ctx context.Context, id string) (*entity.Trip, error) {
	var trip entity.Trip
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trip)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// Upsert creates or replaces the trip record
func (r *MongoTripRepository) Upsert(ctx context.Context, trip *entity.Trip) error {
	trip.UpdatedAt = time.Now()
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = trip.UpdatedAt
	}

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": trip.ID}, trip, opts)
	return err
}
