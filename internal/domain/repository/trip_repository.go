package repository

import (
	"context"

	"tripline-service/internal/domain/entity"
)

// TripRepository defines the opaque trip store, keyed by trip id.
type TripRepository interface {
	// FindByID returns the persisted trip, or nil when no record exists.
	FindByID(ctx context.Context, id string) (*entity.Trip, error)
	// Upsert creates or replaces the trip record.
	Upsert(ctx context.Context, trip *entity.Trip) error
}
