package repository

import (
	"context"

	"tripline-service/internal/domain/entity"
)

// CityDefaultRepository defines lookups against the city reference table.
type CityDefaultRepository interface {
	// GetByCityName returns the city's reference row, or nil when no
	// entry exists.
	GetByCityName(ctx context.Context, city string) (*entity.CityDefault, error)
}
