package repository

import (
	"context"

	"tripline-service/internal/domain/entity"
)

// TransportOptionRepository defines the transport lookup for an ordered
// city pair. Recommended options sort first.
type TransportOptionRepository interface {
	OptionsBetween(ctx context.Context, fromCity, toCity string) ([]entity.TransportOption, error)
}
