package repository

import (
	"context"

	"tripline-service/internal/domain/entity"
)

// EnrichmentRepository defines the activity-suggestion collaborator used
// by day auto-fill. Implementations call a remote API; a failed call is
// reported as an error and never substituted with fabricated content.
type EnrichmentRepository interface {
	SuggestActivities(ctx context.Context, city string, nights int, preferences, excludeNames []string) ([]entity.Activity, error)
}

// ImageRepository defines the best-effort activity image lookup.
type ImageRepository interface {
	// FetchActivityImage returns an image URL for the activity, or an
	// empty string when nothing suitable is found.
	FetchActivityImage(ctx context.Context, activityName, city string) (string, error)
}
