package repository

import (
	"context"
	"fmt"

	"tripline-service/internal/domain/repository"
	"tripline-service/pkg/logger"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// CustomSearchImageRepository resolves activity images through the
// Google Programmable Search image API. Lookups are best effort.
type CustomSearchImageRepository struct {
	service  *customsearch.Service
	engineID string
	logger   logger.Logger
}

// NewCustomSearchImageRepository creates a new image repository
func NewCustomSearchImageRepository(ctx context.Context, apiKey, engineID string, logger logger.Logger) (repository.ImageRepository, error) {
	service, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}
	return &CustomSearchImageRepository{
		service:  service,
		engineID: engineID,
		logger:   logger,
	}, nil
}

// FetchActivityImage returns an image URL for the activity, or an empty
// string when nothing suitable is found
func (r *CustomSearchImageRepository) FetchActivityImage(ctx context.Context, activityName, city string) (string, error) {
	query := activityName + " " + city
	result, err := r.service.Cse.List().
		Context(ctx).
		Cx(r.engineID).
		Q(query).
		SearchType("image").
		Num(1).
		Do()
	if err != nil {
		return "", fmt.Errorf("image search for %q: %w", query, err)
	}
	if len(result.Items) == 0 {
		return "", nil
	}
	return result.Items[0].Link, nil
}
