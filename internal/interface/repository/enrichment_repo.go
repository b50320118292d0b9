package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/domain/repository"
	"tripline-service/pkg/logger"

	"golang.org/x/oauth2"
)

// HTTPEnrichmentRepository calls the remote activity-suggestion API. A
// failed call surfaces as an error; no placeholder content is ever
// fabricated on this path.
type HTTPEnrichmentRepository struct {
	logger  logger.Logger
	baseURL string
	client  *http.Client
}

// NewHTTPEnrichmentRepository creates a new enrichment repository. The
// token source authenticates requests via the client-credentials flow.
func NewHTTPEnrichmentRepository(baseURL string, tokenSource oauth2.TokenSource, logger logger.Logger) repository.EnrichmentRepository {
	client := &http.Client{Timeout: 30 * time.Second}
	if tokenSource != nil {
		client = oauth2.NewClient(context.Background(), tokenSource)
		client.Timeout = 30 * time.Second
	}
	return &HTTPEnrichmentRepository{
		logger:  logger,
		baseURL: baseURL,
		client:  client,
	}
}

type suggestRequest struct {
	City         string   `json:"city"`
	Nights       int      `json:"nights"`
	Preferences  []string `json:"preferences,omitempty"`
	ExcludeNames []string `json:"excludeNames,omitempty"`
}

type suggestedActivity struct {
	Type            string   `json:"type"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	SuggestedTime   string   `json:"suggestedTime"`
	DurationMinutes int      `json:"durationMinutes"`
	Tags            []string `json:"tags"`
}

type suggestResponse struct {
	Activities []suggestedActivity `json:"activities"`
}

// SuggestActivities requests activity suggestions for a city stay
func (r *HTTPEnrichmentRepository) SuggestActivities(ctx context.Context, city string, nights int, preferences, excludeNames []string) ([]entity.Activity, error) {
	body, err := json.Marshal(suggestRequest{
		City:         city,
		Nights:       nights,
		Preferences:  preferences,
		ExcludeNames: excludeNames,
	})
	if err != nil {
		return nil, fmt.Errorf("encode suggestion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/activities/suggest", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build suggestion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call enrichment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("enrichment service returned status %d", resp.StatusCode)
	}

	var decoded suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode suggestion response: %w", err)
	}

	activities := make([]entity.Activity, 0, len(decoded.Activities))
	for _, s := range decoded.Activities {
		activity, err := entity.NewStayActivity(entity.ActivityType(s.Type), s.Name, s.Description, s.Tags)
		if err != nil {
			r.logger.Warn("Skipping suggestion with invalid type", "type", s.Type, "name", s.Name)
			continue
		}
		activity.SuggestedTime = s.SuggestedTime
		activity.DurationMinutes = s.DurationMinutes
		activities = append(activities, activity)
	}
	return activities, nil
}
