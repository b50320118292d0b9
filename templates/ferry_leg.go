package templates

import (
	"fmt"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/usecase"
	"tripline-service/pkg/logger"
)

// FerryLegRenderer renders ferry crossings
type FerryLegRenderer struct {
	logger logger.Logger
}

// NewFerryLegRenderer creates a new ferry leg renderer
func NewFerryLegRenderer(logger logger.Logger) *FerryLegRenderer {
	return &FerryLegRenderer{logger: logger}
}

// CanRender determines if this renderer handles the given mode
func (r *FerryLegRenderer) CanRender(mode entity.TransportMode) bool {
	return mode == entity.ModeFerry
}

// Render builds the ferry activity for the leg
func (r *FerryLegRenderer) Render(leg usecase.TransportLeg) (entity.Activity, error) {
	name := fmt.Sprintf("Ferry to %s", leg.ToCity)
	activity, err := entity.NewTransportActivity(entity.ActivityFerry, name, entity.TransportDetails{
		From:     leg.FromCity,
		To:       leg.ToCity,
		Operator: leg.Operator,
	})
	if err != nil {
		return entity.Activity{}, err
	}

	desc := fmt.Sprintf("Ferry crossing from %s to %s", leg.FromCity, leg.ToCity)
	if leg.Operator != "" {
		desc += " with " + leg.Operator
	}
	if leg.DurationLabel != "" {
		desc += fmt.Sprintf(", approx. %s", leg.DurationLabel)
	}
	activity.Description = desc
	activity.DurationMinutes = leg.DurationMinutes
	activity.Tags = []string{"transport", "ferry"}
	return activity, nil
}
