package templates

import (
	"fmt"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/usecase"
	"tripline-service/pkg/logger"
)

// FlightLegRenderer renders flight legs using airport-code abbreviations
type FlightLegRenderer struct {
	logger logger.Logger
}

// NewFlightLegRenderer creates a new flight leg renderer
func NewFlightLegRenderer(logger logger.Logger) *FlightLegRenderer {
	return &FlightLegRenderer{logger: logger}
}

// CanRender determines if this renderer handles the given mode
func (r *FlightLegRenderer) CanRender(mode entity.TransportMode) bool {
	return mode == entity.ModeFlight
}

// Render builds the flight activity for the leg
func (r *FlightLegRenderer) Render(leg usecase.TransportLeg) (entity.Activity, error) {
	name := fmt.Sprintf("Flight %s - %s", leg.FromCode, leg.ToCode)
	activity, err := entity.NewTransportActivity(entity.ActivityFlight, name, entity.TransportDetails{
		From:     leg.FromCity,
		To:       leg.ToCity,
		Operator: leg.Operator,
	})
	if err != nil {
		return entity.Activity{}, err
	}

	desc := fmt.Sprintf("Fly from %s (%s) to %s (%s)", leg.FromCity, leg.FromCode, leg.ToCity, leg.ToCode)
	if leg.Operator != "" {
		desc += " with " + leg.Operator
	}
	if leg.DurationLabel != "" {
		desc += fmt.Sprintf(", approx. %s", leg.DurationLabel)
	}
	activity.Description = desc
	activity.DurationMinutes = leg.DurationMinutes
	activity.Tags = []string{"transport", "flight"}
	return activity, nil
}
