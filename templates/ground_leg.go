package templates

import (
	"fmt"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/usecase"
	"tripline-service/pkg/logger"
)

var groundModes = map[entity.TransportMode]entity.ActivityType{
	entity.ModeTrain: entity.ActivityTrain,
	entity.ModeBus:   entity.ActivityBus,
	entity.ModeDrive: entity.ActivityDrive,
}

var groundVerbs = map[entity.TransportMode]string{
	entity.ModeTrain: "Train",
	entity.ModeBus:   "Bus",
	entity.ModeDrive: "Drive",
}

// GroundLegRenderer renders train, bus and drive legs
type GroundLegRenderer struct {
	logger logger.Logger
}

// NewGroundLegRenderer creates a new ground leg renderer
func NewGroundLegRenderer(logger logger.Logger) *GroundLegRenderer {
	return &GroundLegRenderer{logger: logger}
}

// CanRender determines if this renderer handles the given mode
func (r *GroundLegRenderer) CanRender(mode entity.TransportMode) bool {
	_, ok := groundModes[mode]
	return ok
}

// Render builds the ground transport activity for the leg
func (r *GroundLegRenderer) Render(leg usecase.TransportLeg) (entity.Activity, error) {
	activityType, ok := groundModes[leg.Mode]
	if !ok {
		return entity.Activity{}, entity.ErrUnknownActivityType
	}

	name := fmt.Sprintf("%s to %s", groundVerbs[leg.Mode], leg.ToCity)
	activity, err := entity.NewTransportActivity(activityType, name, entity.TransportDetails{
		From:     leg.FromCity,
		To:       leg.ToCity,
		Operator: leg.Operator,
	})
	if err != nil {
		return entity.Activity{}, err
	}

	desc := fmt.Sprintf("%s from %s to %s", groundVerbs[leg.Mode], leg.FromCity, leg.ToCity)
	if leg.Operator != "" {
		desc += " with " + leg.Operator
	}
	if leg.DurationLabel != "" {
		desc += fmt.Sprintf(", approx. %s", leg.DurationLabel)
	}
	activity.Description = desc
	activity.DurationMinutes = leg.DurationMinutes
	activity.Tags = []string{"transport", string(leg.Mode)}
	return activity, nil
}
