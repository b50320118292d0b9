package usecase

import (
	"tripline-service/internal/domain/entity"
)

// TransportLeg describes one travel hop to be rendered into a transport
// activity.
type TransportLeg struct {
	Mode            entity.TransportMode
	FromCity        string
	ToCity          string
	FromCode        string
	ToCode          string
	Operator        string
	DurationLabel   string
	DurationMinutes int
}

// TransportRenderer defines the interface for mode-specific transport
// activity renderers
type TransportRenderer interface {
	// CanRender determines if this renderer handles the given mode
	CanRender(mode entity.TransportMode) bool

	// Render builds the transport activity for the leg
	Render(leg TransportLeg) (entity.Activity, error)
}

// ModeRouter routes transport legs to the appropriate renderer by mode
type ModeRouter interface {
	// Register registers a renderer for the modes it handles
	Register(renderer TransportRenderer)

	// GetRenderer returns the appropriate renderer for a given mode
	GetRenderer(mode entity.TransportMode) TransportRenderer
}
