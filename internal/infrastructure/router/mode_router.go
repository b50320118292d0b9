package router

import (
	"tripline-service/internal/domain/entity"
	"tripline-service/internal/usecase"
	"tripline-service/pkg/logger"
)

// ModeRouter routes transport legs to renderers based on transport mode
type ModeRouter struct {
	renderers []usecase.TransportRenderer
	logger    logger.Logger
}

// NewModeRouter creates a new mode router
func NewModeRouter(logger logger.Logger) *ModeRouter {
	return &ModeRouter{
		renderers: make([]usecase.TransportRenderer, 0),
		logger:    logger,
	}
}

// Register registers a renderer for the modes it handles
func (r *ModeRouter) Register(renderer usecase.TransportRenderer) {
	r.renderers = append(r.renderers, renderer)
	r.logger.Info("Registered transport renderer", "renderer", renderer)
}

// GetRenderer returns the appropriate renderer for a given mode
func (r *ModeRouter) GetRenderer(mode entity.TransportMode) usecase.TransportRenderer {
	for _, renderer := range r.renderers {
		if renderer.CanRender(mode) {
			return renderer
		}
	}
	return nil
}
