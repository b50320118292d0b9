package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/domain/repository"
	"tripline-service/internal/usecase"
	"tripline-service/pkg/logger"
	"tripline-service/pkg/metrics"
	"tripline-service/pkg/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

const dateLayout = "2006-01-02"

// PlannerDeps bundles the collaborators a trip planner is built from.
type PlannerDeps struct {
	Allocator  *usecase.Allocator
	Reconciler *usecase.Reconciler
	Trips      repository.TripRepository
	Enrichment repository.EnrichmentRepository
	Images     repository.ImageRepository
	ImageRate  *rate.Limiter
	Metrics    *metrics.Metrics
	Logger     logger.Logger
	HomeBase   string
	UndoExpiry time.Duration
}

// TripHandler exposes the planner engine over HTTP. One planner
// instance lives per trip id for the lifetime of the process.
type TripHandler struct {
	deps     PlannerDeps
	logger   logger.Logger
	mu       sync.Mutex
	planners map[string]*usecase.TripPlanner
}

// NewTripHandler creates a new trip handler
func NewTripHandler(deps PlannerDeps) *TripHandler {
	return &TripHandler{
		deps:     deps,
		logger:   deps.Logger,
		planners: make(map[string]*usecase.TripPlanner),
	}
}

// Routes registers all trip routes
func (h *TripHandler) Routes(router *httprouter.Router) {
	router.POST("/api/trips", h.CreateTrip)
	router.GET("/api/trips/:id", h.GetTrip)
	router.POST("/api/trips/:id/nights", h.SetNights)
	router.POST("/api/trips/:id/reorder", h.MoveCity)
	router.POST("/api/trips/:id/cities", h.SetCities)
	router.POST("/api/trips/:id/start-date", h.SetStartDate)
	router.POST("/api/trips/:id/total-days", h.SetTotalDays)
	router.POST("/api/trips/:id/auto-allocate", h.AutoAllocate)
	router.POST("/api/trips/:id/transit", h.InsertTransit)
	router.DELETE("/api/trips/:id/transit/:index", h.RemoveTransit)
	router.POST("/api/trips/:id/transport-mode", h.SetTransportOverride)
	router.POST("/api/trips/:id/days/:day/autofill", h.AutoFillDay)
	router.POST("/api/trips/:id/enrich-images", h.EnrichImages)
	router.DELETE("/api/trips/:id/days/:day/activities/:activityId", h.DeleteActivity)
	router.POST("/api/trips/:id/undo", h.UndoDelete)
	router.POST("/api/trips/:id/days/:day/activities/:activityId/move", h.MoveActivity)
	router.PATCH("/api/trips/:id/days/:day/activities/:activityId", h.UpdateActivity)
}

type createTripRequest struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	HomeBase  string   `json:"homeBase"`
	Cities    []string `json:"cities"`
	StartDate string   `json:"startDate"`
	TotalDays int      `json:"totalDays"`
}

// CreateTrip builds a planner for a new or existing trip id. Previously
// persisted state is hydrated before any outward propagation starts.
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Cities) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "At least one city is required")
		return
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	homeBase := req.HomeBase
	if homeBase == "" {
		homeBase = h.deps.HomeBase
	}

	ctx := r.Context()
	planner, err := usecase.NewTripPlanner(ctx, usecase.PlannerParams{
		TripID:     req.ID,
		Name:       req.Name,
		HomeBase:   homeBase,
		Cities:     req.Cities,
		Window:     entity.TripWindow{StartDate: startDate, TotalDays: req.TotalDays},
		UndoExpiry: h.deps.UndoExpiry,
		Allocator:  h.deps.Allocator,
		Reconciler: h.deps.Reconciler,
		Trips:      h.deps.Trips,
		Enrichment: h.deps.Enrichment,
		Images:     h.deps.Images,
		ImageRate:  h.deps.ImageRate,
		Metrics:    h.deps.Metrics,
		Logger:     h.deps.Logger,
	})
	if errors.Is(err, usecase.ErrInsufficientDuration) {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, "Trip must span at least one night")
		return
	}
	if err != nil {
		h.logger.Error("Failed to create planner", "tripID", req.ID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error creating trip")
		return
	}

	persisted, err := h.deps.Trips.FindByID(ctx, req.ID)
	if err != nil {
		h.logger.Error("Failed to load persisted trip", "tripID", req.ID, "error", err)
	}
	planner.ConfirmLoaded(ctx, persisted)

	h.mu.Lock()
	h.planners[req.ID] = planner
	h.mu.Unlock()

	h.respondTrip(w, http.StatusCreated, planner)
}

// GetTrip returns the trip's current state
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	planner, ok := h.planner(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Trip not found")
		return
	}
	h.respondTrip(w, http.StatusOK, planner)
}

// SetNights changes one allocation's night count
func (h *TripHandler) SetNights(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		AllocationIndex int `json:"allocationIndex"`
		Nights          int `json:"nights"`
	}
	h.mutate(w, r, ps, &req, func(planner *usecase.TripPlanner) error {
		return planner.SetNights(r.Context(), req.AllocationIndex, req.Nights)
	})
}

// MoveCity reorders the city list
func (h *TripHandler) MoveCity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	h.mutate(w, r, ps, &req, func(planner *usecase.TripPlanner) error {
		return planner.MoveCity(r.Context(), req.From, req.To)
	})
}

// SetCities replaces the city list
func (h *TripHandler) SetCities(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		Cities []string `json:"cities"`
	}
	h.mutate(w, r, ps, &req, func(planner *usecase.TripPlanner) error {
		return planner.SetCities(r.Context(), req.Cities)
	})
}

// SetStartDate shifts the trip to a new start date
func (h *TripHandler) SetStartDate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		StartDate string `json:"startDate"`
	}
	planner, ok := h.planner(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	if err := planner.SetStartDate(r.Context(), startDate); err != nil {
		h.respondMutationError(w, err)
		return
	}
	h.respondTrip(w, http.StatusOK, planner)
}

// SetTotalDays resizes the trip window
func (h *TripHandler) SetTotalDays(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		TotalDays int `json:"totalDays"`
	}
	h.mutate(w, r, ps, &req, func(planner *usecase.TripPlanner) error {
		return planner.SetTotalDays(r.Context(), req.TotalDays)
	})
}

// AutoAllocate resets the allocation to recommended defaults
func (h *TripHandler) AutoAllocate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	planner, ok := h.planner(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err := planner.AutoAllocate(r.Context()); err != nil {
		h.respondMutationError(w, err)
		return
	}
	h.respondTrip(w, http.StatusOK, planner)
}

// InsertTransit inserts a transit leg after an allocation
func (h *TripHandler) InsertTransit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		AfterIndex int `json:"afterIndex"`
	}
	h.mutate(w, r, ps, &req, func(planner *usecase.TripPlanner) error {
		return planner.InsertTransit(r.Context(), req.AfterIndex)
	})
}

// RemoveTransit removes the transit leg at an allocation index
func (h *TripHandler) RemoveTransit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	planner, ok := h.planner(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Trip not found")
		return
	}
	index, err := strconv.Atoi(ps.ByName("index"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid allocation index")
		return
	}
	if err := planner.RemoveTransit(r.Context(), index); err != nil {
		h.respondMutationError(w, err)
		return
	}
	h.respondTrip(w, http.StatusOK, planner)
}

// SetTransportOverride pins the transport mode departing a stay
func (h *TripHandler) SetTransportOverride(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		AllocationIndex int    `json:"allocationIndex"`
		Mode            string `json:"mode"`
	}
	h.mutate(w, r, ps, &req, func(planner *usecase.TripPlanner) error {
		return planner.SetTransportOverride(r.Context(), req.AllocationIndex, entity.TransportMode(req.Mode))
	})
}

// AutoFillDay requests activity suggestions for one day
func (h *TripHandler) AutoFillDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	planner, ok := h.planner(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Trip not found")
		return
	}
	dayNumber, err := strconv.Atoi(ps.ByName("day"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid day number")
		return
	}
	var req struct {
		Preferences []string `json:"preferences"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if err := planner.AutoFillDay(r.Context(), dayNumber, req.Preferences); err != nil {
		h.respondMutationError(w, err)
		return
	}
	h.respondTrip(w, http.StatusOK, planner)
}

// EnrichImages resolves images for activities that have none
func (h *TripHandler) EnrichImages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	planner, ok := h.planner(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err := planner.EnrichImages(r.Context()); err != nil {
		h.respondMutationError(w, err)
		return
	}
	h.respondTrip(w, http.StatusOK, planner)
}

// DeleteActivity removes an activity, arming the undo slot
func (h *TripHandler) DeleteActivity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	planner, ok := h.planner(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Trip not found")
		return
	}
	dayNumber, err := strconv.Atoi(ps.ByName("day"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid day number")
		return
	}
	if err := planner.DeleteActivity(r.Context(), dayNumber, ps.ByName("activityId")); err != nil {
		h.respondMutationError(w, err)
		return
	}
	h.respondTrip(w, http.StatusOK, planner)
}

// UndoDelete restores the most recently deleted activity
func (h *TripHandler) UndoDelete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	planner, ok := h.planner(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Trip not found")
		return
	}
	restored, err := planner.UndoDelete(r.Context())
	if err != nil {
		h.respondMutationError(w, err)
		return
	}
	trip := planner.Snapshot()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"restored": restored,
		"trip":     trip,
		"balance":  planner.Balance(),
	})
}

// MoveActivity reorders an activity within its day
func (h *TripHandler) MoveActivity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	planner, ok := h.planner(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Trip not found")
		return
	}
	dayNumber, err := strconv.Atoi(ps.ByName("day"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid day number")
		return
	}
	var req struct {
		FromIndex int `json:"fromIndex"`
		ToIndex   int `json:"toIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := planner.MoveActivity(r.Context(), dayNumber, req.FromIndex, req.ToIndex); err != nil {
		h.respondMutationError(w, err)
		return
	}
	h.respondTrip(w, http.StatusOK, planner)
}

// UpdateActivity applies a field patch to one activity
func (h *TripHandler) UpdateActivity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	planner, ok := h.planner(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Trip not found")
		return
	}
	dayNumber, err := strconv.Atoi(ps.ByName("day"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid day number")
		return
	}
	var req struct {
		SuggestedTime      *string            `json:"suggestedTime"`
		DurationMinutes    *int               `json:"durationMinutes"`
		UserCost           *float64           `json:"userCost"`
		AddAttachment      *entity.Attachment `json:"addAttachment"`
		RemoveAttachmentID *string            `json:"removeAttachmentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	patch := usecase.ActivityPatch{
		SuggestedTime:      req.SuggestedTime,
		DurationMinutes:    req.DurationMinutes,
		UserCost:           req.UserCost,
		AddAttachment:      req.AddAttachment,
		RemoveAttachmentID: req.RemoveAttachmentID,
	}
	if err := planner.UpdateActivity(r.Context(), dayNumber, ps.ByName("activityId"), patch); err != nil {
		h.respondMutationError(w, err)
		return
	}
	h.respondTrip(w, http.StatusOK, planner)
}

func (h *TripHandler) planner(id string) (*usecase.TripPlanner, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	planner, ok := h.planners[id]
	return planner, ok
}

// mutate decodes the body, runs the planner operation and responds with
// the updated trip.
func (h *TripHandler) mutate(w http.ResponseWriter, r *http.Request, ps httprouter.Params, req interface{}, op func(*usecase.TripPlanner) error) {
	planner, ok := h.planner(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := op(planner); err != nil {
		h.respondMutationError(w, err)
		return
	}
	h.respondTrip(w, http.StatusOK, planner)
}

func (h *TripHandler) respondMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrInsufficientDuration):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, "Trip must span at least one night")
	case errors.Is(err, usecase.ErrAllocationIndex),
		errors.Is(err, usecase.ErrInvalidNightCount),
		errors.Is(err, usecase.ErrNotTransit),
		errors.Is(err, usecase.ErrUnknownTransportMode),
		errors.Is(err, usecase.ErrTransitDayFill):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrDayNotFound),
		errors.Is(err, usecase.ErrActivityNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("Trip mutation failed", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error updating trip")
	}
}

func (h *TripHandler) respondTrip(w http.ResponseWriter, status int, planner *usecase.TripPlanner) {
	trip := planner.Snapshot()
	utils.RespondWithJSON(w, status, utils.M{
		"trip":    trip,
		"balance": planner.Balance(),
	})
}
