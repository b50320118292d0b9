package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/domain/repository"
	"tripline-service/pkg/logger"
	"tripline-service/pkg/metrics"
	"tripline-service/pkg/utils"

	"golang.org/x/time/rate"
)

var (
	ErrAllocationIndex      = errors.New("allocation index out of range")
	ErrInvalidNightCount    = errors.New("nights must be at least 1")
	ErrNotTransit           = errors.New("allocation is not a transit leg")
	ErrDayNotFound          = errors.New("day not found")
	ErrActivityNotFound     = errors.New("activity not found")
	ErrUnknownTransportMode = errors.New("unknown transport mode")
)

// DefaultUndoExpiry bounds how long a deleted activity stays recoverable.
const DefaultUndoExpiry = 30 * time.Second

// PlannerCallbacks are the outward notifications to the host. They fire
// only after the host has confirmed its initial load, and only with
// non-empty payloads.
type PlannerCallbacks struct {
	OnAllocationsChange   func([]entity.CityAllocation)
	OnGeneratedDaysChange func([]entity.Day)
	OnDatesChange         func(startDate time.Time, totalDays int)
}

// PlannerParams wires a TripPlanner's collaborators and initial state.
type PlannerParams struct {
	TripID        string
	Name          string
	HomeBase      string
	Cities        []string
	Window        entity.TripWindow
	FirstLegRoute []entity.RouteSegment
	UndoExpiry    time.Duration

	Allocator  *Allocator
	Reconciler *Reconciler
	Trips      repository.TripRepository
	Enrichment repository.EnrichmentRepository
	Images     repository.ImageRepository
	ImageRate  *rate.Limiter
	Metrics    *metrics.Metrics
	Logger     logger.Logger
	Callbacks  PlannerCallbacks

	// Now overrides the clock, for tests.
	Now func() time.Time
}

type undoSlot struct {
	activity      entity.Activity
	dayNumber     int
	originalIndex int
	expiresAt     time.Time
	seq           int
}

// TripPlanner owns the allocation list and day timeline of one trip and
// keeps them consistent across user mutations. It computes sensible
// defaults synchronously at construction but holds all outward
// propagation behind a one-way load latch, so freshly generated
// defaults can never clobber previously saved state that is still
// hydrating.
type TripPlanner struct {
	mu sync.Mutex

	id            string
	name          string
	homeBase      string
	cities        []string
	window        entity.TripWindow
	allocations   []entity.CityAllocation
	days          []entity.Day
	firstLegRoute []entity.RouteSegment

	loaded      bool
	undo        *undoSlot
	undoSeq     int
	undoExpiry  time.Duration
	dayVersions map[int]int
	// imageRequested dedupes enrichment submissions per activity id for
	// the lifetime of the planner. No external mutation API.
	imageRequested map[string]struct{}

	allocator  *Allocator
	reconciler *Reconciler
	trips      repository.TripRepository
	enrichment repository.EnrichmentRepository
	images     repository.ImageRepository
	imageRate  *rate.Limiter
	metrics    *metrics.Metrics
	callbacks  PlannerCallbacks
	logger     logger.Logger
	now        func() time.Time
}

// NewTripPlanner builds the planner and computes the default allocation
// and day timeline for its cities. It propagates nothing until
// ConfirmLoaded is called.
func NewTripPlanner(ctx context.Context, params PlannerParams) (*TripPlanner, error) {
	p := &TripPlanner{
		id:             params.TripID,
		name:           params.Name,
		homeBase:       params.HomeBase,
		cities:         append([]string(nil), params.Cities...),
		window:         params.Window,
		firstLegRoute:  params.FirstLegRoute,
		undoExpiry:     params.UndoExpiry,
		dayVersions:    make(map[int]int),
		imageRequested: make(map[string]struct{}),
		allocator:      params.Allocator,
		reconciler:     params.Reconciler,
		trips:          params.Trips,
		enrichment:     params.Enrichment,
		images:         params.Images,
		imageRate:      params.ImageRate,
		metrics:        params.Metrics,
		callbacks:      params.Callbacks,
		logger:         params.Logger,
		now:            params.Now,
	}
	if p.undoExpiry <= 0 {
		p.undoExpiry = DefaultUndoExpiry
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.window.StartDate = utils.TruncateToDay(p.window.StartDate)

	allocations, err := p.allocator.Allocate(ctx, p.cities, p.window.TotalNights(), p.window.StartDate)
	if err != nil {
		return nil, err
	}
	p.allocations = allocations

	days, _, err := p.reconciler.Reconcile(ctx, p.allocations, nil, p.homeBase, p.firstLegRoute)
	if err != nil {
		return nil, err
	}
	p.setDaysLocked(days)
	return p, nil
}

// ConfirmLoaded is signaled once by the host after it has attempted to
// hydrate previously persisted state. Persisted allocations whose city
// set no longer matches the current city list are treated as a cache
// miss and discarded in favor of the computed defaults.
func (p *TripPlanner) ConfirmLoaded(ctx context.Context, persisted *entity.Trip) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return
	}
	if persisted != nil && len(persisted.Allocations) > 0 {
		if sameCitySet(entity.StayCities(persisted.Allocations), p.cities) {
			p.window = persisted.Window
			p.allocations = persisted.Allocations
			// The persisted visit order wins over the construction order,
			// or later reorders would index a stale city list.
			p.cities = entity.StayCities(p.allocations)
			p.setDaysLocked(persisted.Days)
			p.logger.Info("Hydrated persisted trip state", "tripID", p.id, "days", len(p.days))
		} else {
			p.logger.Info("Persisted allocations no longer match city list, regenerating defaults", "tripID", p.id)
		}
	}
	p.loaded = true
	p.propagateLocked(true)
}

// SetNights changes one allocation's night count and reconciles. The
// nights sum is never auto-corrected against the window; use Balance to
// surface the difference.
func (p *TripPlanner) SetNights(ctx context.Context, allocationIndex, nights int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if allocationIndex < 0 || allocationIndex >= len(p.allocations) {
		return ErrAllocationIndex
	}
	if nights < 1 {
		return ErrInvalidNightCount
	}
	p.allocations[allocationIndex].Nights = nights
	return p.applyStructuralLocked(ctx)
}

// MoveCity reorders the stay at city-list position from to position to.
// Transit legs keep their list positions; nights stay attached to their
// cities.
func (p *TripPlanner) MoveCity(ctx context.Context, from, to int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if from < 0 || from >= len(p.cities) || to < 0 || to >= len(p.cities) {
		return ErrAllocationIndex
	}
	if from == to {
		return nil
	}

	city := p.cities[from]
	p.cities = append(p.cities[:from], p.cities[from+1:]...)
	rest := append([]string(nil), p.cities[to:]...)
	p.cities = append(append(p.cities[:to:to], city), rest...)

	p.reorderStaysLocked()
	return p.applyStructuralLocked(ctx)
}

// SetCities replaces the city list. A reordering of the same cities
// preserves their allocations; an incompatible change regenerates the
// allocation list from scratch, with the reconciler carrying surviving
// cities' content across.
func (p *TripPlanner) SetCities(ctx context.Context, cities []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := append([]string(nil), cities...)
	if sameCitySet(next, p.cities) {
		p.cities = next
		p.reorderStaysLocked()
		return p.applyStructuralLocked(ctx)
	}

	allocations, err := p.allocator.Allocate(ctx, next, p.window.TotalNights(), p.window.StartDate)
	if err != nil {
		return err
	}
	p.cities = next
	p.allocations = allocations
	return p.applyStructuralLocked(ctx)
}

// InsertTransit inserts a 1-night transit leg after the given
// allocation index.
func (p *TripPlanner) InsertTransit(ctx context.Context, afterIndex int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if afterIndex < 0 || afterIndex >= len(p.allocations) {
		return ErrAllocationIndex
	}
	transit := entity.CityAllocation{City: entity.TransitCity, Nights: 1}
	p.allocations = append(p.allocations[:afterIndex+1],
		append([]entity.CityAllocation{transit}, p.allocations[afterIndex+1:]...)...)
	return p.applyStructuralLocked(ctx)
}

// RemoveTransit removes the transit leg at the given allocation index.
func (p *TripPlanner) RemoveTransit(ctx context.Context, index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.allocations) {
		return ErrAllocationIndex
	}
	if !p.allocations[index].IsTransit() {
		return ErrNotTransit
	}
	p.allocations = append(p.allocations[:index], p.allocations[index+1:]...)
	return p.applyStructuralLocked(ctx)
}

// SetStartDate shifts the whole timeline to a new start date. City and
// day-count mapping is unchanged, so dates are patched in place without
// running the structural merge.
func (p *TripPlanner) SetStartDate(ctx context.Context, startDate time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.window.StartDate = utils.TruncateToDay(startDate)
	RecalcDates(p.allocations, p.window.StartDate)
	for i := range p.days {
		p.days[i].Date = utils.AddDays(p.window.StartDate, p.days[i].DayNumber-1)
	}
	p.propagateLocked(true)
	return p.persistLocked(ctx)
}

// SetTotalDays resizes the trip window. Night counts already assigned
// to cities are left alone; a non-zero Balance tells the host the user
// must rebalance or auto-allocate.
func (p *TripPlanner) SetTotalDays(ctx context.Context, totalDays int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if totalDays < 2 {
		return ErrInsufficientDuration
	}
	p.window.TotalDays = totalDays
	p.propagateLocked(true)
	return p.persistLocked(ctx)
}

// AutoAllocate rebuilds the allocation list from the recommended-nights
// defaults for the current window, then merges existing day content in.
func (p *TripPlanner) AutoAllocate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	allocations, err := p.allocator.Allocate(ctx, p.cities, p.window.TotalNights(), p.window.StartDate)
	if err != nil {
		return err
	}
	p.allocations = allocations
	return p.applyStructuralLocked(ctx)
}

// SetTransportOverride pins the transport mode of the transit leg that
// departs the given stay allocation. The affected transit activities
// are regenerated wholesale.
func (p *TripPlanner) SetTransportOverride(ctx context.Context, allocationIndex int, mode entity.TransportMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if allocationIndex < 0 || allocationIndex >= len(p.allocations) {
		return ErrAllocationIndex
	}
	if p.allocations[allocationIndex].IsTransit() {
		return ErrNotTransit
	}
	switch mode {
	case "", entity.ModeFlight, entity.ModeTrain, entity.ModeBus, entity.ModeDrive, entity.ModeFerry:
	default:
		return ErrUnknownTransportMode
	}
	p.allocations[allocationIndex].TransportModeOverride = mode
	if err := p.regenerateTransitsLocked(ctx); err != nil {
		return err
	}
	p.propagateLocked(false)
	return p.persistLocked(ctx)
}

// Balance returns allocated nights minus the window's night budget.
func (p *TripPlanner) Balance() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return NightBalance(p.allocations, p.window)
}

// Loaded reports whether the host has confirmed its initial load.
func (p *TripPlanner) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// Snapshot returns a copy of the trip's current state.
func (p *TripPlanner) Snapshot() entity.Trip {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// DeleteActivity removes an activity from a day and arms the single
// undo slot, replacing any prior entry and restarting the expiry timer.
func (p *TripPlanner) DeleteActivity(ctx context.Context, dayNumber int, activityID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	day, err := p.dayLocked(dayNumber)
	if err != nil {
		return err
	}
	idx := -1
	for i, activity := range day.Activities {
		if activity.ID == activityID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrActivityNotFound
	}

	p.undoSeq++
	p.undo = &undoSlot{
		activity:      day.Activities[idx],
		dayNumber:     dayNumber,
		originalIndex: idx,
		expiresAt:     p.now().Add(p.undoExpiry),
		seq:           p.undoSeq,
	}
	day.Activities = append(day.Activities[:idx], day.Activities[idx+1:]...)

	seq := p.undoSeq
	time.AfterFunc(p.undoExpiry, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.undo != nil && p.undo.seq == seq {
			p.undo = nil
		}
	})

	p.propagateLocked(false)
	return p.persistLocked(ctx)
}

// UndoDelete restores the most recently deleted activity at its
// original position. It reports whether anything was restored; after
// the expiry it is a no-op.
func (p *TripPlanner) UndoDelete(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.undo == nil {
		return false, nil
	}
	if p.now().After(p.undo.expiresAt) {
		p.undo = nil
		return false, nil
	}

	day, err := p.dayLocked(p.undo.dayNumber)
	if err != nil {
		p.undo = nil
		return false, nil
	}
	idx := p.undo.originalIndex
	if idx > len(day.Activities) {
		idx = len(day.Activities)
	}
	day.Activities = append(day.Activities[:idx],
		append([]entity.Activity{p.undo.activity}, day.Activities[idx:]...)...)
	p.undo = nil

	p.propagateLocked(false)
	return true, p.persistLocked(ctx)
}

// MoveActivity reorders an activity within its day and recomputes every
// activity's suggested time from its new position. Transport activities
// are not exempt.
func (p *TripPlanner) MoveActivity(ctx context.Context, dayNumber, fromIndex, toIndex int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	day, err := p.dayLocked(dayNumber)
	if err != nil {
		return err
	}
	n := len(day.Activities)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		return ErrActivityNotFound
	}
	if fromIndex != toIndex {
		activity := day.Activities[fromIndex]
		day.Activities = append(day.Activities[:fromIndex], day.Activities[fromIndex+1:]...)
		day.Activities = append(day.Activities[:toIndex],
			append([]entity.Activity{activity}, day.Activities[toIndex:]...)...)
	}
	for i := range day.Activities {
		day.Activities[i].SuggestedTime = utils.SlotTime(i)
	}

	p.propagateLocked(false)
	return p.persistLocked(ctx)
}

// ActivityPatch is a partial field update applied by activity id. Nil
// fields are left untouched; patches never change day structure.
type ActivityPatch struct {
	SuggestedTime      *string
	DurationMinutes    *int
	UserCost           *float64
	AddAttachment      *entity.Attachment
	RemoveAttachmentID *string
}

// UpdateActivity applies a field patch to one activity.
func (p *TripPlanner) UpdateActivity(ctx context.Context, dayNumber int, activityID string, patch ActivityPatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	day, err := p.dayLocked(dayNumber)
	if err != nil {
		return err
	}
	for i := range day.Activities {
		activity := &day.Activities[i]
		if activity.ID != activityID {
			continue
		}
		if patch.SuggestedTime != nil {
			activity.SuggestedTime = *patch.SuggestedTime
		}
		if patch.DurationMinutes != nil {
			activity.DurationMinutes = *patch.DurationMinutes
		}
		if patch.UserCost != nil {
			activity.UserCost = *patch.UserCost
		}
		if patch.AddAttachment != nil {
			activity.Attachments = append(activity.Attachments, *patch.AddAttachment)
		}
		if patch.RemoveAttachmentID != nil {
			for j, att := range activity.Attachments {
				if att.ID == *patch.RemoveAttachmentID {
					activity.Attachments = append(activity.Attachments[:j], activity.Attachments[j+1:]...)
					break
				}
			}
		}
		p.propagateLocked(false)
		return p.persistLocked(ctx)
	}
	return ErrActivityNotFound
}

// applyStructuralLocked recomputes day ranges, reconciles the timeline
// and pushes the result outward. Callers hold the mutex.
func (p *TripPlanner) applyStructuralLocked(ctx context.Context) error {
	RecalcDates(p.allocations, p.window.StartDate)
	days, outcome, err := p.reconciler.Reconcile(ctx, p.allocations, p.days, p.homeBase, p.firstLegRoute)
	if err != nil {
		return err
	}
	if outcome != ReconcileNoop {
		p.setDaysLocked(days)
	}
	p.propagateLocked(false)
	return p.persistLocked(ctx)
}

// regenerateTransitsLocked rebuilds the synthesized transport
// activities on every day that carries one, keeping user content in
// place. Transport activities are never hand-edited on this path; they
// are replaced wholesale.
func (p *TripPlanner) regenerateTransitsLocked(ctx context.Context) error {
	skeleton, _, err := p.reconciler.Reconcile(ctx, p.allocations, nil, p.homeBase, p.firstLegRoute)
	if err != nil {
		return err
	}
	for i := range p.days {
		if i >= len(skeleton) {
			break
		}
		kept := make([]entity.Activity, 0, len(p.days[i].Activities))
		for _, activity := range p.days[i].Activities {
			if !activity.IsTransport() {
				kept = append(kept, activity)
			}
		}
		fresh := make([]entity.Activity, 0, len(skeleton[i].Activities))
		for _, activity := range skeleton[i].Activities {
			if activity.IsTransport() {
				fresh = append(fresh, activity)
			}
		}
		p.days[i].Activities = append(fresh, kept...)
		p.dayVersions[p.days[i].DayNumber]++
	}
	return nil
}

// setDaysLocked swaps in a new day list and advances every day's
// generation counter so stale async results get discarded.
func (p *TripPlanner) setDaysLocked(days []entity.Day) {
	p.days = days
	for i := range days {
		p.dayVersions[days[i].DayNumber]++
	}
	for n := range p.dayVersions {
		if n > len(days) {
			delete(p.dayVersions, n)
		}
	}
}

func (p *TripPlanner) dayLocked(dayNumber int) (*entity.Day, error) {
	if dayNumber < 1 || dayNumber > len(p.days) {
		return nil, ErrDayNotFound
	}
	return &p.days[dayNumber-1], nil
}

// propagateLocked fires the host callbacks. Nothing leaves the planner
// before the load latch opens, and empty payloads are never sent.
func (p *TripPlanner) propagateLocked(datesChanged bool) {
	if !p.loaded {
		return
	}
	if p.callbacks.OnAllocationsChange != nil && len(p.allocations) > 0 {
		p.callbacks.OnAllocationsChange(append([]entity.CityAllocation(nil), p.allocations...))
	}
	if p.callbacks.OnGeneratedDaysChange != nil && len(p.days) > 0 {
		p.callbacks.OnGeneratedDaysChange(copyDays(p.days))
	}
	if datesChanged && p.callbacks.OnDatesChange != nil {
		p.callbacks.OnDatesChange(p.window.StartDate, p.window.TotalDays)
	}
}

func (p *TripPlanner) persistLocked(ctx context.Context) error {
	if !p.loaded || p.trips == nil {
		return nil
	}
	trip := p.snapshotLocked()
	if err := p.trips.Upsert(ctx, &trip); err != nil {
		p.logger.Error("Failed to persist trip", "tripID", p.id, "error", err)
		if p.metrics != nil {
			p.metrics.ErrorsCount.WithLabelValues("persist").Inc()
		}
		return nil
	}
	if p.metrics != nil {
		p.metrics.TripsSaved.Inc()
	}
	return nil
}

func (p *TripPlanner) snapshotLocked() entity.Trip {
	return entity.Trip{
		ID:          p.id,
		Name:        p.name,
		HomeBase:    p.homeBase,
		Cities:      append([]string(nil), p.cities...),
		Window:      p.window,
		Allocations: append([]entity.CityAllocation(nil), p.allocations...),
		Days:        copyDays(p.days),
	}
}

// reorderStaysLocked rewrites the non-transit allocations to follow the
// current city order, keeping each city's nights and mode override.
func (p *TripPlanner) reorderStaysLocked() {
	byCity := make(map[string][]entity.CityAllocation)
	for _, alloc := range p.allocations {
		if !alloc.IsTransit() {
			byCity[alloc.City] = append(byCity[alloc.City], alloc)
		}
	}
	cityIdx := 0
	for i := range p.allocations {
		if p.allocations[i].IsTransit() {
			continue
		}
		if cityIdx >= len(p.cities) {
			break
		}
		city := p.cities[cityIdx]
		cityIdx++
		if stays := byCity[city]; len(stays) > 0 {
			p.allocations[i] = stays[0]
			byCity[city] = stays[1:]
		}
	}
}

func copyDays(days []entity.Day) []entity.Day {
	out := make([]entity.Day, len(days))
	copy(out, days)
	for i := range out {
		out[i].Activities = append([]entity.Activity(nil), days[i].Activities...)
	}
	return out
}

func sameCitySet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, city := range a {
		counts[city]++
	}
	for _, city := range b {
		counts[city]--
		if counts[city] < 0 {
			return false
		}
	}
	return true
}
