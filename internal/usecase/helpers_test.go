package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/usecase"
	"tripline-service/pkg/logger"
	"tripline-service/templates"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Fatal(msg string, keysAndValues ...interface{}) {}
func (l nopLogger) With(keysAndValues ...interface{}) logger.Logger {
	return l
}

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

type stubCityDefaults struct {
	rows map[string]entity.CityDefault
}

func (s stubCityDefaults) GetByCityName(ctx context.Context, city string) (*entity.CityDefault, error) {
	if row, ok := s.rows[city]; ok {
		return &row, nil
	}
	return nil, nil
}

func testCityDefaults() stubCityDefaults {
	return stubCityDefaults{rows: map[string]entity.CityDefault{
		"London":    {CityName: "London", RecommendedNights: 3, AirportCode: "LHR"},
		"Lisbon":    {CityName: "Lisbon", RecommendedNights: 3, AirportCode: "LIS"},
		"Porto":     {CityName: "Porto", RecommendedNights: 2, AirportCode: "OPO"},
		"Madrid":    {CityName: "Madrid", RecommendedNights: 2, AirportCode: "MAD"},
		"Barcelona": {CityName: "Barcelona", RecommendedNights: 3, AirportCode: "BCN"},
	}}
}

type stubTransportOptions struct {
	options map[string][]entity.TransportOption
	err     error
}

func pairKey(from, to string) string {
	return from + "->" + to
}

func (s stubTransportOptions) OptionsBetween(ctx context.Context, fromCity, toCity string) ([]entity.TransportOption, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.options[pairKey(fromCity, toCity)], nil
}

// lisbonPortoOptions returns a lookup with a recommended train for the
// Lisbon-Porto pair.
func lisbonPortoOptions() stubTransportOptions {
	return stubTransportOptions{options: map[string][]entity.TransportOption{
		pairKey("Lisbon", "Porto"): {
			{Mode: entity.ModeTrain, DurationMinutes: 175, DurationLabel: "2h 55m", Operator: "CP Alfa Pendular", Recommended: true},
			{Mode: entity.ModeBus, DurationMinutes: 210, DurationLabel: "3h 30m", Operator: "FlixBus"},
		},
	}}
}

type stubModeRouter struct {
	renderers []usecase.TransportRenderer
}

func (r *stubModeRouter) Register(renderer usecase.TransportRenderer) {
	r.renderers = append(r.renderers, renderer)
}

func (r *stubModeRouter) GetRenderer(mode entity.TransportMode) usecase.TransportRenderer {
	for _, renderer := range r.renderers {
		if renderer.CanRender(mode) {
			return renderer
		}
	}
	return nil
}

func testModeRouter() usecase.ModeRouter {
	router := &stubModeRouter{}
	router.Register(templates.NewFlightLegRenderer(nopLogger{}))
	router.Register(templates.NewGroundLegRenderer(nopLogger{}))
	router.Register(templates.NewFerryLegRenderer(nopLogger{}))
	return router
}

func testExpander(options stubTransportOptions) *usecase.DayExpander {
	return usecase.NewDayExpander(testCityDefaults(), options, testModeRouter(), nopLogger{})
}

type stubTrips struct {
	mu    sync.Mutex
	byID  map[string]*entity.Trip
	saves int
}

func newStubTrips() *stubTrips {
	return &stubTrips{byID: make(map[string]*entity.Trip)}
}

func (s *stubTrips) FindByID(ctx context.Context, id string) (*entity.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trip, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *trip
	return &copied, nil
}

func (s *stubTrips) Upsert(ctx context.Context, trip *entity.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *trip
	s.byID[trip.ID] = &copied
	s.saves++
	return nil
}

func (s *stubTrips) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type stubEnrichment struct {
	mu          sync.Mutex
	suggestions []entity.Activity
	err         error
	hook        func()
	calls       int
	lastExclude []string
}

func (s *stubEnrichment) SuggestActivities(ctx context.Context, city string, nights int, preferences, excludeNames []string) ([]entity.Activity, error) {
	s.mu.Lock()
	s.calls++
	s.lastExclude = append([]string(nil), excludeNames...)
	hook := s.hook
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if s.err != nil {
		return nil, s.err
	}
	return append([]entity.Activity(nil), s.suggestions...), nil
}

type stubImages struct {
	mu    sync.Mutex
	url   string
	calls int
}

func (s *stubImages) FetchActivityImage(ctx context.Context, activityName, city string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.url, nil
}

func (s *stubImages) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type callbackRecorder struct {
	mu         sync.Mutex
	allocCalls int
	daysCalls  int
	datesCalls int
	lastAllocs []entity.CityAllocation
	lastDays   []entity.Day
}

func (r *callbackRecorder) callbacks() usecase.PlannerCallbacks {
	return usecase.PlannerCallbacks{
		OnAllocationsChange: func(allocations []entity.CityAllocation) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.allocCalls++
			r.lastAllocs = allocations
		},
		OnGeneratedDaysChange: func(days []entity.Day) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.daysCalls++
			r.lastDays = days
		},
		OnDatesChange: func(startDate time.Time, totalDays int) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.datesCalls++
		},
	}
}

func (r *callbackRecorder) counts() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocCalls, r.daysCalls, r.datesCalls
}

func mustStay(t *testing.T, activityType entity.ActivityType, name string) entity.Activity {
	t.Helper()
	activity, err := entity.NewStayActivity(activityType, name, "", nil)
	if err != nil {
		t.Fatalf("build stay activity %s: %v", name, err)
	}
	return activity
}

func newTestPlanner(t *testing.T, cities []string, totalDays int, mutate func(*usecase.PlannerParams)) *usecase.TripPlanner {
	t.Helper()
	allocator := usecase.NewAllocator(testCityDefaults(), nopLogger{})
	reconciler := usecase.NewReconciler(testExpander(lisbonPortoOptions()), nil, nopLogger{})

	params := usecase.PlannerParams{
		TripID:     "trip-1",
		Name:       "Iberia",
		HomeBase:   "London",
		Cities:     cities,
		Window:     entity.TripWindow{StartDate: date(2025, 3, 1), TotalDays: totalDays},
		Allocator:  allocator,
		Reconciler: reconciler,
		Logger:     nopLogger{},
	}
	if mutate != nil {
		mutate(&params)
	}
	planner, err := usecase.NewTripPlanner(context.Background(), params)
	if err != nil {
		t.Fatalf("new planner: %v", err)
	}
	return planner
}
