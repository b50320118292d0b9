package usecase

import (
	"context"
	"time"

	"tripline-service/internal/domain/entity"
	"tripline-service/pkg/logger"
	"tripline-service/pkg/metrics"
)

// ReconcileOutcome labels what the reconciler did with the day list.
type ReconcileOutcome string

const (
	// ReconcileNoop means the days already matched the allocations.
	ReconcileNoop ReconcileOutcome = "noop"
	// ReconcileFresh means there were no days and a fresh expansion ran.
	ReconcileFresh ReconcileOutcome = "fresh"
	// ReconcileMerged means a structural change ran the content-preserving merge.
	ReconcileMerged ReconcileOutcome = "merged"
)

// Reconciler keeps the day timeline consistent with the current
// allocation list while preserving user-entered activities. Transport
// activities are regenerated wholesale; non-transport activities are
// redistributed by city and only ever dropped when their city leaves
// the trip entirely.
type Reconciler struct {
	expander *DayExpander
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(expander *DayExpander, metrics *metrics.Metrics, logger logger.Logger) *Reconciler {
	return &Reconciler{
		expander: expander,
		metrics:  metrics,
		logger:   logger,
	}
}

// Reconcile returns the day list matching the allocations. Calling it
// again with unchanged allocations returns the input untouched.
func (r *Reconciler) Reconcile(ctx context.Context, allocations []entity.CityAllocation, days []entity.Day, homeBase string, firstLegRoute []entity.RouteSegment) ([]entity.Day, ReconcileOutcome, error) {
	started := time.Now()
	merged, outcome, err := r.reconcile(ctx, allocations, days, homeBase, firstLegRoute)
	if err != nil {
		if r.metrics != nil {
			r.metrics.ErrorsCount.WithLabelValues("reconcile").Inc()
		}
		return nil, outcome, err
	}
	if r.metrics != nil {
		r.metrics.Reconciliations.WithLabelValues(string(outcome)).Inc()
		r.metrics.ReconcileTime.Observe(time.Since(started).Seconds())
	}
	return merged, outcome, nil
}

func (r *Reconciler) reconcile(ctx context.Context, allocations []entity.CityAllocation, days []entity.Day, homeBase string, firstLegRoute []entity.RouteSegment) ([]entity.Day, ReconcileOutcome, error) {
	dayToCity := expandDayCities(allocations)
	totalDays := entity.TotalDaysOf(allocations)

	if len(days) == totalDays && daysMatch(days, dayToCity) {
		return days, ReconcileNoop, nil
	}

	if len(days) == 0 {
		fresh, err := r.expander.ExpandDays(ctx, allocations, homeBase, firstLegRoute)
		if err != nil {
			return nil, ReconcileFresh, err
		}
		return fresh, ReconcileFresh, nil
	}

	// Structural change: the day count moved or a day changed city.
	// Collect user content grouped by its current city, rebuild the
	// transport-correct skeleton, then redistribute each group across
	// the city's new days with ceiling-division bucketing.
	saved, cityOrder := collectByCity(days)

	skeleton, err := r.expander.ExpandDays(ctx, allocations, homeBase, firstLegRoute)
	if err != nil {
		return nil, ReconcileMerged, err
	}

	// Transit days stay in the map so content a user pinned to a travel
	// day survives; it lands after the synthesized transport activity.
	cityDays := make(map[string][]int)
	for _, day := range skeleton {
		cityDays[day.City] = append(cityDays[day.City], day.DayNumber)
	}

	for _, city := range cityOrder {
		activities := saved[city]
		targets := cityDays[city]
		if len(targets) == 0 {
			// The city left the trip; its content goes with it.
			r.logger.Warn("Dropping activities for removed city", "city", city, "count", len(activities))
			continue
		}
		perDay := (len(activities) + len(targets) - 1) / len(targets)
		for i, dayNumber := range targets {
			lo := i * perDay
			if lo >= len(activities) {
				break
			}
			hi := lo + perDay
			if hi > len(activities) {
				hi = len(activities)
			}
			day := &skeleton[dayNumber-1]
			day.Activities = append(day.Activities, activities[lo:hi]...)
		}
	}

	return skeleton, ReconcileMerged, nil
}

// expandDayCities maps each day number to the city of the allocation
// range containing it.
func expandDayCities(allocations []entity.CityAllocation) map[int]string {
	dayToCity := make(map[int]string)
	for _, alloc := range allocations {
		for d := alloc.StartDay; d <= alloc.EndDay; d++ {
			dayToCity[d] = alloc.City
		}
	}
	return dayToCity
}

func daysMatch(days []entity.Day, dayToCity map[int]string) bool {
	for _, day := range days {
		if day.City != dayToCity[day.DayNumber] {
			return false
		}
	}
	return true
}

// collectByCity gathers the non-transport activities of every day,
// grouped by the day's current city and kept in original order. The
// returned slice preserves first-seen city order.
func collectByCity(days []entity.Day) (map[string][]entity.Activity, []string) {
	saved := make(map[string][]entity.Activity)
	order := make([]string, 0)
	for _, day := range days {
		for _, activity := range day.Activities {
			if activity.IsTransport() {
				continue
			}
			if _, seen := saved[day.City]; !seen {
				order = append(order, day.City)
			}
			saved[day.City] = append(saved[day.City], activity)
		}
	}
	return saved, order
}
