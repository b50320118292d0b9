package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/domain/repository"
	"tripline-service/pkg/logger"
	"tripline-service/pkg/utils"
)

// ErrInsufficientDuration is returned when the trip window cannot fit a
// single night. Allocation never silently clamps below one night.
var ErrInsufficientDuration = errors.New("trip duration too short: at least one night is required")

// DefaultNightsPerCity seeds cities that have no reference-table entry.
const DefaultNightsPerCity = 2

// Allocator distributes a fixed night budget across an ordered city list
// and derives the day ranges and calendar dates of each allocation.
type Allocator struct {
	cityDefaults repository.CityDefaultRepository
	logger       logger.Logger
}

// NewAllocator creates a new allocator
func NewAllocator(cityDefaults repository.CityDefaultRepository, logger logger.Logger) *Allocator {
	return &Allocator{
		cityDefaults: cityDefaults,
		logger:       logger,
	}
}

// Allocate returns allocations covering exactly totalNights nights in
// city order, with a 1-night transit leg prepended for the outbound
// journey. Night counts are seeded from the city reference table and
// adjusted, largest-seed first, so the sum matches the budget without
// pushing any city below one night.
func (a *Allocator) Allocate(ctx context.Context, cities []string, totalNights int, startDate time.Time) ([]entity.CityAllocation, error) {
	if totalNights < 1 {
		return nil, ErrInsufficientDuration
	}
	if len(cities) == 0 {
		return nil, nil
	}

	seeds := make([]int, len(cities))
	for i, city := range cities {
		seeds[i] = a.recommendedNights(ctx, city)
	}

	// One night of the budget belongs to the outbound transit leg.
	cityBudget := totalNights - 1
	if cityBudget < len(cities) {
		a.logger.Warn("Night budget below one per city, compressing stays",
			"cities", len(cities), "totalNights", totalNights)
		cityBudget = len(cities)
	}
	nights := balanceNights(seeds, cityBudget)

	allocations := make([]entity.CityAllocation, 0, len(cities)+1)
	allocations = append(allocations, entity.CityAllocation{
		City:   entity.TransitCity,
		Nights: 1,
	})
	for i, city := range cities {
		allocations = append(allocations, entity.CityAllocation{
			City:   city,
			Nights: nights[i],
		})
	}

	RecalcDates(allocations, startDate)
	return allocations, nil
}

// RecalcDates recomputes every allocation's day range by cumulative
// summation of nights in order, and every date by offsetting from the
// new start date. The final allocation absorbs the departure day so the
// ranges cover the whole window. Night counts are never touched.
func RecalcDates(allocations []entity.CityAllocation, startDate time.Time) {
	base := utils.TruncateToDay(startDate)
	day := 1
	for i := range allocations {
		allocations[i].StartDay = day
		allocations[i].EndDay = day + allocations[i].Nights - 1
		if i == len(allocations)-1 {
			allocations[i].EndDay++
		}
		allocations[i].StartDate = utils.AddDays(base, allocations[i].StartDay-1)
		allocations[i].EndDate = utils.AddDays(base, allocations[i].EndDay-1)
		day = allocations[i].EndDay + 1
	}
}

// NightBalance returns the signed difference between allocated nights
// and the window's night budget. Non-zero balances are surfaced to the
// host as a status indicator, never auto-corrected.
func NightBalance(allocations []entity.CityAllocation, window entity.TripWindow) int {
	return entity.SumNights(allocations) - window.TotalNights()
}

func (a *Allocator) recommendedNights(ctx context.Context, city string) int {
	if a.cityDefaults == nil {
		return DefaultNightsPerCity
	}
	def, err := a.cityDefaults.GetByCityName(ctx, city)
	if err != nil || def == nil || def.RecommendedNights < 1 {
		return DefaultNightsPerCity
	}
	return def.RecommendedNights
}

// balanceNights adjusts the seeded night counts until they sum to
// target, spreading the shortfall or excess one night at a time across
// the allocations with the largest seeds. No count drops below one.
func balanceNights(seeds []int, target int) []int {
	nights := make([]int, len(seeds))
	copy(nights, seeds)

	sum := 0
	for _, n := range nights {
		sum += n
	}
	if sum == target {
		return nights
	}

	order := make([]int, len(seeds))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return seeds[order[a]] > seeds[order[b]]
	})

	for sum != target {
		progressed := false
		for _, i := range order {
			if sum < target {
				nights[i]++
				sum++
				progressed = true
			} else if nights[i] > 1 {
				nights[i]--
				sum--
				progressed = true
			}
			if sum == target {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return nights
}
