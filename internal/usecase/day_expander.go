package usecase

import (
	"context"
	"fmt"
	"strings"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/domain/repository"
	"tripline-service/pkg/logger"
	"tripline-service/pkg/utils"
)

// modeEstimates are the static fallback durations used when the
// transport lookup has no data for a pair.
var modeEstimates = map[entity.TransportMode]struct {
	Label   string
	Minutes int
}{
	entity.ModeFlight: {"1h 30m", 90},
	entity.ModeTrain:  {"3h", 180},
	entity.ModeBus:    {"4h 30m", 270},
	entity.ModeDrive:  {"4h", 240},
	entity.ModeFerry:  {"6h", 360},
}

// DayExpander expands an allocation list into the flat day timeline,
// synthesizing one transport activity on the first day of each transit
// leg. It never fabricates stay content: non-transit days come out empty.
type DayExpander struct {
	cityDefaults     repository.CityDefaultRepository
	transportOptions repository.TransportOptionRepository
	modes            ModeRouter
	logger           logger.Logger
}

// NewDayExpander creates a new day expander
func NewDayExpander(
	cityDefaults repository.CityDefaultRepository,
	transportOptions repository.TransportOptionRepository,
	modes ModeRouter,
	logger logger.Logger,
) *DayExpander {
	return &DayExpander{
		cityDefaults:     cityDefaults,
		transportOptions: transportOptions,
		modes:            modes,
		logger:           logger,
	}
}

// ExpandDays builds one Day per day number covered by the allocations.
// firstLegRoute, when present, is a pre-selected multi-leg route for the
// outbound journey from home base; its segments are rendered in full
// instead of a single best-guess hop.
func (e *DayExpander) ExpandDays(ctx context.Context, allocations []entity.CityAllocation, homeBase string, firstLegRoute []entity.RouteSegment) ([]entity.Day, error) {
	totalDays := entity.TotalDaysOf(allocations)
	if totalDays == 0 {
		return nil, nil
	}

	base := utils.TruncateToDay(allocations[0].StartDate)
	days := make([]entity.Day, totalDays)
	for i := range days {
		days[i] = entity.Day{
			DayNumber:  i + 1,
			Date:       utils.AddDays(base, i),
			Activities: []entity.Activity{},
		}
	}
	for _, alloc := range allocations {
		for d := alloc.StartDay; d <= alloc.EndDay && d <= totalDays; d++ {
			days[d-1].City = alloc.City
		}
	}

	for i, alloc := range allocations {
		if alloc.IsTransit() {
			legActivities, err := e.synthesizeLeg(ctx, allocations, i, homeBase, firstLegRoute)
			if err != nil {
				return nil, err
			}
			day := &days[alloc.StartDay-1]
			day.Activities = append(legActivities, day.Activities...)
			continue
		}
		// Adjacent stays with no transit between them still change city;
		// the arrival day carries the transport activity.
		if i > 0 && !allocations[i-1].IsTransit() && allocations[i-1].City != alloc.City {
			prev := allocations[i-1]
			activity, err := e.buildLeg(ctx, &prev, prev.City, alloc.City)
			if err != nil {
				return nil, err
			}
			day := &days[alloc.StartDay-1]
			day.Activities = append([]entity.Activity{activity}, day.Activities...)
		}
	}
	return days, nil
}

// synthesizeLeg builds the transport activities for the transit
// allocation at idx. The from city is the nearest preceding stay (home
// base if none), the to city the nearest following stay (home base if
// the transit is the final leg).
func (e *DayExpander) synthesizeLeg(ctx context.Context, allocations []entity.CityAllocation, idx int, homeBase string, firstLegRoute []entity.RouteSegment) ([]entity.Activity, error) {
	var fromAlloc *entity.CityAllocation
	for j := idx - 1; j >= 0; j-- {
		if !allocations[j].IsTransit() {
			fromAlloc = &allocations[j]
			break
		}
	}
	fromCity := homeBase
	if fromAlloc != nil {
		fromCity = fromAlloc.City
	}
	toCity := homeBase
	for j := idx + 1; j < len(allocations); j++ {
		if !allocations[j].IsTransit() {
			toCity = allocations[j].City
			break
		}
	}

	// A pre-selected route replaces the single best-guess hop for the
	// home-base departure.
	if fromAlloc == nil && len(firstLegRoute) > 0 {
		return e.renderRoute(ctx, firstLegRoute)
	}

	activity, err := e.buildLeg(ctx, fromAlloc, fromCity, toCity)
	if err != nil {
		return nil, err
	}
	return []entity.Activity{activity}, nil
}

// buildLeg resolves the mode and renders one transport activity. Mode
// priority: the override on the preceding city allocation, then the
// recommended lookup option, then the first option, then flight.
func (e *DayExpander) buildLeg(ctx context.Context, fromAlloc *entity.CityAllocation, fromCity, toCity string) (entity.Activity, error) {
	options, err := e.transportOptions.OptionsBetween(ctx, fromCity, toCity)
	if err != nil {
		e.logger.Warn("Transport lookup failed, using estimates", "from", fromCity, "to", toCity, "error", err)
		options = nil
	}

	mode := entity.ModeFlight
	var chosen *entity.TransportOption
	if fromAlloc != nil && fromAlloc.TransportModeOverride != "" {
		mode = fromAlloc.TransportModeOverride
		for k := range options {
			if options[k].Mode == mode {
				chosen = &options[k]
				break
			}
		}
	} else {
		for k := range options {
			if options[k].Recommended {
				chosen = &options[k]
				break
			}
		}
		if chosen == nil && len(options) > 0 {
			chosen = &options[0]
		}
		if chosen != nil {
			mode = chosen.Mode
		}
	}

	leg := TransportLeg{
		Mode:     mode,
		FromCity: fromCity,
		ToCity:   toCity,
	}
	if chosen != nil {
		leg.Operator = chosen.Operator
		leg.DurationLabel = chosen.DurationLabel
		leg.DurationMinutes = chosen.DurationMinutes
	}
	if leg.DurationLabel == "" {
		if est, ok := modeEstimates[mode]; ok {
			leg.DurationLabel = est.Label
			leg.DurationMinutes = est.Minutes
		}
	}
	if mode == entity.ModeFlight {
		leg.FromCode = e.airportCode(ctx, fromCity)
		leg.ToCode = e.airportCode(ctx, toCity)
	}

	activity, err := e.render(leg)
	if err != nil {
		return entity.Activity{}, err
	}
	activity.SuggestedTime = utils.SlotTime(0)
	return activity, nil
}

// renderRoute renders every segment of a pre-selected route, in order.
func (e *DayExpander) renderRoute(ctx context.Context, route []entity.RouteSegment) ([]entity.Activity, error) {
	activities := make([]entity.Activity, 0, len(route))
	for i, seg := range route {
		leg := TransportLeg{
			Mode:          seg.Mode,
			FromCity:      seg.From,
			ToCity:        seg.To,
			Operator:      seg.Operator,
			DurationLabel: seg.DurationLabel,
		}
		if leg.DurationLabel == "" {
			if est, ok := modeEstimates[seg.Mode]; ok {
				leg.DurationLabel = est.Label
				leg.DurationMinutes = est.Minutes
			}
		}
		if seg.Mode == entity.ModeFlight {
			leg.FromCode = e.airportCode(ctx, seg.From)
			leg.ToCode = e.airportCode(ctx, seg.To)
		}
		activity, err := e.render(leg)
		if err != nil {
			return nil, err
		}
		activity.SuggestedTime = utils.SlotTime(i)
		activities = append(activities, activity)
	}
	return activities, nil
}

func (e *DayExpander) render(leg TransportLeg) (entity.Activity, error) {
	renderer := e.modes.GetRenderer(leg.Mode)
	if renderer == nil {
		return entity.Activity{}, fmt.Errorf("no renderer registered for mode %q", leg.Mode)
	}
	return renderer.Render(leg)
}

// airportCode resolves the city's airport code from the reference table,
// falling back to the first three letters of the name uppercased.
func (e *DayExpander) airportCode(ctx context.Context, city string) string {
	if e.cityDefaults != nil {
		if def, err := e.cityDefaults.GetByCityName(ctx, city); err == nil && def != nil && def.AirportCode != "" {
			return def.AirportCode
		}
	}
	compact := strings.ToUpper(strings.ReplaceAll(city, " ", ""))
	if len(compact) > 3 {
		compact = compact[:3]
	}
	return compact
}
