package entity

import (
	"time"
)

// TransportMode identifies how a transit leg is travelled.
type TransportMode string

const (
	ModeFlight TransportMode = "flight"
	ModeTrain  TransportMode = "train"
	ModeBus    TransportMode = "bus"
	ModeDrive  TransportMode = "drive"
	ModeFerry  TransportMode = "ferry"
)

// TransitCity is the pseudo-city assigned to allocations that represent a
// travel leg rather than a stay.
const TransitCity = "__transit__"

// CityAllocation is a contiguous block of nights assigned to one city, or
// to a transit leg between two cities. StartDay/EndDay are 1-based day
// numbers; allocations are kept contiguous and in travel order, so the
// day ranges of an allocation list partition the trip's days exactly.
type CityAllocation struct {
	City      string    `json:"city" bson:"city"`
	Nights    int       `json:"nights" bson:"nights"`
	StartDay  int       `json:"startDay" bson:"startDay"`
	EndDay    int       `json:"endDay" bson:"endDay"`
	StartDate time.Time `json:"startDate" bson:"startDate"`
	EndDate   time.Time `json:"endDate" bson:"endDate"`

	// TransportModeOverride forces the mode of the transit leg that
	// departs this city, taking priority over the transport lookup.
	TransportModeOverride TransportMode `json:"transportModeOverride,omitempty" bson:"transportModeOverride,omitempty"`
}

// IsTransit reports whether the allocation is a travel leg.
func (a CityAllocation) IsTransit() bool {
	return a.City == TransitCity
}

// TotalDaysOf returns the day-number span covered by an allocation list,
// which is the trip's day count when the list is well formed.
func TotalDaysOf(allocations []CityAllocation) int {
	if len(allocations) == 0 {
		return 0
	}
	return allocations[len(allocations)-1].EndDay
}

// SumNights returns the total nights across all allocations.
func SumNights(allocations []CityAllocation) int {
	total := 0
	for _, a := range allocations {
		total += a.Nights
	}
	return total
}

// StayCities returns the non-transit city names in allocation order.
func StayCities(allocations []CityAllocation) []string {
	cities := make([]string, 0, len(allocations))
	for _, a := range allocations {
		if !a.IsTransit() {
			cities = append(cities, a.City)
		}
	}
	return cities
}
