package entity

import (
	"time"
)

// Day is one calendar day of the trip timeline. Exactly one Day exists
// per day number in [1, totalDays], and its City always matches the
// allocation range that contains the day number.
type Day struct {
	DayNumber  int        `json:"dayNumber" bson:"dayNumber"`
	Date       time.Time  `json:"date" bson:"date"`
	City       string     `json:"city" bson:"city"`
	Theme      string     `json:"theme,omitempty" bson:"theme,omitempty"`
	Activities []Activity `json:"activities" bson:"activities"`
}

// IsTransit reports whether the day belongs to a travel leg.
func (d Day) IsTransit() bool {
	return d.City == TransitCity
}
