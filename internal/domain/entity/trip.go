package entity

import (
	"time"
)

// TripWindow is the calendar frame of a trip. TotalDays counts calendar
// days including the final departure day, so a trip always has one fewer
// night than days.
type TripWindow struct {
	StartDate time.Time `json:"startDate" bson:"startDate"`
	TotalDays int       `json:"totalDays" bson:"totalDays"`
}

// TotalNights returns the night budget implied by the window.
func (w TripWindow) TotalNights() int {
	return w.TotalDays - 1
}

// DateOf returns the calendar date of a 1-based day number within the window.
func (w TripWindow) DateOf(dayNumber int) time.Time {
	return w.StartDate.AddDate(0, 0, dayNumber-1)
}

// Trip is the persisted trip record, stored as one document per trip id.
type Trip struct {
	ID          string           `json:"id" bson:"_id,omitempty"`
	Name        string           `json:"name" bson:"name"`
	HomeBase    string           `json:"homeBase" bson:"homeBase"`
	Cities      []string         `json:"cities" bson:"cities"`
	Window      TripWindow       `json:"window" bson:"window"`
	Allocations []CityAllocation `json:"allocations" bson:"allocations"`
	Days        []Day            `json:"days" bson:"days"`
	CreatedAt   time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt" bson:"updatedAt"`
}
