package entity

import (
	"time"

	"gorm.io/gorm"
)

// CityDefault is reference data for a destination city: the default
// night count used when first allocating, and the airport code used
// when rendering flight legs.
type CityDefault struct {
	ID                uint
	CityName          string
	RecommendedNights int
	AirportCode       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt
}
