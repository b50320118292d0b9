package repository

import (
	"context"
	"errors"
	"time"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormCityDefaultRepository implements the CityDefaultRepository interface
type GormCityDefaultRepository struct {
	db *gorm.DB
}

// NewGormCityDefaultRepository creates a new GORM city default repository
func NewGormCityDefaultRepository(db *gorm.DB) repository.CityDefaultRepository {
	return &GormCityDefaultRepository{
		db: db,
	}
}

// CityDefaultRow GORM model for database mapping
type CityDefaultRow struct {
	gorm.Model
	ID                uint           `gorm:"primaryKey"`
	CityName          string         `gorm:"column:cityname;unique"`
	RecommendedNights int            `gorm:"column:recommended_nights"`
	AirportCode       string         `gorm:"column:airportcode"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName overrides the default table name
func (CityDefaultRow) TableName() string {
	return "m_city_defaults"
}

// GetByCityName finds the reference row for a city, or nil when the
// city has no entry
func (r *GormCityDefaultRepository) GetByCityName(ctx context.Context, city string) (*entity.CityDefault, error) {
	var row CityDefaultRow
	result := r.db.WithContext(ctx).Where("LOWER(cityname) = LOWER(?)", city).First(&row)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return &entity.CityDefault{
		ID:                row.ID,
		CityName:          row.CityName,
		RecommendedNights: row.RecommendedNights,
		AirportCode:       row.AirportCode,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
		DeletedAt:         row.DeletedAt,
	}, nil
}
