package repository

import (
	"context"
	"time"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormTransportOptionRepository implements the TransportOptionRepository interface
type GormTransportOptionRepository struct {
	db *gorm.DB
}

// NewGormTransportOptionRepository creates a new GORM transport option repository
func NewGormTransportOptionRepository(db *gorm.DB) repository.TransportOptionRepository {
	return &GormTransportOptionRepository{
		db: db,
	}
}

// TransportOptionRow GORM model for database mapping
type TransportOptionRow struct {
	gorm.Model
	ID              uint           `gorm:"primaryKey"`
	FromCity        string         `gorm:"column:fromcity;index:idx_city_pair"`
	ToCity          string         `gorm:"column:tocity;index:idx_city_pair"`
	Mode            string         `gorm:"column:mode"`
	DurationMinutes int            `gorm:"column:duration_minutes"`
	DurationLabel   string         `gorm:"column:duration_label"`
	Operator        string         `gorm:"column:operator"`
	PriceRange      string         `gorm:"column:price_range"`
	Recommended     bool           `gorm:"column:recommended"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName overrides the default table name
func (TransportOptionRow) TableName() string {
	return "m_transport_options"
}

// OptionsBetween returns the candidate options for an ordered city pair,
// recommended ones first
func (r *GormTransportOptionRepository) OptionsBetween(ctx context.Context, fromCity, toCity string) ([]entity.TransportOption, error) {
	var rows []TransportOptionRow
	result := r.db.WithContext(ctx).
		Where("LOWER(fromcity) = LOWER(?) AND LOWER(tocity) = LOWER(?)", fromCity, toCity).
		Order("recommended DESC, duration_minutes ASC").
		Find(&rows)

	if result.Error != nil {
		return nil, result.Error
	}

	options := make([]entity.TransportOption, 0, len(rows))
	for _, row := range rows {
		options = append(options, entity.TransportOption{
			Mode:            entity.TransportMode(row.Mode),
			DurationMinutes: row.DurationMinutes,
			DurationLabel:   row.DurationLabel,
			Operator:        row.Operator,
			PriceRange:      row.PriceRange,
			Recommended:     row.Recommended,
		})
	}
	return options, nil
}
