package repository

import (
	"context"
	"errors"

	"rentory/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CapacityRepository reads service capacity ceilings from the service
// catalog's table. The engine never mutates capacities outside of seeding.
type CapacityRepository struct {
	db *gorm.DB
}

func NewCapacityRepository(db *gorm.DB) *CapacityRepository {
	return &CapacityRepository{db: db}
}

type serviceCapacityModel struct {
	ServiceID     string `gorm:"column:service_id;primaryKey"`
	Name          string `gorm:"column:name"`
	TotalQuantity int    `gorm:"column:total_quantity"`
}

func (serviceCapacityModel) TableName() string { return "service_capacities" }

func (r *CapacityRepository) GetByServiceID(ctx context.Context, serviceID string) (*domain.ServiceCapacity, error) {
	var m serviceCapacityModel
	tx := r.db.WithContext(ctx).First(&m, "service_id = ?", serviceID)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, tx.Error
	}
	return &domain.ServiceCapacity{
		ServiceID:     m.ServiceID,
		Name:          m.Name,
		TotalQuantity: m.TotalQuantity,
	}, nil
}

// Upsert writes a capacity row, used by the seed binary and tests.
func (r *CapacityRepository) Upsert(ctx context.Context, c *domain.ServiceCapacity) error {
	m := serviceCapacityModel{
		ServiceID:     c.ServiceID,
		Name:          c.Name,
		TotalQuantity: c.TotalQuantity,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&m).Error
}

// Migrate creates the engine's tables. Production deployments run SQL
// migrations instead; this covers local SQLite and tests.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&reservationModel{}, &serviceCapacityModel{})
}
