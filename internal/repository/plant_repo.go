package repository

import (
	"context"
	"errors"

	"github.com/flowgrid/flowgrid/internal/entity"
	"gorm.io/gorm"
)

// PlantRepo is the repository for plant listings
type PlantRepo struct {
	db *gorm.DB
}

// NewPlantRepo creates a new PlantRepo
func NewPlantRepo(db *gorm.DB) *PlantRepo {
	return &PlantRepo{db: db}
}

// Create inserts a plant
func (r *PlantRepo) Create(ctx context.Context, p *entity.Plant) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetById gets a plant by id, returning nil, nil when absent
func (r *PlantRepo) GetById(ctx context.Context, id string) (*entity.Plant, error) {
	var p entity.Plant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Update applies partial updates to a plant
func (r *PlantRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.Plant{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes a plant
func (r *PlantRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Plant{}).Error
}

// ListByOwner lists an owner's plants, newest first
func (r *PlantRepo) ListByOwner(ctx context.Context, ownerId string) ([]*entity.Plant, error) {
	var plants []*entity.Plant
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerId).
		Order("created_at DESC").
		Find(&plants).Error
	if err != nil {
		return nil, err
	}
	return plants, nil
}

// ListAll lists plants across all owners, newest first
func (r *PlantRepo) ListAll(ctx context.Context, offset, limit int) ([]*entity.Plant, error) {
	if limit <= 0 {
		limit = 20
	}
	var plants []*entity.Plant
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&plants).Error
	if err != nil {
		return nil, err
	}
	return plants, nil
}
