package repository

import (
	"context"
	"errors"

	"github.com/flowgrid/flowgrid/internal/entity"
	"gorm.io/gorm"
)

// VerificationRepo is the repository for plant verification requests
type VerificationRepo struct {
	db *gorm.DB
}

// NewVerificationRepo creates a new VerificationRepo
func NewVerificationRepo(db *gorm.DB) *VerificationRepo {
	return &VerificationRepo{db: db}
}

// Create inserts a verification request
func (r *VerificationRepo) Create(ctx context.Context, v *entity.VerificationRequest) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// GetById gets a verification request by id, returning nil, nil when absent
func (r *VerificationRepo) GetById(ctx context.Context, id string) (*entity.VerificationRequest, error) {
	var v entity.VerificationRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// Update applies partial updates to a verification request
func (r *VerificationRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.VerificationRequest{}).Where("id = ?", id).Updates(updates).Error
}

// ListByStatus lists requests in a status, oldest first for review order
func (r *VerificationRepo) ListByStatus(ctx context.Context, status string) ([]*entity.VerificationRequest, error) {
	var requests []*entity.VerificationRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// ListByOwner lists an owner's requests, newest first
func (r *VerificationRepo) ListByOwner(ctx context.Context, ownerId string) ([]*entity.VerificationRequest, error) {
	var requests []*entity.VerificationRequest
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerId).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}
