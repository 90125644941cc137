package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/pkg/constant"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// readReceiptsCacheTTL bounds staleness of the cached privacy flag.
const readReceiptsCacheTTL = 5 * time.Minute

// AccountRepo is the repository for consumer/owner/admin accounts
type AccountRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewAccountRepo creates a new AccountRepo
func NewAccountRepo(db *gorm.DB, rdb *redis.Client) *AccountRepo {
	return &AccountRepo{db: db, rdb: rdb}
}

// GetConsumer gets a consumer by id
func (r *AccountRepo) GetConsumer(ctx context.Context, id string) (*entity.Consumer, error) {
	var c entity.Consumer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOwner gets an owner by id
func (r *AccountRepo) GetOwner(ctx context.Context, id string) (*entity.Owner, error) {
	var o entity.Owner
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetAdmin gets an admin by id
func (r *AccountRepo) GetAdmin(ctx context.Context, id string) (*entity.Admin, error) {
	var a entity.Admin
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetConsumerByEmail gets a consumer by email
func (r *AccountRepo) GetConsumerByEmail(ctx context.Context, email string) (*entity.Consumer, error) {
	var c entity.Consumer
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOwnerByEmail gets an owner by email
func (r *AccountRepo) GetOwnerByEmail(ctx context.Context, email string) (*entity.Owner, error) {
	var o entity.Owner
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetAdminByEmail gets an admin by email
func (r *AccountRepo) GetAdminByEmail(ctx context.Context, email string) (*entity.Admin, error) {
	var a entity.Admin
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateConsumer inserts a consumer
func (r *AccountRepo) CreateConsumer(ctx context.Context, c *entity.Consumer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// CreateOwner inserts an owner
func (r *AccountRepo) CreateOwner(ctx context.Context, o *entity.Owner) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// UpdateConsumer applies profile updates and drops the cached privacy flag
func (r *AccountRepo) UpdateConsumer(ctx context.Context, id string, updates map[string]interface{}) error {
	err := r.db.WithContext(ctx).Model(&entity.Consumer{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return err
	}
	r.invalidateReadReceipts(ctx, entity.Identity{Type: entity.IdentityConsumer, Id: id})
	return nil
}

// UpdateOwner applies profile updates and drops the cached privacy flag
func (r *AccountRepo) UpdateOwner(ctx context.Context, id string, updates map[string]interface{}) error {
	err := r.db.WithContext(ctx).Model(&entity.Owner{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return err
	}
	r.invalidateReadReceipts(ctx, entity.Identity{Type: entity.IdentityOwner, Id: id})
	return nil
}

// ReadReceiptsEnabled resolves the privacy flag for a consumer or owner.
// Unknown identities default to true, matching the column default.
func (r *AccountRepo) ReadReceiptsEnabled(ctx context.Context, id entity.Identity) (bool, error) {
	key := fmt.Sprintf(constant.RedisKeyReadReceipts(), id.Key())
	if r.rdb != nil {
		cached, err := r.rdb.Get(ctx, key).Result()
		if err == nil {
			return cached == "1", nil
		}
		if !errors.Is(err, redis.Nil) {
			// Cache trouble falls through to the database.
			_ = err
		}
	}

	enabled := true
	switch id.Type {
	case entity.IdentityConsumer:
		c, err := r.GetConsumer(ctx, id.Id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return true, nil
			}
			return true, err
		}
		enabled = c.ReadReceiptsEnabled
	case entity.IdentityOwner:
		o, err := r.GetOwner(ctx, id.Id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return true, nil
			}
			return true, err
		}
		enabled = o.ReadReceiptsEnabled
	}

	if r.rdb != nil {
		val := "0"
		if enabled {
			val = "1"
		}
		r.rdb.Set(ctx, key, val, readReceiptsCacheTTL)
	}
	return enabled, nil
}

func (r *AccountRepo) invalidateReadReceipts(ctx context.Context, id entity.Identity) {
	if r.rdb == nil {
		return
	}
	key := fmt.Sprintf(constant.RedisKeyReadReceipts(), id.Key())
	r.rdb.Del(ctx, key)
}
