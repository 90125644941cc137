package service

import (
	"context"
	"errors"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/repository"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/mbeoliero/kit/log"
	"gorm.io/gorm"
)

// AccountService handles profile reads and updates for consumers and owners
type AccountService struct {
	accounts repository.AccountStore
}

// NewAccountService creates a new AccountService
func NewAccountService(repos *repository.Repositories) *AccountService {
	return &AccountService{accounts: repos.Account}
}

// UpdateProfileRequest carries partial profile updates. Nil fields are
// left untouched.
type UpdateProfileRequest struct {
	Name                *string `json:"name,omitempty"`
	DisplayName         *string `json:"display_name,omitempty"`
	Phone               *string `json:"phone,omitempty"`
	ReadReceiptsEnabled *bool   `json:"read_receipts_enabled,omitempty"`
}

// GetProfile returns the account projection for the identity
func (s *AccountService) GetProfile(ctx context.Context, id entity.Identity) (*entity.AccountInfo, error) {
	switch id.Type {
	case entity.IdentityConsumer:
		c, err := s.accounts.GetConsumer(ctx, id.Id)
		if err != nil {
			return nil, s.lookupError(ctx, err)
		}
		return c.ToAccountInfo(), nil
	case entity.IdentityOwner:
		o, err := s.accounts.GetOwner(ctx, id.Id)
		if err != nil {
			return nil, s.lookupError(ctx, err)
		}
		return o.ToAccountInfo(), nil
	}
	return nil, errcode.ErrInvalidParam
}

// UpdateProfile applies partial updates. Toggling ReadReceiptsEnabled takes
// effect on the next read event and the next message listing; past events
// are not recalled.
func (s *AccountService) UpdateProfile(ctx context.Context, id entity.Identity, req *UpdateProfileRequest) (*entity.AccountInfo, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.ReadReceiptsEnabled != nil {
		updates["read_receipts_enabled"] = *req.ReadReceiptsEnabled
	}

	switch id.Type {
	case entity.IdentityConsumer:
		if req.DisplayName != nil {
			updates["display_name"] = *req.DisplayName
		}
		if len(updates) > 0 {
			if err := s.accounts.UpdateConsumer(ctx, id.Id, updates); err != nil {
				log.CtxError(ctx, "update consumer failed: %v", err)
				return nil, errcode.ErrInternalServer
			}
		}
	case entity.IdentityOwner:
		if len(updates) > 0 {
			if err := s.accounts.UpdateOwner(ctx, id.Id, updates); err != nil {
				log.CtxError(ctx, "update owner failed: %v", err)
				return nil, errcode.ErrInternalServer
			}
		}
	default:
		return nil, errcode.ErrInvalidParam
	}

	return s.GetProfile(ctx, id)
}

func (s *AccountService) lookupError(ctx context.Context, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errcode.ErrUserNotFound
	}
	log.CtxError(ctx, "account lookup failed: %v", err)
	return errcode.ErrInternalServer
}
