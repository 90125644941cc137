package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/flowgrid/flowgrid/internal/middleware"
	"github.com/flowgrid/flowgrid/internal/service"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/flowgrid/flowgrid/pkg/response"
)

// ProfileHandler handles account profile requests
type ProfileHandler struct {
	accountService *service.AccountService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(accountService *service.AccountService) *ProfileHandler {
	return &ProfileHandler{accountService: accountService}
}

// Get returns the caller's profile
func (h *ProfileHandler) Get(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	account, err := h.accountService.GetProfile(ctx, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, account)
}

// Update applies partial profile updates, including the read-receipts flag
func (h *ProfileHandler) Update(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	var req service.UpdateProfileRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	account, err := h.accountService.UpdateProfile(ctx, id, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, account)
}
