package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/middleware"
	"github.com/flowgrid/flowgrid/internal/service"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/flowgrid/flowgrid/pkg/response"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterConsumer handles consumer registration
func (h *AuthHandler) RegisterConsumer(ctx context.Context, c *app.RequestContext) {
	var req service.RegisterConsumerRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	account, err := h.authService.RegisterConsumer(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, account)
}

// RegisterOwner handles owner registration
func (h *AuthHandler) RegisterOwner(ctx context.Context, c *app.RequestContext) {
	var req service.RegisterOwnerRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	account, err := h.authService.RegisterOwner(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, account)
}

// LoginConsumer handles consumer login
func (h *AuthHandler) LoginConsumer(ctx context.Context, c *app.RequestContext) {
	h.login(ctx, c, entity.IdentityConsumer)
}

// LoginOwner handles owner login
func (h *AuthHandler) LoginOwner(ctx context.Context, c *app.RequestContext) {
	h.login(ctx, c, entity.IdentityOwner)
}

// LoginAdmin handles admin login
func (h *AuthHandler) LoginAdmin(ctx context.Context, c *app.RequestContext) {
	h.login(ctx, c, entity.IdentityAdmin)
}

func (h *AuthHandler) login(ctx context.Context, c *app.RequestContext, t entity.IdentityType) {
	var req service.LoginRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	resp, err := h.authService.Login(ctx, t, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, resp)
}

// Logout invalidates the presented token
func (h *AuthHandler) Logout(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)
	token := middleware.GetToken(c)

	if err := h.authService.Logout(ctx, id, token); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}
