package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/flowgrid/flowgrid/internal/middleware"
	"github.com/flowgrid/flowgrid/internal/service"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/flowgrid/flowgrid/pkg/response"
)

// PlantHandler handles plant listing requests
type PlantHandler struct {
	plantService *service.PlantService
}

// NewPlantHandler creates a new PlantHandler
func NewPlantHandler(plantService *service.PlantService) *PlantHandler {
	return &PlantHandler{plantService: plantService}
}

// List returns the public browse page
func (h *PlantHandler) List(ctx context.Context, c *app.RequestContext) {
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	plants, err := h.plantService.ListAll(ctx, offset, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, plants)
}

// Get returns one listing
func (h *PlantHandler) Get(ctx context.Context, c *app.RequestContext) {
	plantId := c.Param("id")
	if plantId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	plant, err := h.plantService.GetById(ctx, plantId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, plant)
}

// ListMine returns the calling owner's listings
func (h *PlantHandler) ListMine(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	plants, err := h.plantService.ListByOwner(ctx, id.Id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, plants)
}

// Create registers a new listing for the calling owner
func (h *PlantHandler) Create(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	var req service.CreatePlantRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	plant, err := h.plantService.Create(ctx, id.Id, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, plant)
}

// Update applies partial updates to the calling owner's listing
func (h *PlantHandler) Update(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	plantId := c.Param("id")
	if plantId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	var req service.UpdatePlantRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	plant, err := h.plantService.Update(ctx, id.Id, plantId, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, plant)
}

// Delete removes the calling owner's listing
func (h *PlantHandler) Delete(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	plantId := c.Param("id")
	if plantId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.plantService.Delete(ctx, id.Id, plantId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}
