package service

import (
	"context"
	"strings"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/repository"
	"github.com/flowgrid/flowgrid/pkg/constant"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/flowgrid/flowgrid/pkg/idgen"
	"github.com/mbeoliero/kit/log"
)

// PlantService handles plant listing business logic
type PlantService struct {
	plants repository.PlantStore
	sink   EventSink
}

// NewPlantService creates a new PlantService
func NewPlantService(repos *repository.Repositories) *PlantService {
	return &PlantService{plants: repos.Plant}
}

// SetSink sets the event sink
func (s *PlantService) SetSink(sink EventSink) {
	s.sink = sink
}

func (s *PlantService) emitToAll(event string, payload interface{}) {
	if s.sink == nil {
		return
	}
	s.sink.BroadcastToAll(event, payload)
}

// CreatePlantRequest represents a new listing
type CreatePlantRequest struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Phone     string  `json:"phone,omitempty"`
	Photos    string  `json:"photos,omitempty"`
}

// UpdatePlantRequest carries partial listing updates
type UpdatePlantRequest struct {
	Name      *string  `json:"name,omitempty"`
	Address   *string  `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Photos    *string  `json:"photos,omitempty"`
}

// Create registers a new unverified listing for the owner
func (s *PlantService) Create(ctx context.Context, ownerId string, req *CreatePlantRequest) (*entity.Plant, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Address) == "" {
		return nil, errcode.ErrInvalidParam
	}

	id, err := idgen.NextID()
	if err != nil {
		return nil, errcode.ErrInternalServer.Wrap(err)
	}

	plant := &entity.Plant{
		Id:        id,
		OwnerId:   ownerId,
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Phone:     req.Phone,
		Photos:    req.Photos,
	}
	if err := s.plants.Create(ctx, plant); err != nil {
		log.CtxError(ctx, "create plant failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "plant created: id=%s owner_id=%s", id, ownerId)
	s.emitToAll(constant.EventPlantCreated, plant)
	return plant, nil
}

// Update applies partial updates to an owner's listing
func (s *PlantService) Update(ctx context.Context, ownerId, plantId string, req *UpdatePlantRequest) (*entity.Plant, error) {
	plant, err := s.requireOwned(ctx, ownerId, plantId)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Latitude != nil {
		updates["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		updates["longitude"] = *req.Longitude
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Photos != nil {
		updates["photos"] = *req.Photos
	}
	if len(updates) > 0 {
		if err := s.plants.Update(ctx, plantId, updates); err != nil {
			log.CtxError(ctx, "update plant failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
		plant, err = s.plants.GetById(ctx, plantId)
		if err != nil || plant == nil {
			return nil, errcode.ErrInternalServer
		}
	}

	s.emitToAll(constant.EventPlantUpdated, plant)
	return plant, nil
}

// Delete removes an owner's listing
func (s *PlantService) Delete(ctx context.Context, ownerId, plantId string) error {
	if _, err := s.requireOwned(ctx, ownerId, plantId); err != nil {
		return err
	}
	if err := s.plants.Delete(ctx, plantId); err != nil {
		log.CtxError(ctx, "delete plant failed: %v", err)
		return errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "plant deleted: id=%s owner_id=%s", plantId, ownerId)
	s.emitToAll(constant.EventPlantDeleted, &PlantDeletedPayload{Id: plantId})
	return nil
}

// GetById returns one listing
func (s *PlantService) GetById(ctx context.Context, plantId string) (*entity.Plant, error) {
	plant, err := s.plants.GetById(ctx, plantId)
	if err != nil {
		log.CtxError(ctx, "get plant failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if plant == nil {
		return nil, errcode.ErrPlantNotFound
	}
	return plant, nil
}

// ListByOwner returns an owner's listings
func (s *PlantService) ListByOwner(ctx context.Context, ownerId string) ([]*entity.Plant, error) {
	plants, err := s.plants.ListByOwner(ctx, ownerId)
	if err != nil {
		log.CtxError(ctx, "list plants failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return plants, nil
}

// ListAll returns the public browse page
func (s *PlantService) ListAll(ctx context.Context, offset, limit int) ([]*entity.Plant, error) {
	plants, err := s.plants.ListAll(ctx, offset, limit)
	if err != nil {
		log.CtxError(ctx, "list plants failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return plants, nil
}

func (s *PlantService) requireOwned(ctx context.Context, ownerId, plantId string) (*entity.Plant, error) {
	plant, err := s.plants.GetById(ctx, plantId)
	if err != nil {
		log.CtxError(ctx, "get plant failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if plant == nil {
		return nil, errcode.ErrPlantNotFound
	}
	if plant.OwnerId != ownerId {
		return nil, errcode.ErrNotPlantOwner
	}
	return plant, nil
}
