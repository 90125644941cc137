package service

import (
	"context"
	"fmt"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/repository"
	"github.com/flowgrid/flowgrid/pkg/constant"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/flowgrid/flowgrid/pkg/idgen"
	"github.com/mbeoliero/kit/log"
)

// VerificationService handles plant verification submission and review
type VerificationService struct {
	requests repository.VerificationStore
	plants   repository.PlantStore
	notices  repository.NotificationStore
	sink     EventSink
}

// NewVerificationService creates a new VerificationService
func NewVerificationService(repos *repository.Repositories) *VerificationService {
	return &VerificationService{
		requests: repos.Verification,
		plants:   repos.Plant,
		notices:  repos.Notification,
	}
}

// SetSink sets the event sink
func (s *VerificationService) SetSink(sink EventSink) {
	s.sink = sink
}

// SubmitRequest represents a verification submission
type SubmitRequest struct {
	PlantId     string `json:"plant_id"`
	DocumentKey string `json:"document_key,omitempty"`
}

// ReviewRequest represents an admin decision
type ReviewRequest struct {
	Status     string `json:"status"`
	ReviewNote string `json:"review_note,omitempty"`
}

// Submit creates a pending verification request for an owner's plant. At
// most one pending request per plant.
func (s *VerificationService) Submit(ctx context.Context, ownerId string, req *SubmitRequest) (*entity.VerificationRequest, error) {
	plant, err := s.plants.GetById(ctx, req.PlantId)
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

	existing, err := s.requests.ListByOwner(ctx, ownerId)
	if err != nil {
		log.CtxError(ctx, "list verification requests failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	for _, r := range existing {
		if r.PlantId == req.PlantId && r.Status == constant.VerificationPending {
			return nil, errcode.ErrVerificationPending
		}
	}

	id, err := idgen.NextID()
	if err != nil {
		return nil, errcode.ErrInternalServer.Wrap(err)
	}
	request := &entity.VerificationRequest{
		Id:          id,
		PlantId:     req.PlantId,
		OwnerId:     ownerId,
		Status:      constant.VerificationPending,
		DocumentKey: req.DocumentKey,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		log.CtxError(ctx, "create verification request failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "verification submitted: id=%s plant_id=%s", id, req.PlantId)
	if s.sink != nil {
		s.sink.BroadcastToRole(entity.IdentityAdmin, constant.EventVerificationCreated, request)
		s.sink.BroadcastToUser(entity.Identity{Type: entity.IdentityOwner, Id: ownerId}, constant.EventVerificationCreated, request)
	}
	return request, nil
}

// Review applies an admin decision to a pending request. Approval flips the
// plant's verified flag and tells every consumer.
func (s *VerificationService) Review(ctx context.Context, requestId string, req *ReviewRequest) (*entity.VerificationRequest, error) {
	if req.Status != constant.VerificationApproved && req.Status != constant.VerificationRejected {
		return nil, errcode.ErrInvalidParam
	}

	request, err := s.requests.GetById(ctx, requestId)
	if err != nil {
		log.CtxError(ctx, "get verification request failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if request == nil {
		return nil, errcode.ErrVerificationNotFound
	}
	if request.Status != constant.VerificationPending {
		return nil, errcode.ErrVerificationReviewed
	}

	plant, err := s.plants.GetById(ctx, request.PlantId)
	if err != nil {
		log.CtxError(ctx, "get plant failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	reviewedAt := entity.NowUnixMilli()
	updates := map[string]interface{}{
		"status":      req.Status,
		"review_note": req.ReviewNote,
		"reviewed_at": reviewedAt,
	}
	if err := s.requests.Update(ctx, requestId, updates); err != nil {
		log.CtxError(ctx, "update verification request failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	request.Status = req.Status
	request.ReviewNote = req.ReviewNote
	request.ReviewedAt = &reviewedAt

	approved := req.Status == constant.VerificationApproved
	if approved {
		if err := s.plants.Update(ctx, request.PlantId, map[string]interface{}{"verified": true}); err != nil {
			log.CtxError(ctx, "mark plant verified failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
	}

	s.createDecisionNotification(ctx, request, plant, approved)

	if s.sink != nil {
		s.sink.BroadcastToRole(entity.IdentityAdmin, constant.EventVerificationUpdated, request)
		s.sink.BroadcastToUser(entity.Identity{Type: entity.IdentityOwner, Id: request.OwnerId}, constant.EventVerificationUpdated, request)
		if approved {
			s.sink.BroadcastToRole(entity.IdentityConsumer, constant.EventPlantVerified, &PlantVerifiedPayload{PlantId: request.PlantId})
			if plant, err := s.plants.GetById(ctx, request.PlantId); err == nil && plant != nil {
				s.sink.BroadcastToAll(constant.EventPlantUpdated, plant)
			}
		}
	}

	log.CtxInfo(ctx, "verification reviewed: id=%s status=%s", requestId, req.Status)
	return request, nil
}

func (s *VerificationService) createDecisionNotification(ctx context.Context, request *entity.VerificationRequest, plant *entity.Plant, approved bool) {
	id, err := idgen.NextID()
	if err != nil {
		log.CtxWarn(ctx, "gen notification id failed: %v", err)
		return
	}

	plantName := request.PlantId
	if plant != nil {
		plantName = plant.Name
	}

	n := &entity.Notification{Id: id, OwnerId: request.OwnerId}
	if approved {
		n.Type = constant.NotificationVerificationApproved
		n.Title = "Verification Approved"
		n.Message = fmt.Sprintf("Your plant %q has been verified!", plantName)
	} else {
		n.Type = constant.NotificationVerificationRejected
		n.Title = "Verification Rejected"
		n.Message = fmt.Sprintf("Your verification request for %q has been rejected. %s", plantName, request.ReviewNote)
	}
	if err := s.notices.Create(ctx, n); err != nil {
		log.CtxWarn(ctx, "create notification failed: owner_id=%s err=%v", request.OwnerId, err)
	}
}

// ListByOwner returns an owner's verification requests
func (s *VerificationService) ListByOwner(ctx context.Context, ownerId string) ([]*entity.VerificationRequest, error) {
	requests, err := s.requests.ListByOwner(ctx, ownerId)
	if err != nil {
		log.CtxError(ctx, "list verification requests failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return requests, nil
}

// ListPending returns the admin review queue, oldest first
func (s *VerificationService) ListPending(ctx context.Context) ([]*entity.VerificationRequest, error) {
	requests, err := s.requests.ListByStatus(ctx, constant.VerificationPending)
	if err != nil {
		log.CtxError(ctx, "list pending requests failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return requests, nil
}
