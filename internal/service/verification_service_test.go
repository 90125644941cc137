package service

import (
	"context"
	"testing"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/pkg/constant"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerificationStore struct {
	requests map[string]*entity.VerificationRequest
}

func newFakeVerificationStore() *fakeVerificationStore {
	return &fakeVerificationStore{requests: make(map[string]*entity.VerificationRequest)}
}

func (f *fakeVerificationStore) Create(ctx context.Context, v *entity.VerificationRequest) error {
	f.requests[v.Id] = v
	return nil
}

func (f *fakeVerificationStore) GetById(ctx context.Context, id string) (*entity.VerificationRequest, error) {
	return f.requests[id], nil
}

func (f *fakeVerificationStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	r, ok := f.requests[id]
	if !ok {
		return nil
	}
	if v, ok := updates["status"].(string); ok {
		r.Status = v
	}
	if v, ok := updates["review_note"].(string); ok {
		r.ReviewNote = v
	}
	if v, ok := updates["reviewed_at"].(int64); ok {
		ts := v
		r.ReviewedAt = &ts
	}
	return nil
}

func (f *fakeVerificationStore) ListByStatus(ctx context.Context, status string) ([]*entity.VerificationRequest, error) {
	var out []*entity.VerificationRequest
	for _, r := range f.requests {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeVerificationStore) ListByOwner(ctx context.Context, ownerId string) ([]*entity.VerificationRequest, error) {
	var out []*entity.VerificationRequest
	for _, r := range f.requests {
		if r.OwnerId == ownerId {
			out = append(out, r)
		}
	}
	return out, nil
}

type verificationFixture struct {
	svc      *VerificationService
	sink     *recordingSink
	requests *fakeVerificationStore
	plants   *fakePlantStore
	notices  *fakeNotificationStore
}

func newVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()

	f := &verificationFixture{
		sink:     &recordingSink{},
		requests: newFakeVerificationStore(),
		plants:   newFakePlantStore(),
		notices:  &fakeNotificationStore{},
	}
	f.plants.plants["p1"] = &entity.Plant{Id: "p1", OwnerId: "o1", Name: "AquaPure"}
	f.svc = &VerificationService{
		requests: f.requests,
		plants:   f.plants,
		notices:  f.notices,
		sink:     f.sink,
	}
	return f
}

func TestVerificationSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending request and notifies admins and owner", func(t *testing.T) {
		f := newVerificationFixture(t)

		req, err := f.svc.Submit(ctx, "o1", &SubmitRequest{PlantId: "p1", DocumentKey: "doc/1"})
		require.NoError(t, err)
		assert.Equal(t, constant.VerificationPending, req.Status)
		assert.Equal(t, "doc/1", req.DocumentKey)

		events := f.sink.named(constant.EventVerificationCreated)
		require.Len(t, events, 2)
	})

	t.Run("rejects duplicate pending request for the same plant", func(t *testing.T) {
		f := newVerificationFixture(t)

		_, err := f.svc.Submit(ctx, "o1", &SubmitRequest{PlantId: "p1"})
		require.NoError(t, err)
		_, err = f.svc.Submit(ctx, "o1", &SubmitRequest{PlantId: "p1"})
		assert.ErrorIs(t, err, errcode.ErrVerificationPending)
	})

	t.Run("allows resubmission after rejection", func(t *testing.T) {
		f := newVerificationFixture(t)

		first, err := f.svc.Submit(ctx, "o1", &SubmitRequest{PlantId: "p1"})
		require.NoError(t, err)
		_, err = f.svc.Review(ctx, first.Id, &ReviewRequest{Status: constant.VerificationRejected, ReviewNote: "blurry scan"})
		require.NoError(t, err)

		_, err = f.svc.Submit(ctx, "o1", &SubmitRequest{PlantId: "p1"})
		assert.NoError(t, err)
	})

	t.Run("rejects foreign plant", func(t *testing.T) {
		f := newVerificationFixture(t)

		_, err := f.svc.Submit(ctx, "someone-else", &SubmitRequest{PlantId: "p1"})
		assert.ErrorIs(t, err, errcode.ErrNotPlantOwner)
	})

	t.Run("rejects unknown plant", func(t *testing.T) {
		f := newVerificationFixture(t)

		_, err := f.svc.Submit(ctx, "o1", &SubmitRequest{PlantId: "ghost"})
		assert.ErrorIs(t, err, errcode.ErrPlantNotFound)
	})
}

func TestVerificationReview(t *testing.T) {
	ctx := context.Background()

	submit := func(t *testing.T, f *verificationFixture) *entity.VerificationRequest {
		t.Helper()
		req, err := f.svc.Submit(ctx, "o1", &SubmitRequest{PlantId: "p1"})
		require.NoError(t, err)
		f.sink.events = nil
		f.notices.notices = nil
		return req
	}

	t.Run("approval verifies the plant and broadcasts", func(t *testing.T) {
		f := newVerificationFixture(t)
		req := submit(t, f)

		reviewed, err := f.svc.Review(ctx, req.Id, &ReviewRequest{Status: constant.VerificationApproved})
		require.NoError(t, err)
		assert.Equal(t, constant.VerificationApproved, reviewed.Status)
		assert.NotNil(t, reviewed.ReviewedAt)
		assert.True(t, f.plants.plants["p1"].Verified)

		assert.Len(t, f.sink.named(constant.EventVerificationUpdated), 2)
		verified := f.sink.named(constant.EventPlantVerified)
		require.Len(t, verified, 1)
		assert.Equal(t, entity.IdentityConsumer, verified[0].Role)
		assert.Len(t, f.sink.named(constant.EventPlantUpdated), 1)

		require.Len(t, f.notices.notices, 1)
		assert.Equal(t, constant.NotificationVerificationApproved, f.notices.notices[0].Type)
	})

	t.Run("rejection keeps the plant unverified", func(t *testing.T) {
		f := newVerificationFixture(t)
		req := submit(t, f)

		reviewed, err := f.svc.Review(ctx, req.Id, &ReviewRequest{Status: constant.VerificationRejected, ReviewNote: "expired permit"})
		require.NoError(t, err)
		assert.Equal(t, constant.VerificationRejected, reviewed.Status)
		assert.Equal(t, "expired permit", reviewed.ReviewNote)
		assert.False(t, f.plants.plants["p1"].Verified)

		assert.Empty(t, f.sink.named(constant.EventPlantVerified))
		require.Len(t, f.notices.notices, 1)
		assert.Equal(t, constant.NotificationVerificationRejected, f.notices.notices[0].Type)
	})

	t.Run("double review is rejected", func(t *testing.T) {
		f := newVerificationFixture(t)
		req := submit(t, f)

		_, err := f.svc.Review(ctx, req.Id, &ReviewRequest{Status: constant.VerificationApproved})
		require.NoError(t, err)
		_, err = f.svc.Review(ctx, req.Id, &ReviewRequest{Status: constant.VerificationRejected})
		assert.ErrorIs(t, err, errcode.ErrVerificationReviewed)
	})

	t.Run("invalid status", func(t *testing.T) {
		f := newVerificationFixture(t)
		req := submit(t, f)

		_, err := f.svc.Review(ctx, req.Id, &ReviewRequest{Status: "MAYBE"})
		assert.ErrorIs(t, err, errcode.ErrInvalidParam)
	})

	t.Run("unknown request", func(t *testing.T) {
		f := newVerificationFixture(t)

		_, err := f.svc.Review(ctx, "ghost", &ReviewRequest{Status: constant.VerificationApproved})
		assert.ErrorIs(t, err, errcode.ErrVerificationNotFound)
	})
}
