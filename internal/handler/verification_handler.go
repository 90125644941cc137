package handler

import (
	"context"
	"mime/multipart"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/flowgrid/flowgrid/internal/middleware"
	"github.com/flowgrid/flowgrid/internal/service"
	"github.com/flowgrid/flowgrid/internal/storage"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/flowgrid/flowgrid/pkg/response"
	"github.com/mbeoliero/kit/log"
)

const documentPrefix = "verification-documents"

// VerificationHandler handles owner-side verification requests
type VerificationHandler struct {
	verificationService *service.VerificationService
	objectStorage       *storage.ObjectStorage
}

// NewVerificationHandler creates a new VerificationHandler
func NewVerificationHandler(verificationService *service.VerificationService, objectStorage *storage.ObjectStorage) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
		objectStorage:       objectStorage,
	}
}

// Submit files a verification request for one of the caller's plants
func (h *VerificationHandler) Submit(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	var req service.SubmitRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	request, err := h.verificationService.Submit(ctx, id.Id, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, request)
}

// List returns the caller's verification requests, newest first
func (h *VerificationHandler) List(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	requests, err := h.verificationService.ListByOwner(ctx, id.Id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, requests)
}

// UploadDocument stores a verification document and returns its object key
func (h *VerificationHandler) UploadDocument(ctx context.Context, c *app.RequestContext) {
	if h.objectStorage == nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInternalServer)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	stat, err := h.uploadFile(ctx, fileHeader)
	if err != nil {
		log.CtxWarn(ctx, "upload document failed: %v", err)
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, stat)
}

func (h *VerificationHandler) uploadFile(ctx context.Context, fileHeader *multipart.FileHeader) (storage.ObjectStat, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return storage.ObjectStat{}, errcode.ErrInvalidParam.Wrap(err)
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	return h.objectStorage.Upload(ctx, documentPrefix, fileHeader.Filename, file, fileHeader.Size, contentType)
}
