package upload

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/model"
	"github.com/lumeno/academy-api/services"
	"github.com/lumeno/academy-api/utils/middleware"
	"github.com/lumeno/academy-api/utils/response"
)

// UploadHandler issues signed upload URLs and confirms completed uploads.
// All routes are admin-only.
type UploadHandler struct {
	uploads *services.UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// RequestUploadRequest asks for a signed PUT URL
type RequestUploadRequest struct {
	UploadType string `json:"upload_type" validate:"required,oneof=video attachment thumbnail"`
	FileName   string `json:"file_name" validate:"required"`
}

// RequestUpload handles POST /api/v1/admin/uploads
func (h *UploadHandler) RequestUpload(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req RequestUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.FileName == "" {
		return response.BadRequest(c, "file_name is required")
	}

	uploadType := model.UploadType(req.UploadType)
	switch uploadType {
	case model.UploadTypeVideo, model.UploadTypeAttachment, model.UploadTypeThumbnail:
	default:
		return response.BadRequest(c, "upload_type must be video, attachment, or thumbnail")
	}

	result, err := h.uploads.RequestUpload(c.Context(), user, uploadType, req.FileName)
	if err != nil {
		if errors.Is(err, services.ErrExtensionNotAllowed) {
			return response.BadRequest(c, "File extension is not allowed for this upload type")
		}
		log.Printf("Failed to create upload request: %v", err)
		return response.InternalServerError(c, "Failed to create upload request")
	}

	return response.Created(c, result)
}

// CompleteUploadRequest confirms an upload and attaches it to a resource
type CompleteUploadRequest struct {
	Key           string `json:"key" validate:"required"`
	Target        string `json:"target" validate:"required,oneof=lesson_video course_thumbnail attachment file_product"`
	LessonID      uint   `json:"lesson_id,omitempty"`
	CourseID      uint   `json:"course_id,omitempty"`
	FileProductID uint   `json:"file_product_id,omitempty"`
	MinimumTierID uint   `json:"minimum_tier_id,omitempty"`
	FileSize      int64  `json:"file_size,omitempty"`
}

// CompleteUpload handles POST /api/v1/admin/uploads/complete
func (h *UploadHandler) CompleteUpload(c *fiber.Ctx) error {
	var req CompleteUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Key == "" || req.Target == "" {
		return response.BadRequest(c, "key and target are required")
	}

	err := h.uploads.CompleteUpload(c.Context(), services.CompleteUploadRequest{
		Key:           req.Key,
		Target:        req.Target,
		LessonID:      req.LessonID,
		CourseID:      req.CourseID,
		FileProductID: req.FileProductID,
		MinimumTierID: req.MinimumTierID,
		FileSize:      req.FileSize,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "No pending upload found for this key")
		case errors.Is(err, services.ErrObjectMissing):
			return response.BadRequest(c, "Object was not found in storage; upload it before completing")
		default:
			log.Printf("Failed to complete upload %q: %v", req.Key, err)
			return response.InternalServerError(c, "Failed to complete upload")
		}
	}

	return response.SuccessWithMessage(c, "Upload completed", nil)
}
