package media

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/services"
	"github.com/lumeno/academy-api/utils/middleware"
	"github.com/lumeno/academy-api/utils/response"
)

// MediaHandler issues signed URLs for videos, previews and downloads
type MediaHandler struct {
	media *services.MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(media *services.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// GetVideoURL handles GET /api/v1/videos/:lessonId
// Responds with a 300 second signed playback URL
func (h *MediaHandler) GetVideoURL(c *fiber.Ctx) error {
	lessonID, err := strconv.ParseUint(c.Params("lessonId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	user, _ := middleware.GetUser(c)
	signed, err := h.media.LessonVideoURL(c.Context(), user, uint(lessonID))
	if err != nil {
		return respondMediaError(c, err)
	}

	return response.Success(c, signed)
}

// GetDownloadURL handles GET /api/v1/downloads/:attachmentId
// Records the download and responds with a 60 second signed URL
func (h *MediaHandler) GetDownloadURL(c *fiber.Ctx) error {
	attachmentID, err := strconv.ParseUint(c.Params("attachmentId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid attachment ID")
	}

	user, _ := middleware.GetUser(c)
	signed, err := h.media.AttachmentDownloadURL(c.Context(), user, uint(attachmentID))
	if err != nil {
		return respondMediaError(c, err)
	}

	return response.Success(c, signed)
}

// GetPreviewURL handles GET /api/v1/preview/:attachmentId
// Same gate as download but longer-lived and not recorded
func (h *MediaHandler) GetPreviewURL(c *fiber.Ctx) error {
	attachmentID, err := strconv.ParseUint(c.Params("attachmentId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid attachment ID")
	}

	user, _ := middleware.GetUser(c)
	signed, err := h.media.AttachmentPreviewURL(c.Context(), user, uint(attachmentID))
	if err != nil {
		return respondMediaError(c, err)
	}

	return response.Success(c, signed)
}

// GetFileProductURL handles GET /api/v1/files/:fileProductId/download
// Purchase-gated signed URL for a standalone file product
func (h *MediaHandler) GetFileProductURL(c *fiber.Ctx) error {
	fileProductID, err := strconv.ParseUint(c.Params("fileProductId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid file ID")
	}

	user, _ := middleware.GetUser(c)
	signed, err := h.media.FileProductDownloadURL(c.Context(), user, uint(fileProductID))
	if err != nil {
		return respondMediaError(c, err)
	}

	return response.Success(c, signed)
}

func respondMediaError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return response.Unauthorized(c, "Authentication required")
	case errors.Is(err, services.ErrForbidden):
		return response.Forbidden(c, "Your current tier or purchases do not include this content")
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, "File not found")
	case errors.Is(err, services.ErrDownloadLimitReached):
		return response.Error(c, fiber.StatusForbidden, "Download limit for your tier reached", "DOWNLOAD_LIMIT_REACHED")
	default:
		return response.InternalServerError(c, "Failed to sign URL")
	}
}
