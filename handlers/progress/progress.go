package progress

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/services"
	"github.com/lumeno/academy-api/utils/middleware"
	"github.com/lumeno/academy-api/utils/response"
)

// ProgressHandler handles watch-progress endpoints
type ProgressHandler struct {
	progress *services.ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progress *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// UpsertProgressRequest is the player's snapshot payload
type UpsertProgressRequest struct {
	LessonID    uint  `json:"lesson_id" validate:"required"`
	TimeWatched *int  `json:"time_watched,omitempty"`
	IsCompleted *bool `json:"is_completed,omitempty"`
}

// UpsertProgress handles POST /api/v1/progress
func (h *ProgressHandler) UpsertProgress(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpsertProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.LessonID == 0 {
		return response.BadRequest(c, "lesson_id is required")
	}
	if req.TimeWatched != nil && *req.TimeWatched < 0 {
		return response.BadRequest(c, "time_watched cannot be negative")
	}

	snapshot, err := h.progress.Upsert(c.Context(), user, services.UpsertProgressRequest{
		LessonID:    req.LessonID,
		TimeWatched: req.TimeWatched,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		return respondProgressError(c, err)
	}

	return response.Success(c, snapshot)
}

// GetProgress handles GET /api/v1/progress?lesson_id=
// Returns the snapshot or null if nothing has been recorded yet
func (h *ProgressHandler) GetProgress(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	lessonID, err := strconv.ParseUint(c.Query("lesson_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "lesson_id query parameter is required")
	}

	snapshot, err := h.progress.Get(c.Context(), user, uint(lessonID))
	if err != nil {
		return respondProgressError(c, err)
	}

	return response.Success(c, snapshot)
}

func respondProgressError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return response.Unauthorized(c, "Authentication required")
	case errors.Is(err, services.ErrForbidden):
		return response.Forbidden(c, "Your current tier does not include this lesson")
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, "Lesson not found")
	default:
		return response.InternalServerError(c, "Failed to record progress")
	}
}
