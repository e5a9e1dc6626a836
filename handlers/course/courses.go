package course

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/model"
	"github.com/lumeno/academy-api/services"
	"github.com/lumeno/academy-api/utils/middleware"
	"github.com/lumeno/academy-api/utils/response"
	"gorm.io/gorm"
)

// CourseHandler handles course catalog endpoints
type CourseHandler struct {
	db          *gorm.DB
	entitlement *services.EntitlementService
	progress    *services.ProgressService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, entitlement *services.EntitlementService, progress *services.ProgressService) *CourseHandler {
	return &CourseHandler{db: db, entitlement: entitlement, progress: progress}
}

// CourseListItem is a catalog entry annotated with whether the caller's
// tier unlocks it
type CourseListItem struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Description     string `json:"description"`
	MinimumTierID   uint   `json:"minimum_tier_id"`
	MinimumTierName string `json:"minimum_tier_name"`
	Accessible      bool   `json:"accessible"`
}

// ListCourses handles GET /api/v1/courses
// Public catalog: everyone sees what exists, the accessible flag tells them
// what their tier unlocks
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	var courses []model.Course
	err := h.db.Preload("MinimumTier").
		Where("published = ?", true).
		Order("position asc, id asc").
		Find(&courses).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	// Optional auth: anonymous callers get accessible=false everywhere
	user, _ := middleware.GetUser(c)
	level := 0
	isAdmin := false
	if user != nil {
		isAdmin = user.IsAdmin()
		var tier model.Tier
		if err := h.db.First(&tier, user.TierID).Error; err == nil {
			level = tier.PermissionLevel
		}
	}

	items := make([]CourseListItem, 0, len(courses))
	for _, course := range courses {
		items = append(items, CourseListItem{
			ID:              course.ID,
			Title:           course.Title,
			Slug:            course.Slug,
			Description:     course.Description,
			MinimumTierID:   course.MinimumTierID,
			MinimumTierName: course.MinimumTier.Name,
			Accessible:      isAdmin || level >= course.MinimumTier.PermissionLevel,
		})
	}

	return response.Success(c, fiber.Map{
		"courses": items,
		"total":   len(items),
	})
}

// GetCourse handles GET /api/v1/courses/:id
// Returns the full course payload (modules, lessons, attachments) iff the
// caller's tier unlocks it
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	user, _ := middleware.GetUser(c)
	course, err := h.entitlement.ResolveCourse(c.Context(), user, uint(courseID))
	if err != nil {
		return respondEntitlementError(c, err)
	}

	// Load the full hierarchy now that access is settled
	err = h.db.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_modules.position asc")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.position asc")
		}).
		Preload("Modules.Lessons.Attachments").
		First(course, course.ID).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load course content")
	}

	return response.Success(c, course)
}

// GetCourseProgress handles GET /api/v1/courses/:id/progress
func (h *CourseHandler) GetCourseProgress(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	completion, err := h.progress.CourseProgress(c.Context(), user, uint(courseID))
	if err != nil {
		return respondEntitlementError(c, err)
	}

	return response.Success(c, completion)
}

// respondEntitlementError maps resolver errors onto the 401/403/404 taxonomy
func respondEntitlementError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return response.Unauthorized(c, "Authentication required")
	case errors.Is(err, services.ErrForbidden):
		return response.Forbidden(c, "Your current tier does not include this content")
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, "Course not found")
	default:
		return response.InternalServerError(c, "Failed to resolve access")
	}
}
