package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/database"
	"github.com/lumeno/academy-api/model"
	"github.com/lumeno/academy-api/utils/response"
	"gorm.io/gorm"
)

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Title         string `json:"title" validate:"required"`
	Slug          string `json:"slug" validate:"required"`
	Description   string `json:"description"`
	MinimumTierID uint   `json:"minimum_tier_id" validate:"required"`
	Position      int    `json:"position"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Title         string  `json:"title"`
	Slug          string  `json:"slug"`
	Description   *string `json:"description"`
	MinimumTierID uint    `json:"minimum_tier_id"`
	Published     *bool   `json:"published"`
	Position      *int    `json:"position"`
}

// CreateCourse creates a new course
// POST /admin/courses
func CreateCourse(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Title == "" || req.Slug == "" || req.MinimumTierID == 0 {
		return response.BadRequest(c, "title, slug and minimum_tier_id are required")
	}

	var tier model.Tier
	if err := db.First(&tier, req.MinimumTierID).Error; err != nil {
		return response.BadRequest(c, "Tier not found")
	}

	course := model.Course{
		Title:         req.Title,
		Slug:          req.Slug,
		Description:   req.Description,
		MinimumTierID: req.MinimumTierID,
		Position:      req.Position,
	}
	if err := db.Create(&course).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return response.Conflict(c, "A course with this slug already exists")
		}
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// UpdateCourse updates a course
// PUT /admin/courses/:id
func UpdateCourse(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var course model.Course
	if err := db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Slug != "" {
		updates["slug"] = req.Slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.MinimumTierID > 0 {
		var tier model.Tier
		if err := db.First(&tier, req.MinimumTierID).Error; err != nil {
			return response.BadRequest(c, "Tier not found")
		}
		updates["minimum_tier_id"] = req.MinimumTierID
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}

	if len(updates) > 0 {
		if err := db.Model(&course).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update course")
		}
	}

	db.First(&course, courseID)
	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse soft deletes a course and its content hierarchy
// DELETE /admin/courses/:id
func DeleteCourse(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var course model.Course
	if err := db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if err := db.Delete(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}

	return response.SuccessWithMessage(c, "Course deleted successfully", fiber.Map{"course_id": courseID})
}

// CreateModuleRequest represents the request body for creating a module
type CreateModuleRequest struct {
	CourseID uint   `json:"course_id" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Position int    `json:"position"`
}

// CreateModule creates a new module inside a course
// POST /admin/modules
func CreateModule(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var req CreateModuleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CourseID == 0 || req.Title == "" {
		return response.BadRequest(c, "course_id and title are required")
	}

	var course model.Course
	if err := db.First(&course, req.CourseID).Error; err != nil {
		return response.BadRequest(c, "Course not found")
	}

	module := model.CourseModule{
		CourseID: req.CourseID,
		Title:    req.Title,
		Position: req.Position,
	}
	if err := db.Create(&module).Error; err != nil {
		return response.InternalServerError(c, "Failed to create module")
	}

	return response.Created(c, module)
}

// UpdateModuleRequest represents the request body for updating a module
type UpdateModuleRequest struct {
	Title    string `json:"title"`
	Position *int   `json:"position"`
}

// UpdateModule updates a module
// PUT /admin/modules/:id
func UpdateModule(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	moduleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid module ID")
	}

	var req UpdateModuleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var module model.CourseModule
	if err := db.First(&module, moduleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Module not found")
		}
		return response.InternalServerError(c, "Failed to fetch module")
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}

	if len(updates) > 0 {
		if err := db.Model(&module).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update module")
		}
	}

	db.First(&module, moduleID)
	return response.SuccessWithMessage(c, "Module updated successfully", module)
}

// DeleteModule soft deletes a module and its lessons
// DELETE /admin/modules/:id
func DeleteModule(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	moduleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid module ID")
	}

	var module model.CourseModule
	if err := db.First(&module, moduleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Module not found")
		}
		return response.InternalServerError(c, "Failed to fetch module")
	}

	if err := db.Delete(&module).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete module")
	}

	return response.SuccessWithMessage(c, "Module deleted successfully", fiber.Map{"module_id": moduleID})
}

// CreateLessonRequest represents the request body for creating a lesson
type CreateLessonRequest struct {
	ModuleID        uint   `json:"module_id" validate:"required"`
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description"`
	DurationSeconds int    `json:"duration_seconds"`
	Position        int    `json:"position"`
}

// CreateLesson creates a new lesson. The video is attached afterwards through
// the upload flow.
// POST /admin/lessons
func CreateLesson(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var req CreateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ModuleID == 0 || req.Title == "" {
		return response.BadRequest(c, "module_id and title are required")
	}

	var module model.CourseModule
	if err := db.First(&module, req.ModuleID).Error; err != nil {
		return response.BadRequest(c, "Module not found")
	}

	lesson := model.Lesson{
		ModuleID:        req.ModuleID,
		Title:           req.Title,
		Description:     req.Description,
		DurationSeconds: req.DurationSeconds,
		Position:        req.Position,
	}
	if err := db.Create(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to create lesson")
	}

	return response.Created(c, lesson)
}

// UpdateLessonRequest represents the request body for updating a lesson
type UpdateLessonRequest struct {
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	DurationSeconds *int    `json:"duration_seconds"`
	Position        *int    `json:"position"`
}

// UpdateLesson updates a lesson
// PUT /admin/lessons/:id
func UpdateLesson(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	lessonID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	var req UpdateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var lesson model.Lesson
	if err := db.First(&lesson, lessonID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DurationSeconds != nil {
		updates["duration_seconds"] = *req.DurationSeconds
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}

	if len(updates) > 0 {
		if err := db.Model(&lesson).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update lesson")
		}
	}

	db.First(&lesson, lessonID)
	return response.SuccessWithMessage(c, "Lesson updated successfully", lesson)
}

// DeleteLesson soft deletes a lesson
// DELETE /admin/lessons/:id
func DeleteLesson(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	lessonID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	var lesson model.Lesson
	if err := db.First(&lesson, lessonID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	if err := db.Delete(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete lesson")
	}

	return response.SuccessWithMessage(c, "Lesson deleted successfully", fiber.Map{"lesson_id": lessonID})
}

// UpdateAttachmentRequest represents the request body for updating an attachment
type UpdateAttachmentRequest struct {
	FileName      string `json:"file_name"`
	MinimumTierID uint   `json:"minimum_tier_id"`
}

// UpdateAttachment updates an attachment's metadata. Attachments are created
// through the upload completion flow.
// PUT /admin/attachments/:id
func UpdateAttachment(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	attachmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid attachment ID")
	}

	var req UpdateAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var attachment model.Attachment
	if err := db.First(&attachment, attachmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Attachment not found")
		}
		return response.InternalServerError(c, "Failed to fetch attachment")
	}

	updates := make(map[string]interface{})
	if req.FileName != "" {
		updates["file_name"] = req.FileName
	}
	if req.MinimumTierID > 0 {
		var tier model.Tier
		if err := db.First(&tier, req.MinimumTierID).Error; err != nil {
			return response.BadRequest(c, "Tier not found")
		}
		updates["minimum_tier_id"] = req.MinimumTierID
	}

	if len(updates) > 0 {
		if err := db.Model(&attachment).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update attachment")
		}
	}

	db.First(&attachment, attachmentID)
	return response.SuccessWithMessage(c, "Attachment updated successfully", attachment)
}

// DeleteAttachment soft deletes an attachment
// DELETE /admin/attachments/:id
func DeleteAttachment(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	attachmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid attachment ID")
	}

	var attachment model.Attachment
	if err := db.First(&attachment, attachmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Attachment not found")
		}
		return response.InternalServerError(c, "Failed to fetch attachment")
	}

	if err := db.Delete(&attachment).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete attachment")
	}

	return response.SuccessWithMessage(c, "Attachment deleted successfully", fiber.Map{"attachment_id": attachmentID})
}
