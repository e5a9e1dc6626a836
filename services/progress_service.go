package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumeno/academy-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressService tracks per-lesson watch time and completion
type ProgressService struct {
	db          *gorm.DB
	entitlement *EntitlementService
}

// NewProgressService creates a new progress service
func NewProgressService(db *gorm.DB, entitlement *EntitlementService) *ProgressService {
	return &ProgressService{db: db, entitlement: entitlement}
}

// UpsertProgressRequest is the player's progress snapshot
type UpsertProgressRequest struct {
	LessonID    uint
	TimeWatched *int
	IsCompleted *bool
}

// Upsert writes the progress snapshot for (user, lesson). Watch time only
// moves forward; a stale snapshot from a second tab never rewinds it.
func (s *ProgressService) Upsert(ctx context.Context, user *model.User, req UpsertProgressRequest) (*model.UserProgress, error) {
	if _, err := s.entitlement.ResolveLesson(ctx, user, req.LessonID); err != nil {
		return nil, err
	}

	progress := model.UserProgress{
		UserID:   user.ID,
		LessonID: req.LessonID,
	}
	if req.TimeWatched != nil {
		progress.TimeWatchedSeconds = *req.TimeWatched
	}
	if req.IsCompleted != nil && *req.IsCompleted {
		progress.Completed = true
		now := time.Now()
		progress.CompletedAt = &now
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.UserProgress
		err := tx.Where("user_id = ? AND lesson_id = ?", user.ID, req.LessonID).First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			if progress.TimeWatchedSeconds < existing.TimeWatchedSeconds {
				progress.TimeWatchedSeconds = existing.TimeWatchedSeconds
			}
			if existing.Completed {
				progress.Completed = true
				progress.CompletedAt = existing.CompletedAt
			}
		}

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"time_watched_seconds": progress.TimeWatchedSeconds,
				"completed":            progress.Completed,
				"completed_at":         progress.CompletedAt,
				"updated_at":           time.Now(),
			}),
		}).Create(&progress).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert progress: %w", err)
	}

	return s.Get(ctx, user, req.LessonID)
}

// Get returns the current progress snapshot for a lesson, or nil if no
// progress has been recorded
func (s *ProgressService) Get(ctx context.Context, user *model.User, lessonID uint) (*model.UserProgress, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}

	var progress model.UserProgress
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", user.ID, lessonID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	return &progress, nil
}

// CourseCompletion summarizes how much of a course a user has finished
type CourseCompletion struct {
	TotalLessons     int64 `json:"total_lessons"`
	CompletedLessons int64 `json:"completed_lessons"`
}

// CourseProgress computes completion counts for a course the user can access
func (s *ProgressService) CourseProgress(ctx context.Context, user *model.User, courseID uint) (*CourseCompletion, error) {
	if _, err := s.entitlement.ResolveCourse(ctx, user, courseID); err != nil {
		return nil, err
	}

	var total int64
	err := s.db.WithContext(ctx).
		Model(&model.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ?", courseID).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}

	var completed int64
	err = s.db.WithContext(ctx).
		Model(&model.UserProgress{}).
		Joins("JOIN lessons ON lessons.id = user_progress.lesson_id").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ? AND user_progress.user_id = ? AND user_progress.completed = ?", courseID, user.ID, true).
		Count(&completed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	return &CourseCompletion{TotalLessons: total, CompletedLessons: completed}, nil
}
