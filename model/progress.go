package model

import (
	"time"
)

// UserProgress tracks per-lesson watch time and completion for a user.
// Upserted by the player; one row per (user, lesson).
type UserProgress struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	UserID             uint       `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"user_id"`
	LessonID           uint       `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"lesson_id"`
	TimeWatchedSeconds int        `gorm:"default:0" json:"time_watched_seconds"`
	Completed          bool       `gorm:"default:false" json:"completed"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Lesson Lesson `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for UserProgress
func (UserProgress) TableName() string {
	return "user_progress"
}
