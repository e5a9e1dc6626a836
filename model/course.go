package model

import (
	"time"

	"gorm.io/gorm"
)

// Course is the top of the content hierarchy. MinimumTierID gates the whole
// course; lessons inherit it.
type Course struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Title         string         `gorm:"not null" json:"title"`
	Slug          string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description   string         `gorm:"type:text" json:"description"`
	ThumbnailKey  string         `gorm:"type:varchar(500)" json:"thumbnail_key"`
	MinimumTierID uint           `gorm:"not null;index" json:"minimum_tier_id"`
	Published     bool           `gorm:"default:false" json:"published"`
	Position      int            `gorm:"default:0" json:"position"`

	// Relationships
	MinimumTier Tier           `gorm:"foreignKey:MinimumTierID" json:"minimum_tier,omitempty"`
	Modules     []CourseModule `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"modules,omitempty"`
}

// CourseModule groups lessons within a course
type CourseModule struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	Title     string         `gorm:"not null" json:"title"`
	Position  int            `gorm:"default:0" json:"position"`

	// Relationships
	Course  Course   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Lessons []Lesson `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
}

// TableName specifies the table name for CourseModule
func (CourseModule) TableName() string {
	return "course_modules"
}

// Lesson holds a single video. Its effective tier requirement is its
// course's MinimumTierID.
type Lesson struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	ModuleID        uint           `gorm:"not null;index" json:"module_id"`
	Title           string         `gorm:"not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	VideoKey        string         `gorm:"type:varchar(500)" json:"-"`
	DurationSeconds int            `gorm:"default:0" json:"duration_seconds"`
	Position        int            `gorm:"default:0" json:"position"`

	// Relationships
	Module      CourseModule `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"-"`
	Attachments []Attachment `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

// Attachment is a downloadable file attached to a lesson. It carries its own
// MinimumTierID, independently settable by an admin, so a free lesson can
// still carry a premium worksheet.
type Attachment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	LessonID      uint           `gorm:"not null;index" json:"lesson_id"`
	FileName      string         `gorm:"not null" json:"file_name"`
	FileKey       string         `gorm:"type:varchar(500);not null" json:"-"`
	FileSize      int64          `gorm:"default:0" json:"file_size"`
	MinimumTierID uint           `gorm:"not null;index" json:"minimum_tier_id"`

	// Relationships
	Lesson      Lesson     `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
	MinimumTier Tier       `gorm:"foreignKey:MinimumTierID" json:"minimum_tier,omitempty"`
	Products    []*Product `gorm:"many2many:product_attachments;" json:"-"`
}
