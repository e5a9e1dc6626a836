package model

import (
	"time"

	"gorm.io/gorm"
)

// UploadType is what kind of media an upload URL was requested for. Each
// type has its own extension allow-list.
type UploadType string

const (
	UploadTypeVideo      UploadType = "video"
	UploadTypeAttachment UploadType = "attachment"
	UploadTypeThumbnail  UploadType = "thumbnail"
)

// PendingUpload tracks a requested upload URL until the client confirms the
// object landed in storage. Rows that never complete are swept by a cron job.
type PendingUpload struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Key         string         `gorm:"type:varchar(500);uniqueIndex;not null" json:"key"`
	UploadType  UploadType     `gorm:"type:varchar(20);not null" json:"upload_type"`
	FileName    string         `gorm:"not null" json:"file_name"`
	UploaderID  uint           `gorm:"not null;index" json:"uploader_id"`
	Completed   bool           `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`

	// Relationships
	Uploader User `gorm:"foreignKey:UploaderID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for PendingUpload
func (PendingUpload) TableName() string {
	return "pending_uploads"
}
