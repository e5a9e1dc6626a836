package model

import (
	"time"
)

// AttachmentDownload records that a user downloaded an attachment. One row
// per (user, attachment); repeat downloads refresh DownloadedAt and bump
// Count instead of creating new rows.
type AttachmentDownload struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_download_user_attachment" json:"user_id"`
	AttachmentID uint      `gorm:"not null;uniqueIndex:idx_download_user_attachment" json:"attachment_id"`
	DownloadedAt time.Time `gorm:"not null;index" json:"downloaded_at"`
	Count        int       `gorm:"default:1" json:"count"`

	// Relationships
	User       User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Attachment Attachment `gorm:"foreignKey:AttachmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for AttachmentDownload
func (AttachmentDownload) TableName() string {
	return "attachment_downloads"
}
