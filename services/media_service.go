package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumeno/academy-api/model"
	"github.com/lumeno/academy-api/services/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDownloadLimitReached is returned when a tier's rolling download
// allowance is exhausted
var ErrDownloadLimitReached = errors.New("download limit reached")

// SignedMedia is a freshly minted signed URL plus its lifetime
type SignedMedia struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
	FileName  string `json:"file_name,omitempty"`
}

// MediaService mints signed URLs for content the entitlement resolver has
// approved, and records downloads. URLs are never cached: expiry is short
// and a fresh presign per request is cheap.
type MediaService struct {
	db          *gorm.DB
	entitlement *EntitlementService
	spaces      *storage.SpacesClient
}

// NewMediaService creates a new media service
func NewMediaService(db *gorm.DB, entitlement *EntitlementService, spaces *storage.SpacesClient) *MediaService {
	return &MediaService{db: db, entitlement: entitlement, spaces: spaces}
}

// LessonVideoURL returns a signed playback URL for a lesson's video
func (s *MediaService) LessonVideoURL(ctx context.Context, user *model.User, lessonID uint) (*SignedMedia, error) {
	lesson, err := s.entitlement.ResolveLesson(ctx, user, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.VideoKey == "" {
		return nil, ErrNotFound
	}

	url, err := s.spaces.PresignGet(lesson.VideoKey, storage.VideoURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign video URL: %w", err)
	}

	return &SignedMedia{URL: url, ExpiresIn: int(storage.VideoURLTTL.Seconds())}, nil
}

// AttachmentPreviewURL returns a signed preview URL. Previews are not
// recorded as downloads.
func (s *MediaService) AttachmentPreviewURL(ctx context.Context, user *model.User, attachmentID uint) (*SignedMedia, error) {
	attachment, err := s.entitlement.ResolveAttachment(ctx, user, attachmentID)
	if err != nil {
		return nil, err
	}
	if attachment.FileKey == "" {
		return nil, ErrNotFound
	}

	url, err := s.spaces.PresignGet(attachment.FileKey, storage.PreviewURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign preview URL: %w", err)
	}

	return &SignedMedia{
		URL:       url,
		ExpiresIn: int(storage.PreviewURLTTL.Seconds()),
		FileName:  attachment.FileName,
	}, nil
}

// AttachmentDownloadURL validates access, enforces the tier download limit,
// records the download, and returns a short-lived signed URL
func (s *MediaService) AttachmentDownloadURL(ctx context.Context, user *model.User, attachmentID uint) (*SignedMedia, error) {
	attachment, err := s.entitlement.ResolveAttachment(ctx, user, attachmentID)
	if err != nil {
		return nil, err
	}
	if attachment.FileKey == "" {
		return nil, ErrNotFound
	}

	if err := s.checkDownloadLimit(ctx, user); err != nil {
		return nil, err
	}

	if err := s.recordDownload(ctx, user.ID, attachmentID); err != nil {
		return nil, err
	}

	url, err := s.spaces.PresignGetWithFilename(attachment.FileKey, attachment.FileName, storage.DownloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download URL: %w", err)
	}

	return &SignedMedia{
		URL:       url,
		ExpiresIn: int(storage.DownloadURLTTL.Seconds()),
		FileName:  attachment.FileName,
	}, nil
}

// FileProductDownloadURL returns a signed URL for a purchased file product
func (s *MediaService) FileProductDownloadURL(ctx context.Context, user *model.User, fileProductID uint) (*SignedMedia, error) {
	product, err := s.entitlement.ResolveFileProduct(ctx, user, fileProductID)
	if err != nil {
		return nil, err
	}
	if product.FileKey == "" {
		return nil, ErrNotFound
	}

	url, err := s.spaces.PresignGetWithFilename(product.FileKey, product.FileName, storage.DownloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign file product URL: %w", err)
	}

	return &SignedMedia{
		URL:       url,
		ExpiresIn: int(storage.DownloadURLTTL.Seconds()),
		FileName:  product.FileName,
	}, nil
}

// checkDownloadLimit enforces the tier's rolling 30-day download allowance.
// Admins and tiers with limit 0 are unlimited.
func (s *MediaService) checkDownloadLimit(ctx context.Context, user *model.User) error {
	if user.IsAdmin() {
		return nil
	}

	var tier model.Tier
	if err := s.db.WithContext(ctx).First(&tier, user.TierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load tier for download limit: %w", err)
	}
	if tier.DownloadLimit <= 0 {
		return nil
	}

	since := time.Now().AddDate(0, 0, -30)
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.AttachmentDownload{}).
		Where("user_id = ? AND downloaded_at > ?", user.ID, since).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to count downloads: %w", err)
	}

	if count >= int64(tier.DownloadLimit) {
		return ErrDownloadLimitReached
	}
	return nil
}

// recordDownload upserts the (user, attachment) download row. Repeat
// downloads refresh downloaded_at and bump the counter; they never create a
// second row.
func (s *MediaService) recordDownload(ctx context.Context, userID, attachmentID uint) error {
	now := time.Now()
	record := model.AttachmentDownload{
		UserID:       userID,
		AttachmentID: attachmentID,
		DownloadedAt: now,
		Count:        1,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "attachment_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"downloaded_at": now,
				"count":         gorm.Expr("attachment_downloads.count + 1"),
			}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}
