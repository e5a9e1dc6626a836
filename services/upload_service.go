package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lumeno/academy-api/model"
	"github.com/lumeno/academy-api/services/storage"
	"gorm.io/gorm"
)

var (
	// ErrExtensionNotAllowed is returned when a requested upload's file
	// extension is not on the allow-list for its type
	ErrExtensionNotAllowed = errors.New("file extension not allowed for this upload type")

	// ErrObjectMissing is returned by CompleteUpload when the client claims
	// an upload finished but the object is not in storage
	ErrObjectMissing = errors.New("uploaded object not found in storage")
)

// Per-type extension allow-lists
var allowedExtensions = map[model.UploadType][]string{
	model.UploadTypeVideo:      {".mp4", ".webm", ".mov", ".avi"},
	model.UploadTypeAttachment: {".pdf", ".ppt", ".pptx", ".doc", ".docx"},
	model.UploadTypeThumbnail:  {".jpg", ".jpeg", ".png", ".webp"},
}

// uploadKeyPrefix maps an upload type to its storage folder
var uploadKeyPrefix = map[model.UploadType]string{
	model.UploadTypeVideo:      "videos",
	model.UploadTypeAttachment: "attachments",
	model.UploadTypeThumbnail:  "thumbnails",
}

// UploadRequestResult is the signed PUT URL plus the key the client must
// report back on completion
type UploadRequestResult struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// UploadService issues signed upload URLs and records references once the
// object is confirmed in storage. Admin-only from the HTTP surface.
type UploadService struct {
	db     *gorm.DB
	spaces *storage.SpacesClient
}

// NewUploadService creates a new upload service
func NewUploadService(db *gorm.DB, spaces *storage.SpacesClient) *UploadService {
	return &UploadService{db: db, spaces: spaces}
}

// RequestUpload validates the extension against the type's allow-list and
// returns a signed PUT URL. A PendingUpload row tracks the key until
// completion; stale rows are collected by a cron sweep.
func (s *UploadService) RequestUpload(ctx context.Context, uploader *model.User, uploadType model.UploadType, fileName string) (*UploadRequestResult, error) {
	exts, ok := allowedExtensions[uploadType]
	if !ok {
		return nil, fmt.Errorf("unknown upload type %q", uploadType)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	allowed := false
	for _, e := range exts {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrExtensionNotAllowed
	}

	key := storage.GenerateKey(uploadKeyPrefix[uploadType], fileName)
	url, err := s.spaces.PresignPut(key, storage.GetContentType(fileName), storage.UploadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload URL: %w", err)
	}

	pending := model.PendingUpload{
		Key:        key,
		UploadType: uploadType,
		FileName:   fileName,
		UploaderID: uploader.ID,
	}
	if err := s.db.WithContext(ctx).Create(&pending).Error; err != nil {
		return nil, fmt.Errorf("failed to track pending upload: %w", err)
	}

	return &UploadRequestResult{
		Key:       key,
		URL:       url,
		ExpiresIn: int(storage.UploadURLTTL.Seconds()),
	}, nil
}

// CompleteUploadRequest identifies where the confirmed object should be
// referenced
type CompleteUploadRequest struct {
	Key           string
	Target        string // lesson_video, course_thumbnail, attachment, file_product
	LessonID      uint
	CourseID      uint
	FileProductID uint
	MinimumTierID uint
	FileSize      int64
}

// CompleteUpload verifies the object landed in storage, then records the
// reference on the target row. The storage check runs first: a reference to
// a missing object is worse than a failed completion.
func (s *UploadService) CompleteUpload(ctx context.Context, req CompleteUploadRequest) error {
	var pending model.PendingUpload
	err := s.db.WithContext(ctx).Where("key = ?", req.Key).First(&pending).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load pending upload: %w", err)
	}

	exists, err := s.spaces.FileExists(ctx, req.Key)
	if err != nil {
		return fmt.Errorf("failed to verify object: %w", err)
	}
	if !exists {
		return ErrObjectMissing
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.attachReference(tx, &pending, req); err != nil {
			return err
		}

		now := time.Now()
		return tx.Model(&model.PendingUpload{}).
			Where("key = ?", req.Key).
			Updates(map[string]interface{}{"completed": true, "completed_at": &now}).Error
	})
}

func (s *UploadService) attachReference(tx *gorm.DB, pending *model.PendingUpload, req CompleteUploadRequest) error {
	switch req.Target {
	case "lesson_video":
		if pending.UploadType != model.UploadTypeVideo {
			return fmt.Errorf("upload type %q cannot back a lesson video", pending.UploadType)
		}
		result := tx.Model(&model.Lesson{}).Where("id = ?", req.LessonID).Update("video_key", req.Key)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil

	case "course_thumbnail":
		if pending.UploadType != model.UploadTypeThumbnail {
			return fmt.Errorf("upload type %q cannot back a course thumbnail", pending.UploadType)
		}
		result := tx.Model(&model.Course{}).Where("id = ?", req.CourseID).Update("thumbnail_key", req.Key)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil

	case "attachment":
		if pending.UploadType != model.UploadTypeAttachment {
			return fmt.Errorf("upload type %q cannot back an attachment", pending.UploadType)
		}
		attachment := model.Attachment{
			LessonID:      req.LessonID,
			FileName:      pending.FileName,
			FileKey:       req.Key,
			FileSize:      req.FileSize,
			MinimumTierID: req.MinimumTierID,
		}
		return tx.Create(&attachment).Error

	case "file_product":
		if pending.UploadType != model.UploadTypeAttachment {
			return fmt.Errorf("upload type %q cannot back a file product", pending.UploadType)
		}
		result := tx.Model(&model.FileProduct{}).
			Where("id = ?", req.FileProductID).
			Updates(map[string]interface{}{
				"file_key":  req.Key,
				"file_name": pending.FileName,
				"file_size": req.FileSize,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil

	default:
		return fmt.Errorf("unknown upload target %q", req.Target)
	}
}

// CleanupStaleUploads deletes tracking rows (and their orphaned objects) for
// uploads requested but never completed. Called by the cron sweep.
func (s *UploadService) CleanupStaleUploads(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	var stale []model.PendingUpload
	err := s.db.WithContext(ctx).
		Where("completed = ? AND created_at < ?", false, cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list stale uploads: %w", err)
	}

	var removed int64
	for _, upload := range stale {
		// Remove the orphaned object if the client did upload it
		if exists, _ := s.spaces.FileExists(ctx, upload.Key); exists {
			if err := s.spaces.DeleteFile(ctx, upload.Key); err != nil {
				continue
			}
		}
		if err := s.db.WithContext(ctx).Delete(&model.PendingUpload{}, upload.ID).Error; err != nil {
			continue
		}
		removed++
	}
	return removed, nil
}
