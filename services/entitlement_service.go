package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumeno/academy-api/model"
	"gorm.io/gorm"
)

// Entitlement failure modes. Handlers translate these to 401/403/404; the
// distinction between "who are you" and "you can't have this" matters to
// clients.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
	ErrNotFound        = errors.New("resource not found")
)

// EntitlementService answers "can this user access this resource". Courses,
// lessons and attachments are tier-gated; file products and bundles are
// purchase-gated. Admins always pass.
type EntitlementService struct {
	db *gorm.DB
}

// NewEntitlementService creates a new entitlement service
func NewEntitlementService(db *gorm.DB) *EntitlementService {
	return &EntitlementService{db: db}
}

// permissionLevel loads the caller's current tier level. Unauthenticated
// callers have no level and are denied before any tier lookup.
func (s *EntitlementService) permissionLevel(ctx context.Context, user *model.User) (int, error) {
	if user == nil {
		return 0, ErrUnauthenticated
	}

	var tier model.Tier
	if err := s.db.WithContext(ctx).First(&tier, user.TierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A user without a resolvable tier has no entitlements
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load tier: %w", err)
	}

	return tier.PermissionLevel, nil
}

// requiredLevel loads the permission level a minimum-tier reference demands
func (s *EntitlementService) requiredLevel(ctx context.Context, minimumTierID uint) (int, error) {
	var tier model.Tier
	if err := s.db.WithContext(ctx).First(&tier, minimumTierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("minimum tier %d does not exist", minimumTierID)
		}
		return 0, fmt.Errorf("failed to load minimum tier: %w", err)
	}
	return tier.PermissionLevel, nil
}

// checkTierGate grants iff the caller's level meets the resource's minimum
func (s *EntitlementService) checkTierGate(ctx context.Context, user *model.User, minimumTierID uint) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if user.IsAdmin() {
		return nil
	}

	level, err := s.permissionLevel(ctx, user)
	if err != nil {
		return err
	}

	required, err := s.requiredLevel(ctx, minimumTierID)
	if err != nil {
		return err
	}

	if level < required {
		return ErrForbidden
	}
	return nil
}

// ResolveCourse loads a course and checks the caller may access it
func (s *EntitlementService) ResolveCourse(ctx context.Context, user *model.User, courseID uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	if !course.Published && (user == nil || !user.IsAdmin()) {
		return nil, ErrNotFound
	}

	if err := s.checkTierGate(ctx, user, course.MinimumTierID); err != nil {
		return nil, err
	}
	return &course, nil
}

// ResolveLesson loads a lesson and checks access. A lesson's effective
// requirement is its course's minimum tier.
func (s *EntitlementService) ResolveLesson(ctx context.Context, user *model.User, lessonID uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := s.db.WithContext(ctx).
		Preload("Module").
		First(&lesson, lessonID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load lesson: %w", err)
	}

	if _, err := s.ResolveCourse(ctx, user, lesson.Module.CourseID); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ResolveAttachment loads an attachment and checks access. The attachment's
// own minimum tier applies, and a purchased bundle containing the attachment
// also unlocks it regardless of tier.
func (s *EntitlementService) ResolveAttachment(ctx context.Context, user *model.User, attachmentID uint) (*model.Attachment, error) {
	var attachment model.Attachment
	if err := s.db.WithContext(ctx).First(&attachment, attachmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load attachment: %w", err)
	}

	tierErr := s.checkTierGate(ctx, user, attachment.MinimumTierID)
	if tierErr == nil {
		return &attachment, nil
	}
	if !errors.Is(tierErr, ErrForbidden) {
		return nil, tierErr
	}

	// Tier gate failed; a bundle purchase can still unlock the file
	owned, err := s.ownsAttachmentViaBundle(ctx, user.ID, attachmentID)
	if err != nil {
		return nil, err
	}
	if owned {
		return &attachment, nil
	}
	return nil, ErrForbidden
}

func (s *EntitlementService) ownsAttachmentViaBundle(ctx context.Context, userID, attachmentID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ProductPurchase{}).
		Joins("JOIN product_attachments ON product_attachments.product_id = product_purchases.product_id").
		Where("product_purchases.user_id = ? AND product_attachments.attachment_id = ?", userID, attachmentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check bundle ownership: %w", err)
	}
	return count > 0, nil
}

// ResolveFileProduct loads a file product and checks the caller owns it
func (s *EntitlementService) ResolveFileProduct(ctx context.Context, user *model.User, fileProductID uint) (*model.FileProduct, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}

	var product model.FileProduct
	if err := s.db.WithContext(ctx).First(&product, fileProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load file product: %w", err)
	}

	if user.IsAdmin() {
		return &product, nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.FilePurchase{}).
		Where("user_id = ? AND file_product_id = ?", user.ID, fileProductID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check file purchase: %w", err)
	}
	if count == 0 {
		return nil, ErrForbidden
	}
	return &product, nil
}

// OwnsProduct reports whether the user purchased the bundle
func (s *EntitlementService) OwnsProduct(ctx context.Context, user *model.User, productID uint) (bool, error) {
	if user == nil {
		return false, ErrUnauthenticated
	}
	if user.IsAdmin() {
		return true, nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ProductPurchase{}).
		Where("user_id = ? AND product_id = ?", user.ID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check product purchase: %w", err)
	}
	return count > 0, nil
}
