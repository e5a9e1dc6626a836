package services

import (
	"context"
	"strings"
	"testing"

	"github.com/lumeno/academy-api/model"
	"github.com/lumeno/academy-api/services/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonVideoURL(t *testing.T) {
	db := newTestDB(t)
	free, basic, _ := seedTiers(t, db)
	svc := NewMediaService(db, NewEntitlementService(db), newTestSpaces(t))
	_, module, lesson, _ := createCourseTree(t, db, basic.ID)
	user := createUser(t, db, basic.ID, "student")

	media, err := svc.LessonVideoURL(context.Background(), user, lesson.ID)
	require.NoError(t, err)
	assert.True(t, strings.Contains(media.URL, "videos/lesson1.mp4"))
	assert.True(t, strings.Contains(media.URL, "X-Amz-Signature"))
	assert.Equal(t, int(storage.VideoURLTTL.Seconds()), media.ExpiresIn)

	// Gated below the course tier
	freeUser := createUser(t, db, free.ID, "student")
	_, err = svc.LessonVideoURL(context.Background(), freeUser, lesson.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// A lesson without a video reads as not-found
	bare := model.Lesson{ModuleID: module.ID, Title: "No video", Position: 2}
	require.NoError(t, db.Create(&bare).Error)
	_, err = svc.LessonVideoURL(context.Background(), user, bare.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttachmentDownloadRecordsOneRow(t *testing.T) {
	db := newTestDB(t)
	_, basic, _ := seedTiers(t, db)
	svc := NewMediaService(db, NewEntitlementService(db), newTestSpaces(t))
	_, _, _, attachment := createCourseTree(t, db, basic.ID)
	user := createUser(t, db, basic.ID, "student")

	media, err := svc.AttachmentDownloadURL(context.Background(), user, attachment.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes.pdf", media.FileName)
	assert.Equal(t, int(storage.DownloadURLTTL.Seconds()), media.ExpiresIn)

	_, err = svc.AttachmentDownloadURL(context.Background(), user, attachment.ID)
	require.NoError(t, err)

	var rows []model.AttachmentDownload
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Count)
}

func TestAttachmentDownloadLimit(t *testing.T) {
	db := newTestDB(t)
	free, _, _ := seedTiers(t, db)
	limited := model.Tier{Name: "Limited", PermissionLevel: 1, DownloadLimit: 1, Active: true}
	require.NoError(t, db.Create(&limited).Error)

	svc := NewMediaService(db, NewEntitlementService(db), newTestSpaces(t))
	_, _, lesson, first := createCourseTree(t, db, limited.ID)
	second := model.Attachment{
		LessonID:      lesson.ID,
		FileName:      "extra.pdf",
		FileKey:       "attachments/extra.pdf",
		MinimumTierID: limited.ID,
	}
	require.NoError(t, db.Create(&second).Error)

	user := createUser(t, db, limited.ID, "student")
	_, err := svc.AttachmentDownloadURL(context.Background(), user, first.ID)
	require.NoError(t, err)

	_, err = svc.AttachmentDownloadURL(context.Background(), user, second.ID)
	assert.ErrorIs(t, err, ErrDownloadLimitReached)

	// Admins are never limited
	admin := createUser(t, db, free.ID, "admin")
	_, err = svc.AttachmentDownloadURL(context.Background(), admin, second.ID)
	assert.NoError(t, err)
}

func TestAttachmentPreviewDoesNotCountAsDownload(t *testing.T) {
	db := newTestDB(t)
	_, basic, _ := seedTiers(t, db)
	svc := NewMediaService(db, NewEntitlementService(db), newTestSpaces(t))
	_, _, _, attachment := createCourseTree(t, db, basic.ID)
	user := createUser(t, db, basic.ID, "student")

	media, err := svc.AttachmentPreviewURL(context.Background(), user, attachment.ID)
	require.NoError(t, err)
	assert.Equal(t, int(storage.PreviewURLTTL.Seconds()), media.ExpiresIn)

	var count int64
	require.NoError(t, db.Model(&model.AttachmentDownload{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestFileProductDownloadRequiresPurchase(t *testing.T) {
	db := newTestDB(t)
	free, _, _ := seedTiers(t, db)
	svc := NewMediaService(db, NewEntitlementService(db), newTestSpaces(t))

	product := model.FileProduct{Name: "Pack", PriceCents: 499, FileName: "pack.pdf", FileKey: "files/pack.pdf"}
	require.NoError(t, db.Create(&product).Error)
	user := createUser(t, db, free.ID, "student")

	_, err := svc.FileProductDownloadURL(context.Background(), user, product.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	purchase := model.FilePurchase{
		UserID:                user.ID,
		FileProductID:         product.ID,
		StripePaymentIntentID: "pi_media_test",
		AmountCents:           499,
	}
	require.NoError(t, db.Create(&purchase).Error)

	media, err := svc.FileProductDownloadURL(context.Background(), user, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "pack.pdf", media.FileName)
	assert.True(t, strings.Contains(media.URL, "files/pack.pdf"))
}
