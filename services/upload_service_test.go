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

func TestRequestUpload(t *testing.T) {
	db := newTestDB(t)
	free, _, _ := seedTiers(t, db)
	admin := createUser(t, db, free.ID, "admin")
	svc := NewUploadService(db, newTestSpaces(t))

	result, err := svc.RequestUpload(context.Background(), admin, model.UploadTypeVideo, "intro.mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Key, "videos/"))
	assert.True(t, strings.Contains(result.URL, "X-Amz-Signature"))
	assert.Equal(t, int(storage.UploadURLTTL.Seconds()), result.ExpiresIn)

	// The key is tracked until completion
	var pending model.PendingUpload
	require.NoError(t, db.Where("key = ?", result.Key).First(&pending).Error)
	assert.Equal(t, model.UploadTypeVideo, pending.UploadType)
	assert.Equal(t, admin.ID, pending.UploaderID)
	assert.False(t, pending.Completed)
}

func TestRequestUploadExtensionAllowList(t *testing.T) {
	db := newTestDB(t)
	free, _, _ := seedTiers(t, db)
	admin := createUser(t, db, free.ID, "admin")
	svc := NewUploadService(db, newTestSpaces(t))

	cases := []struct {
		uploadType model.UploadType
		fileName   string
		ok         bool
	}{
		{model.UploadTypeVideo, "lecture.webm", true},
		{model.UploadTypeVideo, "lecture.pdf", false},
		{model.UploadTypeAttachment, "slides.pptx", true},
		{model.UploadTypeAttachment, "slides.exe", false},
		{model.UploadTypeThumbnail, "cover.JPG", true},
		{model.UploadTypeThumbnail, "cover.mp4", false},
	}

	for _, tc := range cases {
		_, err := svc.RequestUpload(context.Background(), admin, tc.uploadType, tc.fileName)
		if tc.ok {
			assert.NoError(t, err, "%s %s", tc.uploadType, tc.fileName)
		} else {
			assert.ErrorIs(t, err, ErrExtensionNotAllowed, "%s %s", tc.uploadType, tc.fileName)
		}
	}
}

func TestRequestUploadUnknownType(t *testing.T) {
	db := newTestDB(t)
	free, _, _ := seedTiers(t, db)
	admin := createUser(t, db, free.ID, "admin")
	svc := NewUploadService(db, newTestSpaces(t))

	_, err := svc.RequestUpload(context.Background(), admin, model.UploadType("archive"), "data.zip")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrExtensionNotAllowed)
}

func TestCompleteUploadUnknownKey(t *testing.T) {
	db := newTestDB(t)
	svc := NewUploadService(db, newTestSpaces(t))

	err := svc.CompleteUpload(context.Background(), CompleteUploadRequest{
		Key:    "videos/never_requested.mp4",
		Target: "lesson_video",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
