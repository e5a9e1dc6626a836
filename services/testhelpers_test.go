package services

import (
	"fmt"
	"testing"

	"github.com/lumeno/academy-api/database"
	"github.com/lumeno/academy-api/model"
	"github.com/lumeno/academy-api/services/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	return db
}

// newTestSpaces builds a Spaces client with static dummy credentials.
// Presigning is a local computation, so no network is involved.
func newTestSpaces(t *testing.T) *storage.SpacesClient {
	t.Helper()

	client, err := storage.NewSpacesClient(storage.SpacesConfig{
		AccessKey: "test-access-key",
		SecretKey: "test-secret-key",
		Bucket:    "test-bucket",
		Region:    "sfo3",
		Endpoint:  "https://sfo3.digitaloceanspaces.com",
	})
	require.NoError(t, err)
	return client
}

// seedTiers creates the standard free/basic/pro ladder
func seedTiers(t *testing.T, db *gorm.DB) (free, basic, pro model.Tier) {
	t.Helper()

	free = model.Tier{Name: "Free", PermissionLevel: 0, PriceMonthlyCents: 0, Active: true}
	basic = model.Tier{Name: "Basic", PermissionLevel: 1, PriceMonthlyCents: 999, StripePriceID: "price_basic", Active: true}
	pro = model.Tier{Name: "Pro", PermissionLevel: 2, PriceMonthlyCents: 2999, StripePriceID: "price_pro", Active: true}

	require.NoError(t, db.Create(&free).Error)
	require.NoError(t, db.Create(&basic).Error)
	require.NoError(t, db.Create(&pro).Error)
	return free, basic, pro
}

var testUserSeq int

// createUser inserts a user on the given tier
func createUser(t *testing.T, db *gorm.DB, tierID uint, role string) *model.User {
	t.Helper()

	testUserSeq++
	user := model.User{
		Email:        fmt.Sprintf("user%d@example.com", testUserSeq),
		PasswordHash: "x",
		Name:         fmt.Sprintf("User %d", testUserSeq),
		Role:         role,
		TierID:       tierID,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// createCourseTree inserts a published course with one module, one lesson
// and one attachment, all gated on the given tier
func createCourseTree(t *testing.T, db *gorm.DB, tierID uint) (model.Course, model.CourseModule, model.Lesson, model.Attachment) {
	t.Helper()

	course := model.Course{
		Title:         "Test Course",
		Slug:          fmt.Sprintf("test-course-%d", tierID),
		MinimumTierID: tierID,
		Published:     true,
	}
	require.NoError(t, db.Create(&course).Error)

	module := model.CourseModule{CourseID: course.ID, Title: "Module 1", Position: 1}
	require.NoError(t, db.Create(&module).Error)

	lesson := model.Lesson{ModuleID: module.ID, Title: "Lesson 1", VideoKey: "videos/lesson1.mp4", Position: 1}
	require.NoError(t, db.Create(&lesson).Error)

	attachment := model.Attachment{
		LessonID:      lesson.ID,
		FileName:      "notes.pdf",
		FileKey:       "attachments/notes.pdf",
		MinimumTierID: tierID,
	}
	require.NoError(t, db.Create(&attachment).Error)

	return course, module, lesson, attachment
}
