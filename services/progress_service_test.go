package services

import (
	"context"
	"testing"

	"github.com/lumeno/academy-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestProgressUpsert(t *testing.T) {
	db := newTestDB(t)
	_, basic, _ := seedTiers(t, db)
	entitlement := NewEntitlementService(db)
	svc := NewProgressService(db, entitlement)
	_, _, lesson, _ := createCourseTree(t, db, basic.ID)
	user := createUser(t, db, basic.ID, "student")

	// First snapshot creates the row
	got, err := svc.Upsert(context.Background(), user, UpsertProgressRequest{
		LessonID:    lesson.ID,
		TimeWatched: intPtr(120),
	})
	require.NoError(t, err)
	assert.Equal(t, 120, got.TimeWatchedSeconds)
	assert.False(t, got.Completed)

	// A later snapshot advances watch time
	got, err = svc.Upsert(context.Background(), user, UpsertProgressRequest{
		LessonID:    lesson.ID,
		TimeWatched: intPtr(300),
	})
	require.NoError(t, err)
	assert.Equal(t, 300, got.TimeWatchedSeconds)

	// A stale snapshot from a second tab never rewinds it
	got, err = svc.Upsert(context.Background(), user, UpsertProgressRequest{
		LessonID:    lesson.ID,
		TimeWatched: intPtr(60),
	})
	require.NoError(t, err)
	assert.Equal(t, 300, got.TimeWatchedSeconds)

	// Still exactly one row for (user, lesson)
	var count int64
	require.NoError(t, db.Model(&model.UserProgress{}).
		Where("user_id = ? AND lesson_id = ?", user.ID, lesson.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestProgressCompletionIsSticky(t *testing.T) {
	db := newTestDB(t)
	_, basic, _ := seedTiers(t, db)
	svc := NewProgressService(db, NewEntitlementService(db))
	_, _, lesson, _ := createCourseTree(t, db, basic.ID)
	user := createUser(t, db, basic.ID, "student")

	got, err := svc.Upsert(context.Background(), user, UpsertProgressRequest{
		LessonID:    lesson.ID,
		IsCompleted: boolPtr(true),
	})
	require.NoError(t, err)
	require.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	completedAt := *got.CompletedAt

	// A later snapshot without the flag keeps completion and its timestamp
	got, err = svc.Upsert(context.Background(), user, UpsertProgressRequest{
		LessonID:    lesson.ID,
		TimeWatched: intPtr(10),
	})
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.WithinDuration(t, completedAt, *got.CompletedAt, 0)
}

func TestProgressRequiresEntitlement(t *testing.T) {
	db := newTestDB(t)
	free, basic, _ := seedTiers(t, db)
	svc := NewProgressService(db, NewEntitlementService(db))
	_, _, lesson, _ := createCourseTree(t, db, basic.ID)

	freeUser := createUser(t, db, free.ID, "student")
	_, err := svc.Upsert(context.Background(), freeUser, UpsertProgressRequest{
		LessonID:    lesson.ID,
		TimeWatched: intPtr(5),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Upsert(context.Background(), nil, UpsertProgressRequest{LessonID: lesson.ID})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestProgressGetReturnsNilWhenUnrecorded(t *testing.T) {
	db := newTestDB(t)
	_, basic, _ := seedTiers(t, db)
	svc := NewProgressService(db, NewEntitlementService(db))
	_, _, lesson, _ := createCourseTree(t, db, basic.ID)
	user := createUser(t, db, basic.ID, "student")

	got, err := svc.Get(context.Background(), user, lesson.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCourseProgressCounts(t *testing.T) {
	db := newTestDB(t)
	_, basic, _ := seedTiers(t, db)
	svc := NewProgressService(db, NewEntitlementService(db))
	course, module, lesson, _ := createCourseTree(t, db, basic.ID)
	user := createUser(t, db, basic.ID, "student")

	second := model.Lesson{ModuleID: module.ID, Title: "Lesson 2", Position: 2}
	require.NoError(t, db.Create(&second).Error)

	_, err := svc.Upsert(context.Background(), user, UpsertProgressRequest{
		LessonID:    lesson.ID,
		IsCompleted: boolPtr(true),
	})
	require.NoError(t, err)

	completion, err := svc.CourseProgress(context.Background(), user, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, completion.TotalLessons)
	assert.EqualValues(t, 1, completion.CompletedLessons)
}
