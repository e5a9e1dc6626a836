package services

import (
	"context"
	"testing"

	"github.com/lumeno/academy-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCourseTierGate(t *testing.T) {
	db := newTestDB(t)
	free, basic, pro := seedTiers(t, db)
	svc := NewEntitlementService(db)
	course, _, _, _ := createCourseTree(t, db, basic.ID)

	t.Run("unauthenticated is rejected", func(t *testing.T) {
		_, err := svc.ResolveCourse(context.Background(), nil, course.ID)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("lower tier is forbidden", func(t *testing.T) {
		user := createUser(t, db, free.ID, "student")
		_, err := svc.ResolveCourse(context.Background(), user, course.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("exact tier is allowed", func(t *testing.T) {
		user := createUser(t, db, basic.ID, "student")
		got, err := svc.ResolveCourse(context.Background(), user, course.ID)
		require.NoError(t, err)
		assert.Equal(t, course.ID, got.ID)
	})

	t.Run("higher tier is allowed", func(t *testing.T) {
		user := createUser(t, db, pro.ID, "student")
		_, err := svc.ResolveCourse(context.Background(), user, course.ID)
		assert.NoError(t, err)
	})

	t.Run("admin bypasses the gate", func(t *testing.T) {
		admin := createUser(t, db, free.ID, "admin")
		_, err := svc.ResolveCourse(context.Background(), admin, course.ID)
		assert.NoError(t, err)
	})

	t.Run("missing course is not found", func(t *testing.T) {
		user := createUser(t, db, pro.ID, "student")
		_, err := svc.ResolveCourse(context.Background(), user, 99999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestResolveCourseUnpublished(t *testing.T) {
	db := newTestDB(t)
	free, _, pro := seedTiers(t, db)
	svc := NewEntitlementService(db)

	draft := model.Course{Title: "Draft", Slug: "draft", MinimumTierID: free.ID, Published: false}
	require.NoError(t, db.Create(&draft).Error)

	// Unpublished reads as not-found for students, even with sufficient tier
	student := createUser(t, db, pro.ID, "student")
	_, err := svc.ResolveCourse(context.Background(), student, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Admins see drafts
	admin := createUser(t, db, free.ID, "admin")
	got, err := svc.ResolveCourse(context.Background(), admin, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
}

func TestResolveLessonInheritsCourseGate(t *testing.T) {
	db := newTestDB(t)
	free, basic, _ := seedTiers(t, db)
	svc := NewEntitlementService(db)
	_, _, lesson, _ := createCourseTree(t, db, basic.ID)

	freeUser := createUser(t, db, free.ID, "student")
	_, err := svc.ResolveLesson(context.Background(), freeUser, lesson.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	basicUser := createUser(t, db, basic.ID, "student")
	got, err := svc.ResolveLesson(context.Background(), basicUser, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, lesson.ID, got.ID)
}

func TestResolveAttachmentBundleUnlock(t *testing.T) {
	db := newTestDB(t)
	free, basic, _ := seedTiers(t, db)
	svc := NewEntitlementService(db)
	_, _, _, attachment := createCourseTree(t, db, basic.ID)

	user := createUser(t, db, free.ID, "student")

	// Below the tier gate and no purchase
	_, err := svc.ResolveAttachment(context.Background(), user, attachment.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// A purchased bundle containing the attachment unlocks it
	product := model.Product{
		Name:        "Bundle",
		PriceCents:  1999,
		Attachments: []*model.Attachment{{ID: attachment.ID}},
	}
	require.NoError(t, db.Create(&product).Error)
	purchase := model.ProductPurchase{
		UserID:                user.ID,
		ProductID:             product.ID,
		StripePaymentIntentID: "pi_bundle_unlock",
		AmountCents:           1999,
	}
	require.NoError(t, db.Create(&purchase).Error)

	got, err := svc.ResolveAttachment(context.Background(), user, attachment.ID)
	require.NoError(t, err)
	assert.Equal(t, attachment.ID, got.ID)
}

func TestResolveFileProductOwnership(t *testing.T) {
	db := newTestDB(t)
	free, _, _ := seedTiers(t, db)
	svc := NewEntitlementService(db)

	product := model.FileProduct{
		Name:       "Exam Pack",
		PriceCents: 499,
		FileName:   "exam.pdf",
		FileKey:    "files/exam.pdf",
	}
	require.NoError(t, db.Create(&product).Error)

	_, err := svc.ResolveFileProduct(context.Background(), nil, product.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	user := createUser(t, db, free.ID, "student")
	_, err = svc.ResolveFileProduct(context.Background(), user, product.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	purchase := model.FilePurchase{
		UserID:                user.ID,
		FileProductID:         product.ID,
		StripePaymentIntentID: "pi_file_owned",
		AmountCents:           499,
	}
	require.NoError(t, db.Create(&purchase).Error)

	got, err := svc.ResolveFileProduct(context.Background(), user, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)

	// Admins resolve without a purchase
	admin := createUser(t, db, free.ID, "admin")
	_, err = svc.ResolveFileProduct(context.Background(), admin, product.ID)
	assert.NoError(t, err)
}
