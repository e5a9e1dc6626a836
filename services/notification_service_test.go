package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/lumeno/academy-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationReadTracking(t *testing.T) {
	db := newTestDB(t)
	free, _, _ := seedTiers(t, db)
	user := createUser(t, db, free.ID, "student")
	other := createUser(t, db, free.ID, "student")
	svc := NewNotificationService(db)

	first, err := svc.CreateNotification(context.Background(), CreateNotificationRequest{
		UserID:   user.ID,
		Type:     model.NotificationTypeSuccess,
		Category: model.NotificationCategoryBilling,
		Title:    "Subscription activated",
		Message:  "Your Basic subscription is now active.",
		Metadata: &model.NotificationMetadata{TierID: 2, TierName: "Basic"},
	})
	require.NoError(t, err)

	_, err = svc.CreateNotification(context.Background(), CreateNotificationRequest{
		UserID:   user.ID,
		Type:     model.NotificationTypeInfo,
		Category: model.NotificationCategorySupport,
		Title:    "Support replied to your ticket",
		Message:  "There is a new reply.",
	})
	require.NoError(t, err)

	count, err := svc.GetUnreadCount(context.Background(), user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Metadata round-trips through the JSON column
	var stored model.UserNotification
	require.NoError(t, db.First(&stored, first.ID).Error)
	var meta model.NotificationMetadata
	require.NoError(t, json.Unmarshal(stored.Metadata, &meta))
	assert.Equal(t, "Basic", meta.TierName)

	require.NoError(t, svc.MarkAsRead(context.Background(), first.ID, user.ID))
	count, err = svc.GetUnreadCount(context.Background(), user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// One user cannot touch another's notifications
	assert.Error(t, svc.MarkAsRead(context.Background(), first.ID, other.ID))
	assert.Error(t, svc.DeleteNotification(context.Background(), first.ID, other.ID))

	affected, err := svc.MarkAllAsRead(context.Background(), user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
}

func TestNotificationListFilters(t *testing.T) {
	db := newTestDB(t)
	free, _, _ := seedTiers(t, db)
	user := createUser(t, db, free.ID, "student")
	svc := NewNotificationService(db)

	for _, category := range []model.NotificationCategory{
		model.NotificationCategoryBilling,
		model.NotificationCategorySupport,
		model.NotificationCategoryBilling,
	} {
		_, err := svc.CreateNotification(context.Background(), CreateNotificationRequest{
			UserID:   user.ID,
			Type:     model.NotificationTypeInfo,
			Category: category,
			Title:    "t",
			Message:  "m",
		})
		require.NoError(t, err)
	}

	billing, total, err := svc.GetNotificationsByUser(context.Background(), ListNotificationsOptions{
		UserID:   user.ID,
		Category: string(model.NotificationCategoryBilling),
		Limit:    10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, billing, 2)

	removed, err := svc.DeleteAllNotifications(context.Background(), user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)
}
