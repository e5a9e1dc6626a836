package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lumeno/academy-api/model"
)

// SweepLapsedSubscriptions downgrades users whose canceled subscription's
// paid-through period has passed. Stripe normally tells us this via
// customer.subscription.deleted; this sweep catches deliveries we missed.
func (m *CronManager) SweepLapsedSubscriptions() {
	jobName := "sweep_lapsed_subscriptions"

	var freeTier model.Tier
	err := m.db.Where("price_monthly_cents = 0 AND active = ?", true).
		Order("permission_level asc").
		First(&freeTier).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("no free tier to downgrade to: %w", err))
		return
	}

	var lapsed []model.Subscription
	err = m.db.Where("status = ? AND current_period_end < ?",
		model.SubscriptionStatusCanceled,
		time.Now(),
	).Find(&lapsed).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query lapsed subscriptions: %w", err))
		return
	}

	if len(lapsed) == 0 {
		m.logJobComplete(jobName, "No lapsed subscriptions found")
		return
	}

	downgraded := 0
	for _, sub := range lapsed {
		// Only downgrade users still sitting on the tier this subscription
		// granted; a newer subscription may have moved them
		result := m.db.Model(&model.User{}).
			Where("id = ? AND tier_id = ?", sub.UserID, sub.TierID).
			Update("tier_id", freeTier.ID)
		if result.Error != nil {
			log.Printf("[CRON] Failed to downgrade user %d: %v", sub.UserID, result.Error)
			continue
		}
		if result.RowsAffected > 0 {
			downgraded++
		}
	}

	m.logJobComplete(jobName, fmt.Sprintf("Checked %d lapsed subscriptions, downgraded %d users", len(lapsed), downgraded))
}

// CleanupPendingUploads removes upload tracking rows (and orphaned storage
// objects) for uploads that were requested but never completed.
// Runs every 30 minutes; anything older than 24 hours is considered stuck.
func (m *CronManager) CleanupPendingUploads() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "cleanup_pending_uploads"

	removed, err := m.uploads.CleanupStaleUploads(ctx, 24*time.Hour)
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	if removed == 0 {
		m.logJobComplete(jobName, "No stuck uploads found")
		return
	}
	m.logJobComplete(jobName, fmt.Sprintf("Cleaned up %d stuck uploads", removed))
}

// CleanupTokenBlacklist purges blacklist entries whose tokens have expired
// anyway
func (m *CronManager) CleanupTokenBlacklist() {
	jobName := "cleanup_token_blacklist"

	result := m.db.Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		m.logJobError(jobName, result.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Purged %d expired blacklist entries", result.RowsAffected))
}
