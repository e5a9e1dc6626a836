package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/database"
	"github.com/lumeno/academy-api/model"
	"github.com/lumeno/academy-api/utils/response"
	"gorm.io/gorm"
)

// GetOverviewAnalytics retrieves system-wide overview statistics
// GET /admin/analytics/overview
func GetOverviewAnalytics(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var stats struct {
		TotalUsers          int64
		TotalCourses        int64
		PublishedCourses    int64
		TotalLessons        int64
		ActiveSubscriptions int64
		PastDueSubs         int64
		OpenTickets         int64
		SignupsToday        int64
		SignupsThisWeek     int64
	}

	// Fetch all counts
	db.Model(&model.User{}).Count(&stats.TotalUsers)
	db.Model(&model.Course{}).Count(&stats.TotalCourses)
	db.Model(&model.Course{}).Where("published = ?", true).Count(&stats.PublishedCourses)
	db.Model(&model.Lesson{}).Count(&stats.TotalLessons)
	db.Model(&model.Subscription{}).Where("status = ?", model.SubscriptionStatusActive).Count(&stats.ActiveSubscriptions)
	db.Model(&model.Subscription{}).Where("status = ?", model.SubscriptionStatusPastDue).Count(&stats.PastDueSubs)
	db.Model(&model.SupportTicket{}).Where("status = ?", model.TicketStatusOpen).Count(&stats.OpenTickets)

	// Signups
	db.Model(&model.User{}).
		Where("created_at >= ?", time.Now().Add(-24*time.Hour)).
		Count(&stats.SignupsToday)
	db.Model(&model.User{}).
		Where("created_at >= ?", time.Now().Add(-7*24*time.Hour)).
		Count(&stats.SignupsThisWeek)

	return response.SuccessWithMessage(c, "Overview analytics retrieved successfully", stats)
}

// GetRevenueAnalytics retrieves purchase and subscription revenue analytics
// GET /admin/analytics/revenue
func GetRevenueAnalytics(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var analytics struct {
		TotalFilePurchases    int64
		TotalProductPurchases int64
		FileRevenueCents      int64
		ProductRevenueCents   int64
		SubscribersByTier     []struct {
			TierID      uint
			TierName    string
			Subscribers int64
		}
		PurchasesByDay []struct {
			Date         string
			Purchases    int64
			RevenueCents int64
		}
	}

	// One-time purchase totals
	db.Model(&model.FilePurchase{}).Count(&analytics.TotalFilePurchases)
	db.Model(&model.ProductPurchase{}).Count(&analytics.TotalProductPurchases)
	db.Model(&model.FilePurchase{}).Select("COALESCE(SUM(amount_cents), 0)").Scan(&analytics.FileRevenueCents)
	db.Model(&model.ProductPurchase{}).Select("COALESCE(SUM(amount_cents), 0)").Scan(&analytics.ProductRevenueCents)

	// Active subscribers grouped by tier
	db.Raw(`
		SELECT t.id as tier_id, t.name as tier_name, COUNT(s.id) as subscribers
		FROM tiers t
		LEFT JOIN subscriptions s ON s.tier_id = t.id AND s.status = 'active'
		GROUP BY t.id, t.name
		ORDER BY t.permission_level ASC
	`).Scan(&analytics.SubscribersByTier)

	// One-time purchases by day (last 30 days, files and bundles combined)
	db.Raw(`
		SELECT DATE(created_at) as date, COUNT(*) as purchases, COALESCE(SUM(amount_cents), 0) as revenue_cents
		FROM (
			SELECT created_at, amount_cents FROM file_purchases
			UNION ALL
			SELECT created_at, amount_cents FROM product_purchases
		) p
		WHERE created_at >= NOW() - INTERVAL '30 days'
		GROUP BY DATE(created_at)
		ORDER BY date ASC
	`).Scan(&analytics.PurchasesByDay)

	return response.SuccessWithMessage(c, "Revenue analytics retrieved successfully", analytics)
}

// GetContentAnalytics retrieves course engagement analytics
// GET /admin/analytics/content
func GetContentAnalytics(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var analytics struct {
		TotalWatchedSeconds int64
		CompletedLessons    int64
		TopCourses          []struct {
			CourseID    uint
			CourseTitle string
			Viewers     int64
			Completed   int64
		}
		TopDownloads []struct {
			AttachmentID uint
			FileName     string
			Downloads    int64
		}
	}

	// Aggregate progress
	db.Model(&model.UserProgress{}).Select("COALESCE(SUM(time_watched_seconds), 0)").Scan(&analytics.TotalWatchedSeconds)
	db.Model(&model.UserProgress{}).Where("completed = ?", true).Count(&analytics.CompletedLessons)

	// Courses by distinct viewers and completions
	db.Raw(`
		SELECT co.id as course_id, co.title as course_title,
			   COUNT(DISTINCT up.user_id) as viewers,
			   COUNT(DISTINCT up.user_id) FILTER (WHERE up.completed) as completed
		FROM courses co
		JOIN course_modules cm ON cm.course_id = co.id
		JOIN lessons l ON l.module_id = cm.id
		LEFT JOIN user_progress up ON up.lesson_id = l.id
		WHERE co.deleted_at IS NULL
		GROUP BY co.id, co.name
		ORDER BY viewers DESC
		LIMIT 10
	`).Scan(&analytics.TopCourses)

	// Most downloaded attachments (last 30 days)
	db.Raw(`
		SELECT a.id as attachment_id, a.file_name, COALESCE(SUM(ad.count), 0) as downloads
		FROM attachments a
		JOIN attachment_downloads ad ON ad.attachment_id = a.id
		WHERE ad.downloaded_at >= NOW() - INTERVAL '30 days'
		GROUP BY a.id, a.file_name
		ORDER BY downloads DESC
		LIMIT 10
	`).Scan(&analytics.TopDownloads)

	return response.SuccessWithMessage(c, "Content analytics retrieved successfully", analytics)
}

// GetSupportAnalytics retrieves support ticket analytics
// GET /admin/analytics/support
func GetSupportAnalytics(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var analytics struct {
		TotalTickets    int64
		TicketsByStatus []struct {
			Status string
			Count  int64
		}
		TicketsThisWeek int64
		TicketsByDay    []struct {
			Date  string
			Count int64
		}
	}

	db.Model(&model.SupportTicket{}).Count(&analytics.TotalTickets)

	db.Model(&model.SupportTicket{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&analytics.TicketsByStatus)

	db.Model(&model.SupportTicket{}).
		Where("created_at >= ?", time.Now().Add(-7*24*time.Hour)).
		Count(&analytics.TicketsThisWeek)

	// Tickets opened by day (last 30 days)
	db.Raw(`
		SELECT DATE(created_at) as date, COUNT(*) as count
		FROM support_tickets
		WHERE created_at >= NOW() - INTERVAL '30 days'
		AND deleted_at IS NULL
		GROUP BY DATE(created_at)
		ORDER BY date ASC
	`).Scan(&analytics.TicketsByDay)

	return response.SuccessWithMessage(c, "Support analytics retrieved successfully", analytics)
}
