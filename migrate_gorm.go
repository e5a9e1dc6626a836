// migrate_gorm.go - Run this file to test GORM migrations
// Usage: go run migrate_gorm.go

//go:build ignore

package main

import (
	"log"

	"github.com/lumeno/academy-api/config"
	"github.com/lumeno/academy-api/database"
)

func main() {
	log.Println("=== GORM Migration Test ===")

	// Load environment variables
	if err := config.LoadENV(); err != nil {
		log.Fatal("Failed to load environment variables:", err)
	}

	// Initialize GORM connection
	store, err := database.StartGORM()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	// Run migrations
	if err := store.Init(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Health check
	if err := store.HealthCheck(); err != nil {
		log.Fatal("Database health check failed:", err)
	}

	log.Println("✅ All migrations completed successfully!")
	log.Println("✅ Database connection healthy!")
	log.Println("\nYou can now check your PostgreSQL database to see the new tables:")
	log.Println("  - tiers")
	log.Println("  - users")
	log.Println("  - subscriptions")
	log.Println("  - courses")
	log.Println("  - course_modules")
	log.Println("  - lessons")
	log.Println("  - attachments")
	log.Println("  - file_products")
	log.Println("  - products")
	log.Println("  - file_purchases")
	log.Println("  - product_purchases")
	log.Println("  - user_progress")
	log.Println("  - attachment_downloads")
	log.Println("  - user_notifications")
	log.Println("  - support_tickets")
	log.Println("  - ticket_messages")
	log.Println("  - pending_uploads")
	log.Println("  - jwt_token_blacklist")
	log.Println("  - cron_job_logs")
	log.Println("  - admin_audit_logs")
	log.Println("  - app_settings")
}
