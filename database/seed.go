package database

import (
	"fmt"
	"log"
	"os"

	"github.com/lumeno/academy-api/model"
	"github.com/lumeno/academy-api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedTiers(); err != nil {
		return fmt.Errorf("failed to seed tiers: %w", err)
	}

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedTiers creates the default access tiers
func (s *Seeder) SeedTiers() error {
	tiers := []model.Tier{
		{Name: "free", PermissionLevel: 1, PriceMonthlyCents: 0, DownloadLimit: 5, Active: true},
		{Name: "standard", PermissionLevel: 2, PriceMonthlyCents: 1900, DownloadLimit: 50, Active: true},
		{Name: "premium", PermissionLevel: 3, PriceMonthlyCents: 4900, DownloadLimit: 0, Active: true},
	}

	for _, tier := range tiers {
		var existing model.Tier
		err := s.db.Where("name = ?", tier.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := s.db.Create(&tier).Error; err != nil {
			return err
		}
		log.Printf("Seeded tier %q (permission level %d)", tier.Name, tier.PermissionLevel)
	}

	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	// Check if admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	var freeTier model.Tier
	if err := s.db.Where("name = ?", "free").First(&freeTier).Error; err != nil {
		return err
	}

	admin := model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         "Administrator",
		Role:         "admin",
		TierID:       freeTier.ID,
	}

	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded admin user %s", email)
	return nil
}
