package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered user in the system
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email            string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name             string         `gorm:"not null" json:"name"`
	Role             string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, admin
	TierID           uint           `gorm:"index" json:"tier_id"`
	StripeCustomerID string         `gorm:"type:varchar(100);index" json:"-"`
	TokenVersion     int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Tier             Tier                `gorm:"foreignKey:TierID" json:"tier,omitempty"`
	Subscriptions    []Subscription      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	FilePurchases    []FilePurchase      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ProductPurchases []ProductPurchase   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Progress         []UserProgress      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Notifications    []UserNotification  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Tickets          []SupportTicket     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist   []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
