package model

import (
	"time"

	"gorm.io/gorm"
)

// Tier represents a subscription access level. Tiers are ordinal: a higher
// PermissionLevel unlocks everything a lower level does.
type Tier struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
	Name              string         `gorm:"uniqueIndex;not null" json:"name"`
	PermissionLevel   int            `gorm:"not null;index" json:"permission_level"`
	PriceMonthlyCents int64          `gorm:"default:0" json:"price_monthly_cents"`
	StripePriceID     string         `gorm:"type:varchar(100)" json:"stripe_price_id"`
	DownloadLimit     int            `gorm:"default:0" json:"download_limit"` // downloads per 30 days, 0 = unlimited
	Active            bool           `gorm:"default:true" json:"active"`

	// Relationships
	Users         []User         `gorm:"foreignKey:TierID" json:"-"`
	Subscriptions []Subscription `gorm:"foreignKey:TierID" json:"-"`
}

// TableName specifies the table name for Tier
func (Tier) TableName() string {
	return "tiers"
}

// IsFree reports whether this tier can be activated without payment
func (t *Tier) IsFree() bool {
	return t.PriceMonthlyCents == 0
}
