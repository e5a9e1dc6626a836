package model

import (
	"time"
)

// FilePurchase records ownership of a FileProduct. Rows are immutable: once
// created the user owns the file forever, and only an account deletion
// cascade removes them.
//
// StripePaymentIntentID carries a unique index so a redelivered webhook hits
// a constraint violation instead of inserting a duplicate row.
type FilePurchase struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	CreatedAt             time.Time `json:"created_at"`
	UserID                uint      `gorm:"not null;index" json:"user_id"`
	FileProductID         uint      `gorm:"not null;index" json:"file_product_id"`
	StripePaymentIntentID string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"stripe_payment_intent_id"`
	AmountCents           int64     `gorm:"not null" json:"amount_cents"`

	// Relationships
	User        User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	FileProduct FileProduct `gorm:"foreignKey:FileProductID;constraint:OnDelete:CASCADE" json:"file_product,omitempty"`
}

// TableName specifies the table name for FilePurchase
func (FilePurchase) TableName() string {
	return "file_purchases"
}

// ProductPurchase records ownership of a bundle. Same immutability and
// idempotency rules as FilePurchase.
type ProductPurchase struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	CreatedAt             time.Time `json:"created_at"`
	UserID                uint      `gorm:"not null;index" json:"user_id"`
	ProductID             uint      `gorm:"not null;index" json:"product_id"`
	StripePaymentIntentID string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"stripe_payment_intent_id"`
	AmountCents           int64     `gorm:"not null" json:"amount_cents"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
}

// TableName specifies the table name for ProductPurchase
func (ProductPurchase) TableName() string {
	return "product_purchases"
}
