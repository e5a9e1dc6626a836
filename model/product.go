package model

import (
	"time"

	"gorm.io/gorm"
)

// FileProduct is a standalone file sold as a one-time purchase, independent
// of any subscription tier.
type FileProduct struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	PriceCents  int64          `gorm:"not null" json:"price_cents"`
	FileName    string         `gorm:"not null" json:"file_name"`
	FileKey     string         `gorm:"type:varchar(500);not null" json:"-"`
	FileSize    int64          `gorm:"default:0" json:"file_size"`
	Active      bool           `gorm:"default:true" json:"active"`

	// Relationships
	Purchases []FilePurchase `gorm:"foreignKey:FileProductID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for FileProduct
func (FileProduct) TableName() string {
	return "file_products"
}

// Product is a bundle of attachments sold as one unit
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	PriceCents  int64          `gorm:"not null" json:"price_cents"`
	Active      bool           `gorm:"default:true" json:"active"`

	// Relationships
	Attachments []*Attachment     `gorm:"many2many:product_attachments;" json:"attachments,omitempty"`
	Purchases   []ProductPurchase `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}
