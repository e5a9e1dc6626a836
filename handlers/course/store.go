package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/model"
	"github.com/lumeno/academy-api/utils/middleware"
	"github.com/lumeno/academy-api/utils/response"
	"gorm.io/gorm"
)

// StoreHandler serves the public purchase catalog: tiers, standalone files
// and bundles
type StoreHandler struct {
	db *gorm.DB
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(db *gorm.DB) *StoreHandler {
	return &StoreHandler{db: db}
}

// ListTiers handles GET /api/v1/tiers. Only active tiers are listed.
func (h *StoreHandler) ListTiers(c *fiber.Ctx) error {
	var tiers []model.Tier
	err := h.db.WithContext(c.Context()).
		Where("active = ?", true).
		Order("permission_level ASC").
		Find(&tiers).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch tiers")
	}
	return response.Success(c, tiers)
}

// FileProductListing is a file product plus whether the caller owns it
type FileProductListing struct {
	model.FileProduct
	Purchased bool `json:"purchased"`
}

// ListFileProducts handles GET /api/v1/files
func (h *StoreHandler) ListFileProducts(c *fiber.Ctx) error {
	var products []model.FileProduct
	err := h.db.WithContext(c.Context()).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch file products")
	}

	owned := map[uint]bool{}
	if user, ok := middleware.GetUser(c); ok && user != nil {
		var purchases []model.FilePurchase
		if err := h.db.WithContext(c.Context()).Where("user_id = ?", user.ID).Find(&purchases).Error; err == nil {
			for _, p := range purchases {
				owned[p.FileProductID] = true
			}
		}
	}

	listings := make([]FileProductListing, 0, len(products))
	for _, p := range products {
		listings = append(listings, FileProductListing{FileProduct: p, Purchased: owned[p.ID]})
	}
	return response.Success(c, listings)
}

// ProductListing is a bundle plus whether the caller owns it
type ProductListing struct {
	model.Product
	Purchased bool `json:"purchased"`
}

// ListProducts handles GET /api/v1/products
func (h *StoreHandler) ListProducts(c *fiber.Ctx) error {
	var products []model.Product
	err := h.db.WithContext(c.Context()).
		Preload("Attachments").
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch products")
	}

	owned := map[uint]bool{}
	if user, ok := middleware.GetUser(c); ok && user != nil {
		var purchases []model.ProductPurchase
		if err := h.db.WithContext(c.Context()).Where("user_id = ?", user.ID).Find(&purchases).Error; err == nil {
			for _, p := range purchases {
				owned[p.ProductID] = true
			}
		}
	}

	listings := make([]ProductListing, 0, len(products))
	for _, p := range products {
		listings = append(listings, ProductListing{Product: p, Purchased: owned[p.ID]})
	}
	return response.Success(c, listings)
}

// MyPurchases handles GET /api/v1/purchases. Returns the caller's one-time
// purchases and current subscription, newest first.
func (h *StoreHandler) MyPurchases(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var filePurchases []model.FilePurchase
	if err := h.db.WithContext(c.Context()).
		Preload("FileProduct").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&filePurchases).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch purchases")
	}

	var productPurchases []model.ProductPurchase
	if err := h.db.WithContext(c.Context()).
		Preload("Product").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&productPurchases).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch purchases")
	}

	var subscription *model.Subscription
	var sub model.Subscription
	err := h.db.WithContext(c.Context()).
		Preload("Tier").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		First(&sub).Error
	if err == nil {
		subscription = &sub
	}

	return response.Success(c, fiber.Map{
		"file_purchases":    filePurchases,
		"product_purchases": productPurchases,
		"subscription":      subscription,
	})
}
