package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/database"
	"github.com/lumeno/academy-api/model"
	"github.com/lumeno/academy-api/utils/response"
	"gorm.io/gorm"
)

// CreateTierRequest represents the request body for creating a tier
type CreateTierRequest struct {
	Name              string `json:"name" validate:"required"`
	PermissionLevel   int    `json:"permission_level" validate:"required,min=1"`
	PriceMonthlyCents int64  `json:"price_monthly_cents"`
	StripePriceID     string `json:"stripe_price_id"`
	DownloadLimit     int    `json:"download_limit"`
}

// UpdateTierRequest represents the request body for updating a tier
type UpdateTierRequest struct {
	Name              string  `json:"name"`
	PermissionLevel   *int    `json:"permission_level"`
	PriceMonthlyCents *int64  `json:"price_monthly_cents"`
	StripePriceID     *string `json:"stripe_price_id"`
	DownloadLimit     *int    `json:"download_limit"`
	Active            *bool   `json:"active"`
}

// ListTiers retrieves all tiers, active or not
// GET /admin/tiers
func ListTiers(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var tiers []model.Tier
	if err := db.Order("permission_level ASC").Find(&tiers).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch tiers")
	}

	return response.SuccessWithMessage(c, "Tiers retrieved successfully", tiers)
}

// CreateTier creates a new subscription tier
// POST /admin/tiers
func CreateTier(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var req CreateTierRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" || req.PermissionLevel < 1 {
		return response.BadRequest(c, "name and a positive permission_level are required")
	}
	if req.PriceMonthlyCents > 0 && req.StripePriceID == "" {
		return response.BadRequest(c, "A paid tier requires a stripe_price_id")
	}

	tier := model.Tier{
		Name:              req.Name,
		PermissionLevel:   req.PermissionLevel,
		PriceMonthlyCents: req.PriceMonthlyCents,
		StripePriceID:     req.StripePriceID,
		DownloadLimit:     req.DownloadLimit,
		Active:            true,
	}
	if err := db.Create(&tier).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return response.Conflict(c, "A tier with this name already exists")
		}
		return response.InternalServerError(c, "Failed to create tier")
	}

	return response.Created(c, tier)
}

// UpdateTier updates a subscription tier
// PUT /admin/tiers/:id
func UpdateTier(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	tierID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid tier ID")
	}

	var req UpdateTierRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var tier model.Tier
	if err := db.First(&tier, tierID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Tier not found")
		}
		return response.InternalServerError(c, "Failed to fetch tier")
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.PermissionLevel != nil && *req.PermissionLevel > 0 {
		updates["permission_level"] = *req.PermissionLevel
	}
	if req.PriceMonthlyCents != nil {
		updates["price_monthly_cents"] = *req.PriceMonthlyCents
	}
	if req.StripePriceID != nil {
		updates["stripe_price_id"] = *req.StripePriceID
	}
	if req.DownloadLimit != nil {
		updates["download_limit"] = *req.DownloadLimit
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&tier).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update tier")
		}
	}

	db.First(&tier, tierID)
	return response.SuccessWithMessage(c, "Tier updated successfully", tier)
}

// CreateFileProductRequest represents the request body for creating a file product
type CreateFileProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" validate:"required,min=1"`
}

// CreateFileProduct creates a standalone purchasable file. The file itself is
// attached afterwards through the upload flow.
// POST /admin/file-products
func CreateFileProduct(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var req CreateFileProductRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" || req.PriceCents < 1 {
		return response.BadRequest(c, "name and a positive price_cents are required")
	}

	product := model.FileProduct{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Active:      true,
	}
	if err := db.Create(&product).Error; err != nil {
		return response.InternalServerError(c, "Failed to create file product")
	}

	return response.Created(c, product)
}

// UpdateFileProductRequest represents the request body for updating a file product
type UpdateFileProductRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	Active      *bool   `json:"active"`
}

// UpdateFileProduct updates a file product
// PUT /admin/file-products/:id
func UpdateFileProduct(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	productID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid file product ID")
	}

	var req UpdateFileProductRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var product model.FileProduct
	if err := db.First(&product, productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "File product not found")
		}
		return response.InternalServerError(c, "Failed to fetch file product")
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PriceCents != nil && *req.PriceCents > 0 {
		updates["price_cents"] = *req.PriceCents
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&product).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update file product")
		}
	}

	db.First(&product, productID)
	return response.SuccessWithMessage(c, "File product updated successfully", product)
}

// CreateProductRequest represents the request body for creating a bundle
type CreateProductRequest struct {
	Name          string `json:"name" validate:"required"`
	Description   string `json:"description"`
	PriceCents    int64  `json:"price_cents" validate:"required,min=1"`
	AttachmentIDs []uint `json:"attachment_ids"`
}

// CreateProduct creates an attachment bundle
// POST /admin/products
func CreateProduct(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var req CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" || req.PriceCents < 1 {
		return response.BadRequest(c, "name and a positive price_cents are required")
	}

	var attachments []*model.Attachment
	if len(req.AttachmentIDs) > 0 {
		if err := db.Find(&attachments, req.AttachmentIDs).Error; err != nil {
			return response.InternalServerError(c, "Failed to fetch attachments")
		}
		if len(attachments) != len(req.AttachmentIDs) {
			return response.BadRequest(c, "One or more attachments not found")
		}
	}

	product := model.Product{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Active:      true,
		Attachments: attachments,
	}
	if err := db.Create(&product).Error; err != nil {
		return response.InternalServerError(c, "Failed to create product")
	}

	return response.Created(c, product)
}

// UpdateProductRequest represents the request body for updating a bundle
type UpdateProductRequest struct {
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	PriceCents    *int64  `json:"price_cents"`
	Active        *bool   `json:"active"`
	AttachmentIDs *[]uint `json:"attachment_ids"`
}

// UpdateProduct updates a bundle, optionally replacing its attachment set
// PUT /admin/products/:id
func UpdateProduct(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	productID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid product ID")
	}

	var req UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var product model.Product
	if err := db.First(&product, productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Product not found")
		}
		return response.InternalServerError(c, "Failed to fetch product")
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PriceCents != nil && *req.PriceCents > 0 {
		updates["price_cents"] = *req.PriceCents
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&product).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update product")
		}
	}

	// Replace the attachment set when one is provided
	if req.AttachmentIDs != nil {
		var attachments []*model.Attachment
		if len(*req.AttachmentIDs) > 0 {
			if err := db.Find(&attachments, *req.AttachmentIDs).Error; err != nil {
				return response.InternalServerError(c, "Failed to fetch attachments")
			}
			if len(attachments) != len(*req.AttachmentIDs) {
				return response.BadRequest(c, "One or more attachments not found")
			}
		}
		if err := db.Model(&product).Association("Attachments").Replace(attachments); err != nil {
			return response.InternalServerError(c, "Failed to update product attachments")
		}
	}

	db.Preload("Attachments").First(&product, productID)
	return response.SuccessWithMessage(c, "Product updated successfully", product)
}
