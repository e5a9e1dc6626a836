package webhook

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/services"
)

// WebhookHandler receives Stripe webhook deliveries
type WebhookHandler struct {
	webhooks *services.WebhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhooks *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// HandleStripeWebhook handles POST /api/v1/webhooks/stripe. A 400 tells
// Stripe the delivery itself was malformed; a 500 makes Stripe retry, so
// transient database failures must surface as 500 and nothing else.
func (h *WebhookHandler) HandleStripeWebhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")

	err := h.webhooks.HandleEvent(c.Context(), c.Body(), signature)
	if err != nil {
		if errors.Is(err, services.ErrBadSignature) || errors.Is(err, services.ErrBadEventPayload) {
			log.Printf("Rejected stripe webhook: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid webhook"})
		}
		log.Printf("Failed to process stripe webhook: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing failed"})
	}

	return c.JSON(fiber.Map{"received": true})
}
