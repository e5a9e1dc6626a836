package checkout

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/services"
	"github.com/lumeno/academy-api/utils/middleware"
	"github.com/lumeno/academy-api/utils/response"
)

// CheckoutHandler creates Stripe checkout and billing portal sessions
type CheckoutHandler struct {
	billing   *services.BillingService
	cancelURL string
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(billing *services.BillingService, cancelURL string) *CheckoutHandler {
	return &CheckoutHandler{billing: billing, cancelURL: cancelURL}
}

// CheckoutSubscription handles POST /api/v1/checkout/subscription/:id
func (h *CheckoutHandler) CheckoutSubscription(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	tierID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid tier ID")
	}

	session, err := h.billing.CreateSubscriptionCheckout(c.Context(), user, uint(tierID))
	if err != nil {
		return h.respond(c, err)
	}
	return response.Success(c, session)
}

// CheckoutFileProduct handles POST /api/v1/checkout/files/:id
func (h *CheckoutHandler) CheckoutFileProduct(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	fileProductID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid file product ID")
	}

	session, err := h.billing.CreateFileProductCheckout(c.Context(), user, uint(fileProductID))
	if err != nil {
		return h.respond(c, err)
	}
	return response.Success(c, session)
}

// CheckoutProduct handles POST /api/v1/checkout/products/:id
func (h *CheckoutHandler) CheckoutProduct(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	productID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid product ID")
	}

	session, err := h.billing.CreateProductCheckout(c.Context(), user, uint(productID))
	if err != nil {
		return h.respond(c, err)
	}
	return response.Success(c, session)
}

// RedirectSubscription handles GET /api/v1/checkout/subscription/:id. It sends
// the browser straight to Stripe's hosted page; failures bounce back to the
// cancel URL with an error reason instead of a JSON body.
func (h *CheckoutHandler) RedirectSubscription(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return h.redirectError(c, "unauthenticated")
	}

	tierID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return h.redirectError(c, "invalid_tier")
	}

	session, err := h.billing.CreateSubscriptionCheckout(c.Context(), user, uint(tierID))
	if err != nil {
		log.Printf("Checkout redirect failed for user %d: %v", user.ID, err)
		return h.redirectError(c, redirectReason(err))
	}
	return c.Redirect(session.URL, fiber.StatusFound)
}

// BillingPortal handles POST /api/v1/checkout/portal
func (h *CheckoutHandler) BillingPortal(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	url, err := h.billing.CreatePortalSession(c.Context(), user)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "No billing account found for this user")
		}
		log.Printf("Portal session failed for user %d: %v", user.ID, err)
		return response.InternalServerError(c, "Failed to create billing portal session")
	}
	return response.Success(c, fiber.Map{"url": url})
}

func (h *CheckoutHandler) respond(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, "Resource not found")
	case errors.Is(err, services.ErrNotPurchasable):
		return response.BadRequest(c, "This item is not available for purchase")
	default:
		log.Printf("Checkout failed: %v", err)
		return response.InternalServerError(c, "Failed to create checkout session")
	}
}

func (h *CheckoutHandler) redirectError(c *fiber.Ctx, reason string) error {
	return c.Redirect(h.cancelURL+"?error="+reason, fiber.StatusFound)
}

func redirectReason(err error) string {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return "not_found"
	case errors.Is(err, services.ErrNotPurchasable):
		return "not_purchasable"
	default:
		return "checkout_failed"
	}
}
