package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

const testWebhookSecret = "whsec_handler_test"

// signPayload builds a valid Stripe-Signature header for the payload
func signPayload(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newTestApp() *fiber.App {
	handler := NewWebhookHandler(services.NewWebhookService(nil, testWebhookSecret, nil))
	app := fiber.New()
	app.Post("/api/v1/webhooks/stripe", handler.HandleStripeWebhook)
	return app
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("POST", "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStripeWebhookAcksUnhandledEvent(t *testing.T) {
	app := newTestApp()

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_test","api_version":%q,"type":"charge.refunded","data":{"object":{"id":"ch_test"}}}`,
		stripe.APIVersion))
	req := httptest.NewRequest("POST", "/api/v1/webhooks/stripe", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", signPayload(payload))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
