package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/lumeno/academy-api/model"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrBadSignature means the webhook payload failed signature
	// verification and must be rejected outright
	ErrBadSignature = errors.New("webhook signature verification failed")

	// ErrBadEventPayload means the event verified but its body could not be
	// interpreted
	ErrBadEventPayload = errors.New("invalid webhook event payload")
)

// checkout metadata keys, mirrored by BillingService when sessions are created
const (
	metaUserID        = "user_id"
	metaTierID        = "tier_id"
	metaFileProductID = "file_product_id"
	metaProductID     = "product_id"
	metaType          = "type"

	purchaseTypeSubscription = "subscription"
	purchaseTypeFileProduct  = "file_product"
	purchaseTypeProduct      = "product"
)

// WebhookService applies Stripe events to local subscription and purchase
// state. Providers redeliver events, so every side effect here must be
// individually idempotent: subscription writes are keyed upserts, purchase
// inserts rely on the unique payment-intent index and treat a constraint
// violation as the no-op signal.
type WebhookService struct {
	db            *gorm.DB
	secret        string
	notifications *NotificationService

	// constructEvent verifies the payload signature. A field so tests can
	// feed events through the dispatch without real Stripe signatures.
	constructEvent func(payload []byte, sigHeader, secret string) (stripe.Event, error)
}

// NewWebhookService creates a new webhook service
func NewWebhookService(db *gorm.DB, webhookSecret string, notifications *NotificationService) *WebhookService {
	return &WebhookService{
		db:             db,
		secret:         webhookSecret,
		notifications:  notifications,
		constructEvent: webhook.ConstructEvent,
	}
}

// HandleEvent verifies and applies a single webhook delivery. Unknown event
// types are acknowledged without side effect.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.constructEvent(payload, signature, s.secret)
	if err != nil {
		return ErrBadSignature
	}

	log.Printf("Stripe webhook received: %s (%s)", event.Type, event.ID)

	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("%w: checkout.session.completed: %v", ErrBadEventPayload, err)
		}
		return s.applyCheckoutCompleted(ctx, &cs)

	case "invoice.payment_succeeded":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return fmt.Errorf("%w: invoice.payment_succeeded: %v", ErrBadEventPayload, err)
		}
		return s.applyInvoiceEvent(ctx, &invoice, model.SubEventPaymentSucceeded)

	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return fmt.Errorf("%w: invoice.payment_failed: %v", ErrBadEventPayload, err)
		}
		return s.applyInvoiceEvent(ctx, &invoice, model.SubEventPaymentFailed)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: customer.subscription.updated: %v", ErrBadEventPayload, err)
		}
		return s.applySubscriptionUpdated(ctx, &sub)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: customer.subscription.deleted: %v", ErrBadEventPayload, err)
		}
		return s.applySubscriptionDeleted(ctx, &sub)

	default:
		// Forward-compatibility over strictness: ack and move on
		log.Printf("Ignoring unhandled webhook event type: %s", event.Type)
		return nil
	}
}

// applyCheckoutCompleted routes a completed checkout session by the type
// metadata the billing service stamped on it
func (s *WebhookService) applyCheckoutCompleted(ctx context.Context, cs *stripe.CheckoutSession) error {
	userID, err := metadataUint(cs.Metadata, metaUserID)
	if err != nil {
		return fmt.Errorf("%w: missing user_id metadata", ErrBadEventPayload)
	}

	switch cs.Metadata[metaType] {
	case purchaseTypeSubscription:
		return s.applySubscriptionCheckout(ctx, cs, userID)
	case purchaseTypeFileProduct:
		fileProductID, err := metadataUint(cs.Metadata, metaFileProductID)
		if err != nil {
			return fmt.Errorf("%w: missing file_product_id metadata", ErrBadEventPayload)
		}
		return s.applyFilePurchase(ctx, cs, userID, fileProductID)
	case purchaseTypeProduct:
		productID, err := metadataUint(cs.Metadata, metaProductID)
		if err != nil {
			return fmt.Errorf("%w: missing product_id metadata", ErrBadEventPayload)
		}
		return s.applyProductPurchase(ctx, cs, userID, productID)
	default:
		log.Printf("Checkout session %s has unknown type metadata %q, ignoring", cs.ID, cs.Metadata[metaType])
		return nil
	}
}

// applySubscriptionCheckout upserts the subscription row keyed by the Stripe
// subscription id and moves the user onto the purchased tier
func (s *WebhookService) applySubscriptionCheckout(ctx context.Context, cs *stripe.CheckoutSession, userID uint) error {
	tierID, err := metadataUint(cs.Metadata, metaTierID)
	if err != nil {
		return fmt.Errorf("%w: missing tier_id metadata", ErrBadEventPayload)
	}
	if cs.Subscription == nil || cs.Subscription.ID == "" {
		return fmt.Errorf("%w: checkout session %s has no subscription", ErrBadEventPayload, cs.ID)
	}

	var tier model.Tier
	if err := s.db.WithContext(ctx).First(&tier, tierID).Error; err != nil {
		return fmt.Errorf("tier %d from checkout metadata not found: %w", tierID, err)
	}

	customerID := ""
	if cs.Customer != nil {
		customerID = cs.Customer.ID
	}

	periodEnd := subscriptionPeriodEnd(cs.Subscription)
	status := model.NextSubscriptionStatus(model.SubscriptionStatusNone, model.SubEventCheckoutCompleted)

	sub := model.Subscription{
		UserID:               userID,
		TierID:               tierID,
		Status:               status,
		StripeSubscriptionID: cs.Subscription.ID,
		StripeCustomerID:     customerID,
		CurrentPeriodEnd:     periodEnd,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_subscription_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":             string(status),
				"tier_id":            tierID,
				"current_period_end": periodEnd,
			}),
		}).Create(&sub).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"tier_id": tierID}
		if customerID != "" {
			updates["stripe_customer_id"] = customerID
		}
		return tx.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
	})
	if err != nil {
		return fmt.Errorf("failed to apply subscription checkout: %w", err)
	}

	s.notify(ctx, userID, model.NotificationTypeSuccess, "Subscription activated",
		fmt.Sprintf("Your %s subscription is now active.", tier.Name),
		&model.NotificationMetadata{TierID: tier.ID, TierName: tier.Name})
	return nil
}

// applyFilePurchase inserts the ownership row for a one-time file purchase.
// The unique index on the payment-intent id makes redelivery a no-op.
func (s *WebhookService) applyFilePurchase(ctx context.Context, cs *stripe.CheckoutSession, userID, fileProductID uint) error {
	intentID := paymentIntentID(cs)
	if intentID == "" {
		return fmt.Errorf("%w: checkout session %s has no payment intent", ErrBadEventPayload, cs.ID)
	}

	purchase := model.FilePurchase{
		UserID:                userID,
		FileProductID:         fileProductID,
		StripePaymentIntentID: intentID,
		AmountCents:           cs.AmountTotal,
	}

	err := s.db.WithContext(ctx).Create(&purchase).Error
	if err != nil {
		if isDuplicateKey(err) {
			log.Printf("File purchase for payment intent %s already recorded, ignoring redelivery", intentID)
			return nil
		}
		return fmt.Errorf("failed to record file purchase: %w", err)
	}

	s.notify(ctx, userID, model.NotificationTypeSuccess, "Purchase complete",
		"Your file is ready to download.",
		&model.NotificationMetadata{PurchaseType: purchaseTypeFileProduct, PurchaseID: fileProductID})
	return nil
}

// applyProductPurchase inserts the ownership row for a bundle purchase
func (s *WebhookService) applyProductPurchase(ctx context.Context, cs *stripe.CheckoutSession, userID, productID uint) error {
	intentID := paymentIntentID(cs)
	if intentID == "" {
		return fmt.Errorf("%w: checkout session %s has no payment intent", ErrBadEventPayload, cs.ID)
	}

	purchase := model.ProductPurchase{
		UserID:                userID,
		ProductID:             productID,
		StripePaymentIntentID: intentID,
		AmountCents:           cs.AmountTotal,
	}

	err := s.db.WithContext(ctx).Create(&purchase).Error
	if err != nil {
		if isDuplicateKey(err) {
			log.Printf("Product purchase for payment intent %s already recorded, ignoring redelivery", intentID)
			return nil
		}
		return fmt.Errorf("failed to record product purchase: %w", err)
	}

	s.notify(ctx, userID, model.NotificationTypeSuccess, "Purchase complete",
		"Your bundle is ready to download.",
		&model.NotificationMetadata{PurchaseType: purchaseTypeProduct, PurchaseID: productID})
	return nil
}

// applyInvoiceEvent moves the subscription between active and past_due as
// payments succeed or fail
func (s *WebhookService) applyInvoiceEvent(ctx context.Context, invoice *stripe.Invoice, event model.SubscriptionEvent) error {
	subID := invoiceSubscriptionID(invoice)
	if subID == "" {
		// One-time invoices carry no subscription; nothing to reconcile
		log.Printf("Invoice %s has no subscription, skipping", invoice.ID)
		return nil
	}

	var sub model.Subscription
	if err := s.db.WithContext(ctx).Where("stripe_subscription_id = ?", subID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The checkout event may not have arrived yet; Stripe will
			// redeliver on our 5xx, so surface the miss
			return fmt.Errorf("subscription %s not found for invoice %s", subID, invoice.ID)
		}
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	next := model.NextSubscriptionStatus(sub.Status, event)
	updates := map[string]interface{}{"status": string(next)}
	if event == model.SubEventPaymentSucceeded && invoice.PeriodEnd > 0 {
		updates["current_period_end"] = time.Unix(invoice.PeriodEnd, 0)
	}

	err := s.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("stripe_subscription_id = ?", subID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update subscription from invoice: %w", err)
	}

	if next == model.SubscriptionStatusPastDue && sub.Status != model.SubscriptionStatusPastDue {
		s.notify(ctx, sub.UserID, model.NotificationTypeWarning, "Payment failed",
			"Your latest subscription payment failed. Please update your payment method.", nil)
	}
	return nil
}

// applySubscriptionUpdated syncs status, period end, and the
// cancel-at-period-end flag from the provider's view
func (s *WebhookService) applySubscriptionUpdated(ctx context.Context, stripeSub *stripe.Subscription) error {
	var sub model.Subscription
	if err := s.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeSub.ID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Subscription %s not known locally, ignoring update", stripeSub.ID)
			return nil
		}
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	next := model.NextSubscriptionStatus(sub.Status, normalizeStripeStatus(stripeSub.Status))
	updates := map[string]interface{}{
		"status":               string(next),
		"cancel_at_period_end": stripeSub.CancelAtPeriodEnd,
	}
	if end := subscriptionPeriodEnd(stripeSub); !end.IsZero() {
		updates["current_period_end"] = end
	}

	err := s.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSub.ID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

// applySubscriptionDeleted marks the subscription canceled and drops the
// user back to the free tier. Stripe sends this when the billing period has
// actually lapsed, so access ends here and not at cancelation time.
func (s *WebhookService) applySubscriptionDeleted(ctx context.Context, stripeSub *stripe.Subscription) error {
	var sub model.Subscription
	if err := s.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeSub.ID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Subscription %s not known locally, ignoring deletion", stripeSub.ID)
			return nil
		}
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	var freeTier model.Tier
	if err := s.db.WithContext(ctx).
		Where("price_monthly_cents = 0 AND active = ?", true).
		Order("permission_level asc").
		First(&freeTier).Error; err != nil {
		return fmt.Errorf("no free tier to downgrade to: %w", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next := model.NextSubscriptionStatus(sub.Status, model.SubEventProviderCanceled)
		if err := tx.Model(&model.Subscription{}).
			Where("stripe_subscription_id = ?", stripeSub.ID).
			Update("status", string(next)).Error; err != nil {
			return err
		}

		// Only downgrade if the user is still on the tier this subscription
		// granted; a newer subscription may have moved them already
		return tx.Model(&model.User{}).
			Where("id = ? AND tier_id = ?", sub.UserID, sub.TierID).
			Update("tier_id", freeTier.ID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to apply subscription deletion: %w", err)
	}

	s.notify(ctx, sub.UserID, model.NotificationTypeInfo, "Subscription ended",
		"Your subscription has ended. You are now on the free tier.", nil)
	return nil
}

// notify best-effort creates a billing notification; reconciliation never
// fails because a notification could not be written
func (s *WebhookService) notify(ctx context.Context, userID uint, typ model.NotificationType, title, message string, meta *model.NotificationMetadata) {
	if s.notifications == nil {
		return
	}
	_, err := s.notifications.CreateNotification(ctx, CreateNotificationRequest{
		UserID:   userID,
		Type:     typ,
		Category: model.NotificationCategoryBilling,
		Title:    title,
		Message:  message,
		Metadata: meta,
	})
	if err != nil {
		log.Printf("Failed to create billing notification for user %d: %v", userID, err)
	}
}

// normalizeStripeStatus maps Stripe's subscription status vocabulary onto
// our transition events
func normalizeStripeStatus(status stripe.SubscriptionStatus) model.SubscriptionEvent {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return model.SubEventPaymentSucceeded
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return model.SubEventPaymentFailed
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return model.SubEventProviderCanceled
	default:
		return model.SubEventPaymentSucceeded
	}
}

// subscriptionPeriodEnd pulls the current period end off the first
// subscription item
func subscriptionPeriodEnd(sub *stripe.Subscription) time.Time {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return time.Time{}
	}
	end := sub.Items.Data[0].CurrentPeriodEnd
	if end == 0 {
		return time.Time{}
	}
	return time.Unix(end, 0)
}

// invoiceSubscriptionID finds the subscription an invoice belongs to from
// its line items
func invoiceSubscriptionID(invoice *stripe.Invoice) string {
	if invoice.Lines == nil {
		return ""
	}
	for _, line := range invoice.Lines.Data {
		if line.Subscription != nil && line.Subscription.ID != "" {
			return line.Subscription.ID
		}
	}
	return ""
}

// paymentIntentID extracts the payment intent id from a checkout session
func paymentIntentID(cs *stripe.CheckoutSession) string {
	if cs.PaymentIntent == nil {
		return ""
	}
	return cs.PaymentIntent.ID
}

// metadataUint parses a numeric id out of checkout metadata
func metadataUint(metadata map[string]string, key string) (uint, error) {
	raw, ok := metadata[key]
	if !ok || raw == "" {
		return 0, fmt.Errorf("metadata key %q missing", key)
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("metadata key %q is not numeric: %w", key, err)
	}
	return uint(id), nil
}

// isDuplicateKey reports whether an insert failed on a uniqueness
// constraint. With TranslateError enabled GORM surfaces
// gorm.ErrDuplicatedKey for both postgres and sqlite.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
