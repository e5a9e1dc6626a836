package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/lumeno/academy-api/model"
	"github.com/stripe/stripe-go/v82"
	billingsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	"gorm.io/gorm"
)

// ErrNotPurchasable is returned when a checkout is requested for an
// inactive resource or a tier without a Stripe price
var ErrNotPurchasable = errors.New("resource is not purchasable")

// CheckoutSession is what the client needs to reach Stripe's hosted page
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// BillingService creates Stripe checkout and portal sessions. Webhook
// delivery, not the redirect back from checkout, is what actually grants
// entitlements; this service only stamps enough metadata on the session for
// the reconciler to act on later.
type BillingService struct {
	db         *gorm.DB
	successURL string
	cancelURL  string
}

// NewBillingService initializes the Stripe key and returns the service
func NewBillingService(db *gorm.DB, secretKey, successURL, cancelURL string) *BillingService {
	stripe.Key = secretKey
	return &BillingService{db: db, successURL: successURL, cancelURL: cancelURL}
}

// GetOrCreateCustomer ensures a Stripe customer exists for the user
func (s *BillingService) GetOrCreateCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email:    stripe.String(user.Email),
		Name:     stripe.String(user.Name),
		Metadata: map[string]string{metaUserID: strconv.FormatUint(uint64(user.ID), 10)},
	}
	cust, err := customerpkg.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("stripe_customer_id", cust.ID).Error
	if err != nil {
		return "", fmt.Errorf("failed to store stripe customer id: %w", err)
	}

	user.StripeCustomerID = cust.ID
	return cust.ID, nil
}

// CreateSubscriptionCheckout starts a subscription checkout for a paid tier.
// Free tiers are activated directly without touching Stripe.
func (s *BillingService) CreateSubscriptionCheckout(ctx context.Context, user *model.User, tierID uint) (*CheckoutSession, error) {
	var tier model.Tier
	if err := s.db.WithContext(ctx).First(&tier, tierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load tier: %w", err)
	}
	if !tier.Active {
		return nil, ErrNotPurchasable
	}

	if tier.IsFree() {
		err := s.db.WithContext(ctx).
			Model(&model.User{}).
			Where("id = ?", user.ID).
			Update("tier_id", tier.ID).Error
		if err != nil {
			return nil, fmt.Errorf("failed to activate free tier: %w", err)
		}
		log.Printf("User %d activated free tier %q", user.ID, tier.Name)
		return &CheckoutSession{URL: s.successURL}, nil
	}

	if tier.StripePriceID == "" {
		return nil, ErrNotPurchasable
	}

	customerID, err := s.GetOrCreateCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(tier.StripePriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		Metadata: map[string]string{
			metaUserID: strconv.FormatUint(uint64(user.ID), 10),
			metaTierID: strconv.FormatUint(uint64(tier.ID), 10),
			metaType:   purchaseTypeSubscription,
		},
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

// CreateFileProductCheckout starts a one-time payment checkout for a file
// product
func (s *BillingService) CreateFileProductCheckout(ctx context.Context, user *model.User, fileProductID uint) (*CheckoutSession, error) {
	var product model.FileProduct
	if err := s.db.WithContext(ctx).First(&product, fileProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load file product: %w", err)
	}
	if !product.Active {
		return nil, ErrNotPurchasable
	}

	metadata := map[string]string{
		metaUserID:        strconv.FormatUint(uint64(user.ID), 10),
		metaFileProductID: strconv.FormatUint(uint64(product.ID), 10),
		metaType:          purchaseTypeFileProduct,
	}
	return s.createPaymentCheckout(ctx, user, product.Name, product.PriceCents, metadata)
}

// CreateProductCheckout starts a one-time payment checkout for a bundle
func (s *BillingService) CreateProductCheckout(ctx context.Context, user *model.User, productID uint) (*CheckoutSession, error) {
	var product model.Product
	if err := s.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.Active {
		return nil, ErrNotPurchasable
	}

	metadata := map[string]string{
		metaUserID:    strconv.FormatUint(uint64(user.ID), 10),
		metaProductID: strconv.FormatUint(uint64(product.ID), 10),
		metaType:      purchaseTypeProduct,
	}
	return s.createPaymentCheckout(ctx, user, product.Name, product.PriceCents, metadata)
}

// createPaymentCheckout builds a payment-mode session with ad hoc price data
func (s *BillingService) createPaymentCheckout(ctx context.Context, user *model.User, name string, priceCents int64, metadata map[string]string) (*CheckoutSession, error) {
	customerID, err := s.GetOrCreateCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(priceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		Metadata:   metadata,
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

// CreatePortalSession creates a Stripe customer portal session for managing
// an existing subscription
func (s *BillingService) CreatePortalSession(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID == "" {
		return "", ErrNotFound
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(user.StripeCustomerID),
		ReturnURL: stripe.String(s.successURL),
	}
	sess, err := billingsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create billing portal session: %w", err)
	}
	return sess.URL, nil
}
