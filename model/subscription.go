package model

import (
	"time"

	"gorm.io/gorm"
)

// SubscriptionStatus is the local view of a Stripe subscription's lifecycle
type SubscriptionStatus string

const (
	SubscriptionStatusNone     SubscriptionStatus = ""
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// SubscriptionEvent is a normalized payment-provider event that can move a
// subscription between statuses
type SubscriptionEvent string

const (
	SubEventCheckoutCompleted SubscriptionEvent = "checkout_completed"
	SubEventPaymentSucceeded  SubscriptionEvent = "payment_succeeded"
	SubEventPaymentFailed     SubscriptionEvent = "payment_failed"
	SubEventProviderCanceled  SubscriptionEvent = "provider_canceled"
)

// NextSubscriptionStatus is the single transition function for subscription
// state. Webhook handlers normalize provider events into SubscriptionEvents
// and apply this, so the status lifecycle lives in one place.
//
// Canceled is terminal: a returning customer gets a fresh subscription row
// through checkout rather than a resurrected one.
func NextSubscriptionStatus(current SubscriptionStatus, event SubscriptionEvent) SubscriptionStatus {
	if current == SubscriptionStatusCanceled {
		return SubscriptionStatusCanceled
	}

	switch event {
	case SubEventCheckoutCompleted, SubEventPaymentSucceeded:
		return SubscriptionStatusActive
	case SubEventPaymentFailed:
		if current == SubscriptionStatusActive || current == SubscriptionStatusPastDue {
			return SubscriptionStatusPastDue
		}
		return current
	case SubEventProviderCanceled:
		return SubscriptionStatusCanceled
	}

	return current
}

// Subscription links a user to a paid tier. Created and updated only by
// checkout completion and webhook events; rows are retained as history after
// cancelation.
type Subscription struct {
	ID                   uint               `gorm:"primaryKey" json:"id"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	DeletedAt            gorm.DeletedAt     `gorm:"index" json:"-"`
	UserID               uint               `gorm:"not null;index" json:"user_id"`
	TierID               uint               `gorm:"not null;index" json:"tier_id"`
	Status               SubscriptionStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	StripeSubscriptionID string             `gorm:"type:varchar(100);uniqueIndex;not null" json:"stripe_subscription_id"`
	StripeCustomerID     string             `gorm:"type:varchar(100);index" json:"-"`
	CurrentPeriodEnd     time.Time          `gorm:"index" json:"current_period_end"`
	CancelAtPeriodEnd    bool               `gorm:"default:false" json:"cancel_at_period_end"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Tier Tier `gorm:"foreignKey:TierID" json:"tier,omitempty"`
}

// TableName specifies the table name for Subscription
func (Subscription) TableName() string {
	return "subscriptions"
}

// IsLapsed reports whether a canceled subscription's paid-through period has
// passed. Access persists until the billing period naturally ends.
func (s *Subscription) IsLapsed(now time.Time) bool {
	return s.Status == SubscriptionStatusCanceled && now.After(s.CurrentPeriodEnd)
}
