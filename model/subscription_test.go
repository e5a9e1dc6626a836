package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextSubscriptionStatus(t *testing.T) {
	cases := []struct {
		name    string
		current SubscriptionStatus
		event   SubscriptionEvent
		want    SubscriptionStatus
	}{
		{"checkout activates", SubscriptionStatusNone, SubEventCheckoutCompleted, SubscriptionStatusActive},
		{"payment keeps active", SubscriptionStatusActive, SubEventPaymentSucceeded, SubscriptionStatusActive},
		{"payment recovers past due", SubscriptionStatusPastDue, SubEventPaymentSucceeded, SubscriptionStatusActive},
		{"failed payment marks past due", SubscriptionStatusActive, SubEventPaymentFailed, SubscriptionStatusPastDue},
		{"failed payment stays past due", SubscriptionStatusPastDue, SubEventPaymentFailed, SubscriptionStatusPastDue},
		{"failed payment before activation is ignored", SubscriptionStatusNone, SubEventPaymentFailed, SubscriptionStatusNone},
		{"provider cancel from active", SubscriptionStatusActive, SubEventProviderCanceled, SubscriptionStatusCanceled},
		{"provider cancel from past due", SubscriptionStatusPastDue, SubEventProviderCanceled, SubscriptionStatusCanceled},
		{"canceled is terminal on payment", SubscriptionStatusCanceled, SubEventPaymentSucceeded, SubscriptionStatusCanceled},
		{"canceled is terminal on checkout", SubscriptionStatusCanceled, SubEventCheckoutCompleted, SubscriptionStatusCanceled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextSubscriptionStatus(tc.current, tc.event))
		})
	}
}

func TestSubscriptionIsLapsed(t *testing.T) {
	now := time.Now()

	active := Subscription{Status: SubscriptionStatusActive, CurrentPeriodEnd: now.Add(-time.Hour)}
	assert.False(t, active.IsLapsed(now))

	// Canceled but paid through: access persists until the period ends
	paidThrough := Subscription{Status: SubscriptionStatusCanceled, CurrentPeriodEnd: now.Add(time.Hour)}
	assert.False(t, paidThrough.IsLapsed(now))

	lapsed := Subscription{Status: SubscriptionStatusCanceled, CurrentPeriodEnd: now.Add(-time.Hour)}
	assert.True(t, lapsed.IsLapsed(now))
}
