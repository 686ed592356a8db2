// FILE: internal/entity/subscription_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus mirrors the payment provider's subscription status
// vocabulary verbatim. Transitions between values are not validated; the
// reconciler applies last-write-wins.
type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusUnpaid     SubscriptionStatus = "unpaid"
)

type BillingInterval string

const (
	BillingIntervalOneTime BillingInterval = "one_time"
	BillingIntervalMonthly BillingInterval = "monthly"
)

// Plan is a purchasable tier. Plans are keyed by slug because the slug is
// the identifier checkout puts into provider metadata and what webhook
// events carry back.
type Plan struct {
	Id          uuid.UUID
	Slug        string
	Name        string
	Description string
	AmountCents int64
	Currency    string
	Interval    BillingInterval
	CaseLimit   int // -1 = unlimited
	IsActive    bool
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Subscription is the single reconciled billing record per user. It is
// created on first successful checkout (or first subscription-created event)
// and mutated by every subsequent recognized provider event. Rows are never
// hard-deleted; cancellation is a status value.
type Subscription struct {
	Id     uuid.UUID
	UserId uuid.UUID
	// PlanId is the purchased plan's slug; empty only before first purchase.
	PlanId string
	Status SubscriptionStatus
	// StripeCustomerId is stable per payer and is the secondary lookup key
	// when an event does not carry our userId directly.
	StripeCustomerId string
	// StripeSubscriptionId is nil for one-time purchases. Those records only
	// transition via repeat checkout events, never via subscription-lifecycle
	// events.
	StripeSubscriptionId *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsRecurring reports whether the record is bound to a provider subscription.
func (s *Subscription) IsRecurring() bool {
	return s.StripeSubscriptionId != nil && *s.StripeSubscriptionId != ""
}
