package specification

import "gorm.io/gorm"

// ByStripeCustomerID is the secondary reconciliation key: events that do not
// carry our userId are correlated through the provider's customer id.
type ByStripeCustomerID struct {
	CustomerID string
}

func (s ByStripeCustomerID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stripe_customer_id = ?", s.CustomerID)
}

// ByStripeSubscriptionID keys the bulk status updates applied by
// subscription-lifecycle and invoice events.
type ByStripeSubscriptionID struct {
	SubscriptionID string
}

func (s ByStripeSubscriptionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stripe_subscription_id = ?", s.SubscriptionID)
}

// ByEmail filters users by email.
type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

// ActivePlans filters plans visible on the pricing surface.
type ActivePlans struct{}

func (s ActivePlans) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

// BySlug filters plans by slug.
type BySlug struct {
	Slug string
}

func (s BySlug) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("slug = ?", s.Slug)
}
