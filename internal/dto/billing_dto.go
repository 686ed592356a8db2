// FILE: internal/dto/billing_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type PlanResponse struct {
	Id          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Interval    string    `json:"interval"`
	CaseLimit   int       `json:"case_limit"`
}

type CheckoutRequest struct {
	PlanSlug string `json:"plan_slug" validate:"required"`
}

type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

type ManageSubscriptionResponse struct {
	PortalURL string `json:"portal_url"`
}

type SubscriptionStatusResponse struct {
	PlanSlug  string    `json:"plan_slug,omitempty"`
	PlanName  string    `json:"plan_name,omitempty"`
	Status    string    `json:"status,omitempty"`
	IsActive  bool      `json:"is_active"`
	Recurring bool      `json:"recurring"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// WebhookAckResponse is what the payment provider expects back for any
// event that was received, recognized or not.
type WebhookAckResponse struct {
	Received bool `json:"received"`
}
