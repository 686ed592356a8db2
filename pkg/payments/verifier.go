package payments

import (
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// EventVerifier authenticates a raw webhook payload against its signature
// header. Signature verification is the only authentication this endpoint
// has, so a failure here must never reach the reconciler.
type EventVerifier interface {
	Verify(payload []byte, sigHeader string) (stripe.Event, error)
}

// StripeVerifier checks the timestamped HMAC signature Stripe puts in the
// Stripe-Signature header.
type StripeVerifier struct {
	secret    string
	tolerance time.Duration
}

var _ EventVerifier = &StripeVerifier{}

func NewStripeVerifier(webhookSecret string) *StripeVerifier {
	return &StripeVerifier{
		secret:    webhookSecret,
		tolerance: webhook.DefaultTolerance,
	}
}

func (v *StripeVerifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	// Accounts pin their own API version; a mismatch with the SDK's pinned
	// version is not an authentication failure, so only the signature and
	// timestamp decide.
	return webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
}
