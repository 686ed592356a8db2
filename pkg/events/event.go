package events

import "time"

// Event type codes published by the billing reconciler and consumed by the
// notification service.
const (
	TypeSubscriptionActivated = "SUBSCRIPTION_ACTIVATED"
	TypeSubscriptionCanceled  = "SUBSCRIPTION_CANCELED"
	TypePaymentFailed         = "PAYMENT_FAILED"
	TypeTrialWillEnd          = "TRIAL_WILL_END"
)

// Event is the contract every bus message satisfies.
type Event interface {
	// EventType returns the event code, e.g. TypeSubscriptionActivated.
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation used on both sides of the bus.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
