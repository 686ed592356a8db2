// FILE: internal/service/webhook_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/pkg/logger"
	"legal-assist-be/internal/repository/specification"
	"legal-assist-be/internal/repository/unitofwork"
	"legal-assist-be/pkg/events"
	pktNats "legal-assist-be/pkg/nats"
	"legal-assist-be/pkg/payments"

	"github.com/google/uuid"
)

// ErrInvalidSignature marks payloads that failed signature verification.
// The controller maps it to 400 so the provider does not retry forged or
// stale deliveries.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// EventKind is the closed set of provider events this system reconciles.
// Anything else parses to EventUnknown and is acknowledged without a write.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCheckoutCompleted
	EventSubscriptionCreated
	EventSubscriptionUpdated
	EventSubscriptionDeleted
	EventInvoicePaymentSucceeded
	EventInvoicePaymentFailed
	EventTrialWillEnd
)

func parseEventKind(eventType string) EventKind {
	switch eventType {
	case "checkout.session.completed":
		return EventCheckoutCompleted
	case "customer.subscription.created":
		return EventSubscriptionCreated
	case "customer.subscription.updated":
		return EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventSubscriptionDeleted
	case "invoice.payment_succeeded":
		return EventInvoicePaymentSucceeded
	case "invoice.payment_failed":
		return EventInvoicePaymentFailed
	case "customer.subscription.trial_will_end":
		return EventTrialWillEnd
	default:
		return EventUnknown
	}
}

// Lean payload shapes decoded from the verified event body. Only the fields
// the reconciler reads are declared, so provider-side additions never break
// decoding.

type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionPayload struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Customer string            `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

type invoicePayload struct {
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Lines        struct {
		Data []struct {
			Subscription string `json:"subscription"`
		} `json:"data"`
	} `json:"lines"`
}

// subscriptionID returns the subscription referenced by the invoice,
// preferring the line items over the deprecated top-level field.
func (p *invoicePayload) subscriptionID() string {
	for _, line := range p.Lines.Data {
		if line.Subscription != "" {
			return line.Subscription
		}
	}
	return p.Subscription
}

type IWebhookService interface {
	// HandleEvent verifies, routes and reconciles one raw webhook delivery.
	// A nil return means the provider should be acknowledged with 2xx.
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type webhookService struct {
	uowFactory     unitofwork.RepositoryFactory
	verifier       payments.EventVerifier
	customers      payments.CustomerAPI
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewWebhookService(
	uowFactory unitofwork.RepositoryFactory,
	verifier payments.EventVerifier,
	customers payments.CustomerAPI,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IWebhookService {
	return &webhookService{
		uowFactory:     uowFactory,
		verifier:       verifier,
		customers:      customers,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *webhookService) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.verifier.Verify(payload, sigHeader)
	if err != nil {
		s.logger.Warn("Webhook", "Signature verification failed", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	kind := parseEventKind(string(event.Type))
	s.logger.Info("Webhook", "Event received", map[string]interface{}{
		"event_id": event.ID,
		"type":     string(event.Type),
	})

	switch kind {
	case EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event.Data.Raw)
	case EventSubscriptionCreated:
		return s.handleSubscriptionCreated(ctx, event.Data.Raw)
	case EventSubscriptionUpdated:
		return s.handleSubscriptionUpdated(ctx, event.Data.Raw)
	case EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event.Data.Raw)
	case EventInvoicePaymentSucceeded:
		return s.handleInvoicePaymentSucceeded(ctx, event.Data.Raw)
	case EventInvoicePaymentFailed:
		return s.handleInvoicePaymentFailed(ctx, event.Data.Raw)
	case EventTrialWillEnd:
		return s.handleTrialWillEnd(ctx, event.Data.Raw)
	case EventUnknown:
		// Acknowledge so the provider never retries events we ignore on purpose.
		s.logger.Debug("Webhook", "Ignoring unrecognized event type", map[string]interface{}{
			"type": string(event.Type),
		})
		return nil
	}
	return nil
}

func (s *webhookService) handleCheckoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var session checkoutSessionPayload
	if err := json.Unmarshal(raw, &session); err != nil {
		s.logger.Error("Webhook", "Malformed checkout session payload", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	// Only purchase sessions carry an entitlement; setup and other modes are
	// acknowledged without touching subscription state.
	if session.Mode != "payment" && session.Mode != "subscription" {
		s.logger.Debug("Webhook", "Checkout session mode carries no entitlement, skipping", map[string]interface{}{
			"session_id": session.ID,
			"mode":       session.Mode,
		})
		return nil
	}

	userIdStr := session.Metadata["userId"]
	planId := session.Metadata["planId"]
	if userIdStr == "" || planId == "" {
		s.logger.Warn("Webhook", "Checkout session missing userId or planId metadata", map[string]interface{}{
			"session_id": session.ID,
		})
		return nil
	}

	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		s.logger.Warn("Webhook", "Checkout session carries malformed userId", map[string]interface{}{
			"session_id": session.ID,
			"user_id":    userIdStr,
		})
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	var externalSubId *string
	if session.Mode == "subscription" {
		// Recurring purchase: the user row must already exist.
		user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
		if err != nil {
			return err
		}
		if user == nil {
			s.logger.Warn("Webhook", "Checkout session references unknown user, skipping", map[string]interface{}{
				"session_id": session.ID,
				"user_id":    userIdStr,
			})
			return nil
		}
		if session.Subscription != "" {
			subId := session.Subscription
			externalSubId = &subId
		}
	}

	if err := s.upsertByUser(ctx, uow, userId, planId, session.Customer, externalSubId); err != nil {
		return err
	}

	s.publish(ctx, events.TypeSubscriptionActivated, map[string]interface{}{
		"user_id":     userId,
		"plan_id":     planId,
		"occurred_at": time.Now(),
	})
	return nil
}

func (s *webhookService) handleSubscriptionCreated(ctx context.Context, raw json.RawMessage) error {
	var sub subscriptionPayload
	if err := json.Unmarshal(raw, &sub); err != nil {
		s.logger.Error("Webhook", "Malformed subscription payload", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	planId := sub.Metadata["planId"]
	if planId == "" {
		s.logger.Warn("Webhook", "Subscription created without planId metadata, skipping", map[string]interface{}{
			"subscription_id": sub.ID,
		})
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.SubscriptionRepository().FindOneSubscription(ctx,
		specification.ByStripeCustomerID{CustomerID: sub.Customer})
	if err != nil {
		return err
	}

	if existing != nil {
		existing.Status = entity.SubscriptionStatus(sub.Status)
		existing.StripeSubscriptionId = &sub.ID
		existing.PlanId = planId
		return uow.SubscriptionRepository().UpdateSubscription(ctx, existing)
	}

	// No record keyed by this customer yet: resolve the customer object to
	// learn which of our users it belongs to.
	customer, err := s.customers.Get(ctx, sub.Customer)
	if err != nil {
		s.logger.Error("Webhook", "Failed to resolve customer", map[string]interface{}{
			"customer_id": sub.Customer,
			"error":       err.Error(),
		})
		return nil
	}
	if customer.Deleted {
		s.logger.Warn("Webhook", "Customer is deleted, skipping", map[string]interface{}{
			"customer_id": sub.Customer,
		})
		return nil
	}

	userIdStr := customer.Metadata["userId"]
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		s.logger.Warn("Webhook", "Customer metadata has no usable userId", map[string]interface{}{
			"customer_id": sub.Customer,
		})
		return nil
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		s.logger.Warn("Webhook", "Subscription created for unknown user, skipping", map[string]interface{}{
			"user_id": userIdStr,
		})
		return nil
	}

	subId := sub.ID
	record := &entity.Subscription{
		Id:                   uuid.New(),
		UserId:               userId,
		PlanId:               planId,
		Status:               entity.SubscriptionStatus(sub.Status),
		StripeCustomerId:     sub.Customer,
		StripeSubscriptionId: &subId,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	return uow.SubscriptionRepository().CreateSubscription(ctx, record)
}

func (s *webhookService) handleSubscriptionUpdated(ctx context.Context, raw json.RawMessage) error {
	var sub subscriptionPayload
	if err := json.Unmarshal(raw, &sub); err != nil {
		s.logger.Error("Webhook", "Malformed subscription payload", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	return s.bulkStatus(ctx, sub.ID, entity.SubscriptionStatus(sub.Status), "")
}

func (s *webhookService) handleSubscriptionDeleted(ctx context.Context, raw json.RawMessage) error {
	var sub subscriptionPayload
	if err := json.Unmarshal(raw, &sub); err != nil {
		s.logger.Error("Webhook", "Malformed subscription payload", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	return s.bulkStatus(ctx, sub.ID, entity.SubscriptionStatusCanceled, events.TypeSubscriptionCanceled)
}

func (s *webhookService) handleInvoicePaymentSucceeded(ctx context.Context, raw json.RawMessage) error {
	var invoice invoicePayload
	if err := json.Unmarshal(raw, &invoice); err != nil {
		s.logger.Error("Webhook", "Malformed invoice payload", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	subId := invoice.subscriptionID()
	if subId == "" {
		s.logger.Debug("Webhook", "Invoice carries no subscription reference", nil)
		return nil
	}

	return s.bulkStatus(ctx, subId, entity.SubscriptionStatusActive, "")
}

func (s *webhookService) handleInvoicePaymentFailed(ctx context.Context, raw json.RawMessage) error {
	var invoice invoicePayload
	if err := json.Unmarshal(raw, &invoice); err != nil {
		s.logger.Error("Webhook", "Malformed invoice payload", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	subId := invoice.subscriptionID()
	if subId == "" {
		s.logger.Debug("Webhook", "Invoice carries no subscription reference", nil)
		return nil
	}

	return s.bulkStatus(ctx, subId, entity.SubscriptionStatusPastDue, events.TypePaymentFailed)
}

func (s *webhookService) handleTrialWillEnd(ctx context.Context, raw json.RawMessage) error {
	var sub subscriptionPayload
	if err := json.Unmarshal(raw, &sub); err != nil {
		s.logger.Error("Webhook", "Malformed subscription payload", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	// No persisted state change: notify only.
	s.logger.Info("Webhook", "Trial ending soon", map[string]interface{}{
		"subscription_id": sub.ID,
		"customer_id":     sub.Customer,
	})

	uow := s.uowFactory.NewUnitOfWork(ctx)
	record, err := uow.SubscriptionRepository().FindOneSubscription(ctx,
		specification.ByStripeSubscriptionID{SubscriptionID: sub.ID})
	if err != nil || record == nil {
		return err
	}

	s.publish(ctx, events.TypeTrialWillEnd, map[string]interface{}{
		"user_id":         record.UserId,
		"plan_id":         record.PlanId,
		"subscription_id": sub.ID,
		"occurred_at":     time.Now(),
	})
	return nil
}

// upsertByUser creates or fully overwrites the single subscription record a
// user owns. Replays converge because every field the handler owns is
// rewritten on each call.
func (s *webhookService) upsertByUser(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	userId uuid.UUID,
	planId, customerId string,
	externalSubId *string,
) error {
	existing, err := uow.SubscriptionRepository().FindOneSubscription(ctx,
		specification.OwnedBy{UserID: userId})
	if err != nil {
		return err
	}

	if existing == nil {
		record := &entity.Subscription{
			Id:                   uuid.New(),
			UserId:               userId,
			PlanId:               planId,
			Status:               entity.SubscriptionStatusActive,
			StripeCustomerId:     customerId,
			StripeSubscriptionId: externalSubId,
			CreatedAt:            time.Now(),
			UpdatedAt:            time.Now(),
		}
		return uow.SubscriptionRepository().CreateSubscription(ctx, record)
	}

	existing.PlanId = planId
	existing.Status = entity.SubscriptionStatusActive
	existing.StripeCustomerId = customerId
	if externalSubId != nil {
		existing.StripeSubscriptionId = externalSubId
	}
	return uow.SubscriptionRepository().UpdateSubscription(ctx, existing)
}

// bulkStatus rewrites the status of every record bound to the external
// subscription id. A zero row count is not an error: events can reference
// subscriptions this system never recorded.
func (s *webhookService) bulkStatus(ctx context.Context, externalSubId string, status entity.SubscriptionStatus, eventType string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	rows, err := uow.SubscriptionRepository().UpdateManySubscriptions(ctx,
		map[string]interface{}{"status": string(status)},
		specification.ByStripeSubscriptionID{SubscriptionID: externalSubId},
	)
	if err != nil {
		return err
	}

	s.logger.Info("Webhook", "Subscription status reconciled", map[string]interface{}{
		"subscription_id": externalSubId,
		"status":          string(status),
		"rows":            rows,
	})

	if eventType != "" && rows > 0 {
		record, err := uow.SubscriptionRepository().FindOneSubscription(ctx,
			specification.ByStripeSubscriptionID{SubscriptionID: externalSubId})
		if err == nil && record != nil {
			s.publish(ctx, eventType, map[string]interface{}{
				"user_id":         record.UserId,
				"plan_id":         record.PlanId,
				"subscription_id": externalSubId,
				"occurred_at":     time.Now(),
			})
		}
	}
	return nil
}

func (s *webhookService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("Webhook", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
