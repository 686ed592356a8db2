package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/repository/contract"
	"legal-assist-be/internal/repository/specification"
	"legal-assist-be/internal/repository/unitofwork"
	"legal-assist-be/pkg/payments"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

// ---- Fakes ----

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// stubVerifier bypasses HMAC checking so tests exercise routing and
// reconciliation directly. The real verifier is covered in pkg/payments.
type stubVerifier struct {
	err error
}

func (v *stubVerifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	if v.err != nil {
		return stripe.Event{}, v.err
	}
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return stripe.Event{}, err
	}
	return stripe.Event{
		ID:   raw.ID,
		Type: stripe.EventType(raw.Type),
		Data: &stripe.EventData{Raw: raw.Data.Object},
	}, nil
}

type fakeCustomerAPI struct {
	customers map[string]*payments.Customer
	getErr    error
}

func (f *fakeCustomerAPI) Get(ctx context.Context, id string) (*payments.Customer, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.customers[id]
	if !ok {
		return nil, fmt.Errorf("no such customer: %s", id)
	}
	return c, nil
}

func (f *fakeCustomerAPI) FindByEmail(ctx context.Context, email string) (*payments.Customer, error) {
	for _, c := range f.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCustomerAPI) Create(ctx context.Context, email string, metadata map[string]string) (*payments.Customer, error) {
	c := &payments.Customer{ID: "cus_" + uuid.NewString()[:8], Email: email, Metadata: metadata}
	f.customers[c.ID] = c
	return c, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
	err   error
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	f.users[user.Id] = user
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	f.users[user.Id] = user
	return nil
}

func (f *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return f.users[byID.ID], nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) CreateProvider(ctx context.Context, provider *entity.UserProvider) error {
	return nil
}

func (f *fakeUserRepo) FindOneProvider(ctx context.Context, specs ...specification.Specification) (*entity.UserProvider, error) {
	return nil, nil
}

type fakeSubscriptionRepo struct {
	subs     []*entity.Subscription
	plans    []*entity.Plan
	failWith error
	creates  int // write counters so tests can assert no-op handlers
	updates  int
}

func matchSub(sub *entity.Subscription, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.OwnedBy:
			if sub.UserId != s.UserID {
				return false
			}
		case specification.ByStripeCustomerID:
			if sub.StripeCustomerId != s.CustomerID {
				return false
			}
		case specification.ByStripeSubscriptionID:
			if sub.StripeSubscriptionId == nil || *sub.StripeSubscriptionId != s.SubscriptionID {
				return false
			}
		case specification.ByID:
			if sub.Id != s.ID {
				return false
			}
		}
	}
	return true
}

func (f *fakeSubscriptionRepo) CreatePlan(ctx context.Context, plan *entity.Plan) error { return nil }
func (f *fakeSubscriptionRepo) UpdatePlan(ctx context.Context, plan *entity.Plan) error { return nil }

func (f *fakeSubscriptionRepo) FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.Plan, error) {
	for _, spec := range specs {
		if bySlug, ok := spec.(specification.BySlug); ok {
			for _, p := range f.plans {
				if p.Slug == bySlug.Slug {
					return p, nil
				}
			}
		}
	}
	return nil, nil
}

func (f *fakeSubscriptionRepo) FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.Plan, error) {
	var out []*entity.Plan
	for _, p := range f.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) CreateSubscription(ctx context.Context, sub *entity.Subscription) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.subs = append(f.subs, sub)
	f.creates++
	return nil
}

func (f *fakeSubscriptionRepo) UpdateSubscription(ctx context.Context, sub *entity.Subscription) error {
	if f.failWith != nil {
		return f.failWith
	}
	for i, existing := range f.subs {
		if existing.Id == sub.Id {
			f.subs[i] = sub
			f.updates++
			return nil
		}
	}
	return fmt.Errorf("subscription not found: %s", sub.Id)
}

func (f *fakeSubscriptionRepo) FindOneSubscription(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, sub := range f.subs {
		if matchSub(sub, specs) {
			copy := *sub
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeSubscriptionRepo) FindAllSubscriptions(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error) {
	var out []*entity.Subscription
	for _, sub := range f.subs {
		if matchSub(sub, specs) {
			copy := *sub
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) UpdateManySubscriptions(ctx context.Context, values map[string]interface{}, specs ...specification.Specification) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	var rows int64
	for _, sub := range f.subs {
		if !matchSub(sub, specs) {
			continue
		}
		if status, ok := values["status"].(string); ok {
			sub.Status = entity.SubscriptionStatus(status)
		}
		rows++
	}
	return rows, nil
}

type fakeUnitOfWork struct {
	userRepo *fakeUserRepo
	subRepo  *fakeSubscriptionRepo
}

func (f *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (f *fakeUnitOfWork) Commit() error                   { return nil }
func (f *fakeUnitOfWork) Rollback() error                 { return nil }

func (f *fakeUnitOfWork) UserRepository() contract.UserRepository { return f.userRepo }
func (f *fakeUnitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return f.subRepo
}
func (f *fakeUnitOfWork) CaseRepository() contract.CaseRepository               { return nil }
func (f *fakeUnitOfWork) CaseMessageRepository() contract.CaseMessageRepository { return nil }
func (f *fakeUnitOfWork) CaseSummaryRepository() contract.CaseSummaryRepository { return nil }
func (f *fakeUnitOfWork) CaseFileRepository() contract.CaseFileRepository       { return nil }
func (f *fakeUnitOfWork) CaseEmbeddingRepository() contract.CaseEmbeddingRepository {
	return nil
}

type fakeFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

// ---- Fixture ----

type webhookFixture struct {
	service   IWebhookService
	users     *fakeUserRepo
	subs      *fakeSubscriptionRepo
	customers *fakeCustomerAPI
	verifier  *stubVerifier
}

func newWebhookFixture() *webhookFixture {
	users := &fakeUserRepo{users: map[uuid.UUID]*entity.User{}}
	subs := &fakeSubscriptionRepo{}
	customers := &fakeCustomerAPI{customers: map[string]*payments.Customer{}}
	verifier := &stubVerifier{}

	svc := NewWebhookService(
		&fakeFactory{uow: &fakeUnitOfWork{userRepo: users, subRepo: subs}},
		verifier,
		customers,
		nil,
		nopLogger{},
	)
	return &webhookFixture{
		service:   svc,
		users:     users,
		subs:      subs,
		customers: customers,
		verifier:  verifier,
	}
}

func (f *webhookFixture) addUser(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.users.users[id] = &entity.User{Id: id, Email: "user@example.com", Status: entity.UserStatusActive}
	return id
}

func (f *webhookFixture) deliver(t *testing.T, eventType string, object map[string]interface{}) error {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":   "evt_" + uuid.NewString()[:8],
		"type": eventType,
		"data": map[string]interface{}{"object": object},
	})
	require.NoError(t, err)

	return f.service.HandleEvent(context.Background(), body, "sig")
}

// ---- Tests ----

func TestHandleEventRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture()
	f.verifier.err = errors.New("no valid signature found")

	err := f.service.HandleEvent(context.Background(), []byte(`{}`), "t=1,v1=bad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSignature))
	assert.Empty(t, f.subs.subs, "a rejected delivery must not write")
}

func TestHandleEventAcknowledgesUnknownEventTypes(t *testing.T) {
	f := newWebhookFixture()

	err := f.deliver(t, "charge.refunded", map[string]interface{}{"id": "ch_123"})
	require.NoError(t, err)
	assert.Empty(t, f.subs.subs)
}

func TestCheckoutCompletedPaymentModeCreatesRecord(t *testing.T) {
	f := newWebhookFixture()
	userId := f.addUser(t)

	err := f.deliver(t, "checkout.session.completed", map[string]interface{}{
		"id":       "cs_1",
		"mode":     "payment",
		"customer": "cus_abc",
		"metadata": map[string]string{"userId": userId.String(), "planId": "pay-per-letter"},
	})
	require.NoError(t, err)

	require.Len(t, f.subs.subs, 1)
	got := f.subs.subs[0]
	assert.Equal(t, userId, got.UserId)
	assert.Equal(t, "pay-per-letter", got.PlanId)
	assert.Equal(t, entity.SubscriptionStatusActive, got.Status)
	assert.Equal(t, "cus_abc", got.StripeCustomerId)
	assert.Nil(t, got.StripeSubscriptionId, "one-time purchases carry no provider subscription")
}

func TestCheckoutCompletedUnrecognizedModeWritesNothing(t *testing.T) {
	f := newWebhookFixture()
	userId := f.addUser(t)

	err := f.deliver(t, "checkout.session.completed", map[string]interface{}{
		"id":       "cs_setup",
		"mode":     "setup",
		"customer": "cus_abc",
		"metadata": map[string]string{"userId": userId.String(), "planId": "pro"},
	})
	require.NoError(t, err, "a setup session is acknowledged, not retried")

	assert.Empty(t, f.subs.subs)
	assert.Equal(t, 0, f.subs.creates)
}

func TestCheckoutCompletedReplayIsIdempotent(t *testing.T) {
	f := newWebhookFixture()
	userId := f.addUser(t)

	object := map[string]interface{}{
		"id":       "cs_1",
		"mode":     "payment",
		"customer": "cus_abc",
		"metadata": map[string]string{"userId": userId.String(), "planId": "pro"},
	}

	require.NoError(t, f.deliver(t, "checkout.session.completed", object))
	require.NoError(t, f.deliver(t, "checkout.session.completed", object))

	require.Len(t, f.subs.subs, 1, "replay must converge to one record per user")
	assert.Equal(t, "pro", f.subs.subs[0].PlanId)
	assert.Equal(t, entity.SubscriptionStatusActive, f.subs.subs[0].Status)
}

func TestCheckoutCompletedSubscriptionModeBindsExternalId(t *testing.T) {
	f := newWebhookFixture()
	userId := f.addUser(t)

	err := f.deliver(t, "checkout.session.completed", map[string]interface{}{
		"id":           "cs_2",
		"mode":         "subscription",
		"customer":     "cus_abc",
		"subscription": "sub_123",
		"metadata":     map[string]string{"userId": userId.String(), "planId": "pro"},
	})
	require.NoError(t, err)

	require.Len(t, f.subs.subs, 1)
	require.NotNil(t, f.subs.subs[0].StripeSubscriptionId)
	assert.Equal(t, "sub_123", *f.subs.subs[0].StripeSubscriptionId)
}

func TestCheckoutCompletedSubscriptionModeRequiresKnownUser(t *testing.T) {
	f := newWebhookFixture()

	err := f.deliver(t, "checkout.session.completed", map[string]interface{}{
		"id":           "cs_3",
		"mode":         "subscription",
		"customer":     "cus_abc",
		"subscription": "sub_123",
		"metadata":     map[string]string{"userId": uuid.NewString(), "planId": "pro"},
	})
	require.NoError(t, err, "unknown user is logged and acknowledged, not retried")
	assert.Empty(t, f.subs.subs)
}

func TestCheckoutCompletedMissingMetadataIsAcknowledged(t *testing.T) {
	f := newWebhookFixture()

	err := f.deliver(t, "checkout.session.completed", map[string]interface{}{
		"id":       "cs_4",
		"mode":     "payment",
		"customer": "cus_abc",
		"metadata": map[string]string{},
	})
	require.NoError(t, err)
	assert.Empty(t, f.subs.subs)
}

func TestSubscriptionCreatedResolvesUserThroughCustomer(t *testing.T) {
	f := newWebhookFixture()
	userId := f.addUser(t)
	f.customers.customers["cus_xyz"] = &payments.Customer{
		ID:       "cus_xyz",
		Metadata: map[string]string{"userId": userId.String()},
	}

	err := f.deliver(t, "customer.subscription.created", map[string]interface{}{
		"id":       "sub_777",
		"status":   "trialing",
		"customer": "cus_xyz",
		"metadata": map[string]string{"planId": "pro"},
	})
	require.NoError(t, err)

	require.Len(t, f.subs.subs, 1)
	got := f.subs.subs[0]
	assert.Equal(t, userId, got.UserId)
	assert.Equal(t, entity.SubscriptionStatusTrialing, got.Status, "status mirrors the event verbatim")
	require.NotNil(t, got.StripeSubscriptionId)
	assert.Equal(t, "sub_777", *got.StripeSubscriptionId)
}

func TestSubscriptionCreatedUpdatesExistingCustomerRecord(t *testing.T) {
	f := newWebhookFixture()
	userId := f.addUser(t)
	f.subs.subs = append(f.subs.subs, &entity.Subscription{
		Id:               uuid.New(),
		UserId:           userId,
		PlanId:           "pro",
		Status:           entity.SubscriptionStatusActive,
		StripeCustomerId: "cus_xyz",
	})

	err := f.deliver(t, "customer.subscription.created", map[string]interface{}{
		"id":       "sub_888",
		"status":   "active",
		"customer": "cus_xyz",
		"metadata": map[string]string{"planId": "pro"},
	})
	require.NoError(t, err)

	require.Len(t, f.subs.subs, 1)
	require.NotNil(t, f.subs.subs[0].StripeSubscriptionId)
	assert.Equal(t, "sub_888", *f.subs.subs[0].StripeSubscriptionId)
}

func TestSubscriptionCreatedWithoutPlanIdWritesNothing(t *testing.T) {
	f := newWebhookFixture()
	userId := f.addUser(t)
	f.subs.subs = append(f.subs.subs, &entity.Subscription{
		Id:               uuid.New(),
		UserId:           userId,
		PlanId:           "pro",
		Status:           entity.SubscriptionStatusActive,
		StripeCustomerId: "cus_xyz",
	})

	err := f.deliver(t, "customer.subscription.created", map[string]interface{}{
		"id":       "sub_888",
		"status":   "active",
		"customer": "cus_xyz",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, f.subs.updates, "missing planId metadata must not touch an existing record")
	assert.Nil(t, f.subs.subs[0].StripeSubscriptionId)
	assert.Equal(t, entity.SubscriptionStatusActive, f.subs.subs[0].Status)
}

func seededRecurring(f *webhookFixture, subId string) *entity.Subscription {
	record := &entity.Subscription{
		Id:                   uuid.New(),
		UserId:               uuid.New(),
		PlanId:               "pro",
		Status:               entity.SubscriptionStatusActive,
		StripeCustomerId:     "cus_abc",
		StripeSubscriptionId: &subId,
	}
	f.subs.subs = append(f.subs.subs, record)
	return record
}

func TestSubscriptionUpdatedMirrorsEventStatus(t *testing.T) {
	f := newWebhookFixture()
	seededRecurring(f, "sub_1")

	event := map[string]interface{}{
		"id":     "sub_1",
		"status": "unpaid",
	}
	require.NoError(t, f.deliver(t, "customer.subscription.updated", event))
	assert.Equal(t, entity.SubscriptionStatusUnpaid, f.subs.subs[0].Status)

	// Replaying the same event converges: still one row, same status.
	require.NoError(t, f.deliver(t, "customer.subscription.updated", event))
	require.Len(t, f.subs.subs, 1)
	assert.Equal(t, entity.SubscriptionStatusUnpaid, f.subs.subs[0].Status)
}

func TestSubscriptionDeletedCancels(t *testing.T) {
	f := newWebhookFixture()
	seededRecurring(f, "sub_1")

	err := f.deliver(t, "customer.subscription.deleted", map[string]interface{}{
		"id":     "sub_1",
		"status": "canceled",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionStatusCanceled, f.subs.subs[0].Status)
	assert.Equal(t, "pro", f.subs.subs[0].PlanId, "cancellation only touches status")
}

func TestInvoiceEventsDriveStatus(t *testing.T) {
	f := newWebhookFixture()
	seededRecurring(f, "sub_1")

	invoice := func(subId string) map[string]interface{} {
		return map[string]interface{}{
			"customer": "cus_abc",
			"lines": map[string]interface{}{
				"data": []map[string]interface{}{{"subscription": subId}},
			},
		}
	}

	require.NoError(t, f.deliver(t, "invoice.payment_failed", invoice("sub_1")))
	assert.Equal(t, entity.SubscriptionStatusPastDue, f.subs.subs[0].Status)

	require.NoError(t, f.deliver(t, "invoice.payment_succeeded", invoice("sub_1")))
	assert.Equal(t, entity.SubscriptionStatusActive, f.subs.subs[0].Status)
}

func TestLastEventWins(t *testing.T) {
	succeeded := map[string]interface{}{
		"lines": map[string]interface{}{
			"data": []map[string]interface{}{{"subscription": "sub_1"}},
		},
	}
	failed := map[string]interface{}{
		"lines": map[string]interface{}{
			"data": []map[string]interface{}{{"subscription": "sub_1"}},
		},
	}

	t.Run("failed then succeeded ends active", func(t *testing.T) {
		f := newWebhookFixture()
		seededRecurring(f, "sub_1")
		require.NoError(t, f.deliver(t, "invoice.payment_failed", failed))
		require.NoError(t, f.deliver(t, "invoice.payment_succeeded", succeeded))
		assert.Equal(t, entity.SubscriptionStatusActive, f.subs.subs[0].Status)
	})

	t.Run("succeeded then failed ends past_due", func(t *testing.T) {
		f := newWebhookFixture()
		seededRecurring(f, "sub_1")
		require.NoError(t, f.deliver(t, "invoice.payment_succeeded", succeeded))
		require.NoError(t, f.deliver(t, "invoice.payment_failed", failed))
		assert.Equal(t, entity.SubscriptionStatusPastDue, f.subs.subs[0].Status)
	})
}

func TestLifecycleEventForUntrackedSubscriptionIsAcknowledged(t *testing.T) {
	f := newWebhookFixture()

	err := f.deliver(t, "customer.subscription.updated", map[string]interface{}{
		"id":     "sub_never_seen",
		"status": "active",
	})
	require.NoError(t, err)
	assert.Empty(t, f.subs.subs)
}

func TestTrialWillEndWritesNothing(t *testing.T) {
	f := newWebhookFixture()
	record := seededRecurring(f, "sub_1")
	before := record.Status

	err := f.deliver(t, "customer.subscription.trial_will_end", map[string]interface{}{
		"id":       "sub_1",
		"status":   "trialing",
		"customer": "cus_abc",
	})
	require.NoError(t, err)
	assert.Equal(t, before, f.subs.subs[0].Status)
	assert.Equal(t, 0, f.subs.updates)
}

func TestStorageFailurePropagatesForRetry(t *testing.T) {
	f := newWebhookFixture()
	seededRecurring(f, "sub_1")
	f.subs.failWith = errors.New("connection refused")

	err := f.deliver(t, "customer.subscription.updated", map[string]interface{}{
		"id":     "sub_1",
		"status": "canceled",
	})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidSignature))
}

func TestMalformedVerifiedPayloadIsAcknowledged(t *testing.T) {
	f := newWebhookFixture()

	body, _ := json.Marshal(map[string]interface{}{
		"id":   "evt_bad",
		"type": "customer.subscription.updated",
		"data": map[string]interface{}{"object": "not an object"},
	})
	err := f.service.HandleEvent(context.Background(), body, "sig")
	require.NoError(t, err)
	assert.Empty(t, f.subs.subs)
}

// Full lifecycle: trial checkout through cancellation.
func TestSubscriptionLifecycleScenario(t *testing.T) {
	f := newWebhookFixture()
	userId := f.addUser(t)

	require.NoError(t, f.deliver(t, "checkout.session.completed", map[string]interface{}{
		"id":           "cs_1",
		"mode":         "subscription",
		"customer":     "cus_abc",
		"subscription": "sub_1",
		"metadata":     map[string]string{"userId": userId.String(), "planId": "pro"},
	}))
	require.NoError(t, f.deliver(t, "customer.subscription.updated", map[string]interface{}{
		"id":     "sub_1",
		"status": "active",
	}))
	require.NoError(t, f.deliver(t, "invoice.payment_failed", map[string]interface{}{
		"lines": map[string]interface{}{
			"data": []map[string]interface{}{{"subscription": "sub_1"}},
		},
	}))
	require.NoError(t, f.deliver(t, "customer.subscription.deleted", map[string]interface{}{
		"id":     "sub_1",
		"status": "canceled",
	}))

	require.Len(t, f.subs.subs, 1)
	got := f.subs.subs[0]
	assert.Equal(t, userId, got.UserId)
	assert.Equal(t, entity.SubscriptionStatusCanceled, got.Status)
}
