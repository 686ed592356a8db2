package service

import (
	"context"
	"testing"

	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/entity"
	"legal-assist-be/pkg/payments"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheckoutAPI struct {
	lastParams payments.CheckoutParams
	sessions   int
}

func (f *fakeCheckoutAPI) NewCheckoutSession(ctx context.Context, params payments.CheckoutParams) (string, error) {
	f.lastParams = params
	f.sessions++
	return "https://checkout.example.com/session/" + params.Item.Name, nil
}

func (f *fakeCheckoutAPI) NewPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	return "https://billing.example.com/portal/" + customerID, nil
}

type billingTestEnv struct {
	service   IBillingService
	users     *fakeUserRepo
	subs      *fakeSubscriptionRepo
	customers *fakeCustomerAPI
	checkout  *fakeCheckoutAPI
}

func newBillingEnv() *billingTestEnv {
	users := &fakeUserRepo{users: map[uuid.UUID]*entity.User{}}
	subs := &fakeSubscriptionRepo{
		plans: []*entity.Plan{
			{Id: uuid.New(), Slug: "pay-per-letter", Name: "Pay Per Letter", AmountCents: 500, Currency: "usd", Interval: entity.BillingIntervalOneTime, IsActive: true},
			{Id: uuid.New(), Slug: "pro", Name: "Pro", AmountCents: 1500, Currency: "usd", Interval: entity.BillingIntervalMonthly, IsActive: true},
			{Id: uuid.New(), Slug: "legacy", Name: "Legacy", AmountCents: 900, Currency: "usd", Interval: entity.BillingIntervalMonthly, IsActive: false},
		},
	}
	customers := &fakeCustomerAPI{customers: map[string]*payments.Customer{}}
	checkout := &fakeCheckoutAPI{}

	svc := NewBillingService(
		&fakeFactory{uow: &fakeUnitOfWork{userRepo: users, subRepo: subs}},
		customers,
		checkout,
		"https://app.example.com",
		"/billing/success",
		"/billing",
	)
	return &billingTestEnv{service: svc, users: users, subs: subs, customers: customers, checkout: checkout}
}

func (e *billingTestEnv) addUser(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	e.users.users[id] = &entity.User{Id: id, Email: "user@example.com", Status: entity.UserStatusActive}
	return id
}

func TestGetPlansReturnsOnlyActiveOnes(t *testing.T) {
	env := newBillingEnv()

	plans, err := env.service.GetPlans(context.Background())
	require.NoError(t, err)

	require.Len(t, plans, 2)
	for _, p := range plans {
		assert.NotEqual(t, "legacy", p.Slug)
	}
}

func TestGetPlansIsCached(t *testing.T) {
	env := newBillingEnv()

	first, err := env.service.GetPlans(context.Background())
	require.NoError(t, err)

	// Mutating the backing store must not affect cached reads.
	env.subs.plans = nil
	second, err := env.service.GetPlans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCreateCheckoutTagsSessionWithUserAndPlan(t *testing.T) {
	env := newBillingEnv()
	userId := env.addUser(t)

	res, err := env.service.CreateCheckout(context.Background(), userId, &dto.CheckoutRequest{PlanSlug: "pro"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.CheckoutURL)

	params := env.checkout.lastParams
	assert.Equal(t, userId.String(), params.Metadata["userId"])
	assert.Equal(t, "pro", params.Metadata["planId"])
	assert.True(t, params.Item.Recurring)
	assert.Equal(t, int64(1500), params.Item.AmountCents)
	assert.Equal(t, "https://app.example.com/billing/success", params.SuccessURL)
}

func TestCreateCheckoutOneTimePlanIsNotRecurring(t *testing.T) {
	env := newBillingEnv()
	userId := env.addUser(t)

	_, err := env.service.CreateCheckout(context.Background(), userId, &dto.CheckoutRequest{PlanSlug: "pay-per-letter"})
	require.NoError(t, err)
	assert.False(t, env.checkout.lastParams.Item.Recurring)
}

func TestCreateCheckoutRejectsInactivePlan(t *testing.T) {
	env := newBillingEnv()
	userId := env.addUser(t)

	_, err := env.service.CreateCheckout(context.Background(), userId, &dto.CheckoutRequest{PlanSlug: "legacy"})
	assert.Error(t, err)
	assert.Zero(t, env.checkout.sessions)
}

func TestCreateCheckoutReusesReconciledCustomer(t *testing.T) {
	env := newBillingEnv()
	userId := env.addUser(t)
	env.subs.subs = append(env.subs.subs, &entity.Subscription{
		Id:               uuid.New(),
		UserId:           userId,
		StripeCustomerId: "cus_known",
		Status:           entity.SubscriptionStatusActive,
	})

	_, err := env.service.CreateCheckout(context.Background(), userId, &dto.CheckoutRequest{PlanSlug: "pro"})
	require.NoError(t, err)
	assert.Equal(t, "cus_known", env.checkout.lastParams.CustomerID)
	assert.Empty(t, env.customers.customers, "no new provider customer should be created")
}

func TestCreateCheckoutCreatesCustomerWhenNoneExists(t *testing.T) {
	env := newBillingEnv()
	userId := env.addUser(t)

	_, err := env.service.CreateCheckout(context.Background(), userId, &dto.CheckoutRequest{PlanSlug: "pro"})
	require.NoError(t, err)

	require.Len(t, env.customers.customers, 1)
	for _, c := range env.customers.customers {
		assert.Equal(t, userId.String(), c.Metadata["userId"])
	}
}

func TestManageSubscriptionRequiresBillingAccount(t *testing.T) {
	env := newBillingEnv()
	userId := env.addUser(t)

	_, err := env.service.ManageSubscription(context.Background(), userId)
	assert.Error(t, err)
}

func TestManageSubscriptionOpensPortal(t *testing.T) {
	env := newBillingEnv()
	userId := env.addUser(t)
	env.subs.subs = append(env.subs.subs, &entity.Subscription{
		Id:               uuid.New(),
		UserId:           userId,
		StripeCustomerId: "cus_known",
		Status:           entity.SubscriptionStatusActive,
	})

	res, err := env.service.ManageSubscription(context.Background(), userId)
	require.NoError(t, err)
	assert.Contains(t, res.PortalURL, "cus_known")
}

func TestGetSubscriptionStatus(t *testing.T) {
	env := newBillingEnv()
	userId := env.addUser(t)

	t.Run("no record means inactive", func(t *testing.T) {
		res, err := env.service.GetSubscriptionStatus(context.Background(), userId)
		require.NoError(t, err)
		assert.False(t, res.IsActive)
	})

	subId := "sub_1"
	env.subs.subs = append(env.subs.subs, &entity.Subscription{
		Id:                   uuid.New(),
		UserId:               userId,
		PlanId:               "pro",
		Status:               entity.SubscriptionStatusTrialing,
		StripeCustomerId:     "cus_known",
		StripeSubscriptionId: &subId,
	})

	t.Run("trialing counts as active", func(t *testing.T) {
		res, err := env.service.GetSubscriptionStatus(context.Background(), userId)
		require.NoError(t, err)
		assert.True(t, res.IsActive)
		assert.True(t, res.Recurring)
		assert.Equal(t, "Pro", res.PlanName)
	})

	t.Run("past_due is not active", func(t *testing.T) {
		env.subs.subs[0].Status = entity.SubscriptionStatusPastDue
		res, err := env.service.GetSubscriptionStatus(context.Background(), userId)
		require.NoError(t, err)
		assert.False(t, res.IsActive)
		assert.Equal(t, "past_due", res.Status)
	})
}
