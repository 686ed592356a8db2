// FILE: internal/service/billing_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/repository/specification"
	"legal-assist-be/internal/repository/unitofwork"
	"legal-assist-be/pkg/payments"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const plansCacheKey = "billing:active_plans"

type IBillingService interface {
	GetPlans(ctx context.Context) ([]*dto.PlanResponse, error)
	CreateCheckout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	ManageSubscription(ctx context.Context, userId uuid.UUID) (*dto.ManageSubscriptionResponse, error)
	GetSubscriptionStatus(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error)
}

type billingService struct {
	uowFactory unitofwork.RepositoryFactory
	customers  payments.CustomerAPI
	checkout   payments.CheckoutAPI
	cache      *gocache.Cache
	clientURL  string
	successURL string
	cancelURL  string
}

func NewBillingService(
	uowFactory unitofwork.RepositoryFactory,
	customers payments.CustomerAPI,
	checkout payments.CheckoutAPI,
	clientURL, successPath, cancelPath string,
) IBillingService {
	// Plans change on deploys, not at runtime; five minutes is plenty.
	c := gocache.New(5*time.Minute, 10*time.Minute)
	return &billingService{
		uowFactory: uowFactory,
		customers:  customers,
		checkout:   checkout,
		cache:      c,
		clientURL:  clientURL,
		successURL: clientURL + successPath,
		cancelURL:  clientURL + cancelPath,
	}
}

func (s *billingService) GetPlans(ctx context.Context) ([]*dto.PlanResponse, error) {
	if cached, found := s.cache.Get(plansCacheKey); found {
		return cached.([]*dto.PlanResponse), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	plans, err := uow.SubscriptionRepository().FindAllPlans(ctx,
		specification.ActivePlans{},
		specification.OrderBy{Field: "sort_order"},
	)
	if err != nil {
		return nil, err
	}

	var res []*dto.PlanResponse
	for _, p := range plans {
		res = append(res, &dto.PlanResponse{
			Id:          p.Id,
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
			AmountCents: p.AmountCents,
			Currency:    p.Currency,
			Interval:    string(p.Interval),
			CaseLimit:   p.CaseLimit,
		})
	}

	s.cache.Set(plansCacheKey, res, gocache.DefaultExpiration)
	return res, nil
}

func (s *billingService) CreateCheckout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.BySlug{Slug: req.PlanSlug})
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.IsActive {
		return nil, errors.New("plan not found")
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	customerId, err := s.resolveCustomer(ctx, uow, user)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"userId": userId.String(),
		"planId": plan.Slug,
	}

	url, err := s.checkout.NewCheckoutSession(ctx, payments.CheckoutParams{
		CustomerID: customerId,
		Item: payments.CheckoutItem{
			Name:        plan.Name,
			AmountCents: plan.AmountCents,
			Currency:    plan.Currency,
			Recurring:   plan.Interval == entity.BillingIntervalMonthly,
		},
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
		Metadata:   metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start checkout: %w", err)
	}

	return &dto.CheckoutResponse{CheckoutURL: url}, nil
}

// resolveCustomer finds the provider customer for a user, preferring the id
// already reconciled onto the subscription record, then the provider's own
// email index, then creating a fresh customer tagged with our userId.
func (s *billingService) resolveCustomer(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User) (string, error) {
	sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx,
		specification.OwnedBy{UserID: user.Id})
	if err != nil {
		return "", err
	}
	if sub != nil && sub.StripeCustomerId != "" {
		return sub.StripeCustomerId, nil
	}

	existing, err := s.customers.FindByEmail(ctx, user.Email)
	if err != nil {
		return "", err
	}
	if existing != nil && !existing.Deleted {
		return existing.ID, nil
	}

	created, err := s.customers.Create(ctx, user.Email, map[string]string{
		"userId": user.Id.String(),
	})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (s *billingService) ManageSubscription(ctx context.Context, userId uuid.UUID) (*dto.ManageSubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx,
		specification.OwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.StripeCustomerId == "" {
		return nil, errors.New("no billing account for this user")
	}

	url, err := s.checkout.NewPortalSession(ctx, sub.StripeCustomerId, s.clientURL+"/billing")
	if err != nil {
		return nil, fmt.Errorf("failed to open billing portal: %w", err)
	}

	return &dto.ManageSubscriptionResponse{PortalURL: url}, nil
}

func (s *billingService) GetSubscriptionStatus(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx,
		specification.OwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &dto.SubscriptionStatusResponse{IsActive: false}, nil
	}

	res := &dto.SubscriptionStatusResponse{
		PlanSlug:  sub.PlanId,
		Status:    string(sub.Status),
		IsActive:  sub.Status == entity.SubscriptionStatusActive || sub.Status == entity.SubscriptionStatusTrialing,
		Recurring: sub.IsRecurring(),
		UpdatedAt: sub.UpdatedAt,
	}

	if sub.PlanId != "" {
		plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.BySlug{Slug: sub.PlanId})
		if err == nil && plan != nil {
			res.PlanName = plan.Name
		}
	}

	return res, nil
}
