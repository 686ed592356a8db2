package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
)

// Customer is the subset of the provider's customer object the billing
// layer cares about.
type Customer struct {
	ID       string
	Email    string
	Deleted  bool
	Metadata map[string]string
}

// CustomerAPI looks up and creates provider customers. The reconciler
// resolves customers through this interface so tests can fake it.
type CustomerAPI interface {
	Get(ctx context.Context, id string) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	Create(ctx context.Context, email string, metadata map[string]string) (*Customer, error)
}

// CheckoutItem describes the single line item of a checkout session.
// Prices are created inline so plans never need provider-side price objects.
type CheckoutItem struct {
	Name        string
	AmountCents int64
	Currency    string
	Recurring   bool
}

type CheckoutParams struct {
	CustomerID string
	Item       CheckoutItem
	SuccessURL string
	CancelURL  string
	// Metadata is attached to the session and, for subscriptions, to the
	// created subscription. Must carry userId and planId.
	Metadata map[string]string
}

// CheckoutAPI creates hosted checkout and billing portal sessions.
type CheckoutAPI interface {
	NewCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)
	NewPortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// StripeClient implements CustomerAPI and CheckoutAPI against the live
// Stripe API.
type StripeClient struct{}

var (
	_ CustomerAPI = &StripeClient{}
	_ CheckoutAPI = &StripeClient{}
)

func NewStripeClient(secretKey string) *StripeClient {
	stripe.Key = secretKey
	return &StripeClient{}
}

func toCustomer(c *stripe.Customer) *Customer {
	return &Customer{
		ID:       c.ID,
		Email:    c.Email,
		Deleted:  c.Deleted,
		Metadata: c.Metadata,
	}
}

func (s *StripeClient) Get(ctx context.Context, id string) (*Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	c, err := customer.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer %s: %w", id, err)
	}
	return toCustomer(c), nil
}

func (s *StripeClient) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := customer.List(params)
	for iter.Next() {
		return toCustomer(iter.Customer()), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return nil, nil
}

func (s *StripeClient) Create(ctx context.Context, email string, metadata map[string]string) (*Customer, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Metadata: metadata,
	}
	params.Context = ctx

	c, err := customer.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return toCustomer(c), nil
}

func (s *StripeClient) NewCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:   stripe.String(p.Item.Currency),
		UnitAmount: stripe.Int64(p.Item.AmountCents),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(p.Item.Name),
		},
	}

	mode := stripe.CheckoutSessionModePayment
	if p.Item.Recurring {
		mode = stripe.CheckoutSessionModeSubscription
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(mode)),
		Customer:   stripe.String(p.CustomerID),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: priceData,
				Quantity:  stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	if p.Item.Recurring {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: p.Metadata,
		}
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *StripeClient) NewPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return sess.URL, nil
}
