package contract

import (
	"context"

	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/repository/specification"
)

type SubscriptionRepository interface {
	// Plans
	CreatePlan(ctx context.Context, plan *entity.Plan) error
	UpdatePlan(ctx context.Context, plan *entity.Plan) error
	FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.Plan, error)
	FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.Plan, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, sub *entity.Subscription) error
	UpdateSubscription(ctx context.Context, sub *entity.Subscription) error
	FindOneSubscription(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error)
	FindAllSubscriptions(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error)

	// UpdateManySubscriptions applies the given column values to every row
	// matching the specifications and returns the number of rows touched.
	// updated_at is refreshed on every matched row.
	UpdateManySubscriptions(ctx context.Context, values map[string]interface{}, specs ...specification.Specification) (int64, error)
}
