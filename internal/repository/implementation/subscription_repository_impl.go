package implementation

import (
	"context"
	"errors"
	"time"

	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/mapper"
	"legal-assist-be/internal/model"
	"legal-assist-be/internal/repository/contract"
	"legal-assist-be/internal/repository/specification"

	"gorm.io/gorm"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) contract.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

// Plan Implementation

func (r *SubscriptionRepositoryImpl) CreatePlan(ctx context.Context, plan *entity.Plan) error {
	m := r.mapper.PlanToModel(plan)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*plan = *r.mapper.PlanToEntity(m)
	return nil
}

func (r *SubscriptionRepositoryImpl) UpdatePlan(ctx context.Context, plan *entity.Plan) error {
	m := r.mapper.PlanToModel(plan)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*plan = *r.mapper.PlanToEntity(m)
	return nil
}

func (r *SubscriptionRepositoryImpl) FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.Plan, error) {
	var m model.Plan
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PlanToEntity(&m), nil
}

func (r *SubscriptionRepositoryImpl) FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.Plan, error) {
	var models []*model.Plan
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Plan, len(models))
	for i, m := range models {
		entities[i] = r.mapper.PlanToEntity(m)
	}
	return entities, nil
}

// Subscription Implementation

func (r *SubscriptionRepositoryImpl) CreateSubscription(ctx context.Context, sub *entity.Subscription) error {
	m := r.mapper.SubscriptionToModel(sub)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*sub = *r.mapper.SubscriptionToEntity(m)
	return nil
}

func (r *SubscriptionRepositoryImpl) UpdateSubscription(ctx context.Context, sub *entity.Subscription) error {
	m := r.mapper.SubscriptionToModel(sub)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*sub = *r.mapper.SubscriptionToEntity(m)
	return nil
}

func (r *SubscriptionRepositoryImpl) FindOneSubscription(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	var m model.Subscription
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SubscriptionToEntity(&m), nil
}

func (r *SubscriptionRepositoryImpl) FindAllSubscriptions(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error) {
	var models []*model.Subscription
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Subscription, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SubscriptionToEntity(m)
	}
	return entities, nil
}

func (r *SubscriptionRepositoryImpl) UpdateManySubscriptions(ctx context.Context, values map[string]interface{}, specs ...specification.Specification) (int64, error) {
	// Refresh updated_at on every matched row; gorm only does this
	// automatically for struct updates.
	if _, ok := values["updated_at"]; !ok {
		values["updated_at"] = time.Now()
	}
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Subscription{}), specs...)
	result := query.Updates(values)
	return result.RowsAffected, result.Error
}
