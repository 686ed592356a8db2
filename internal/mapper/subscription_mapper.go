package mapper

import (
	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/model"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) PlanToEntity(p *model.Plan) *entity.Plan {
	if p == nil {
		return nil
	}
	return &entity.Plan{
		Id:          p.Id,
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Interval:    entity.BillingInterval(p.Interval),
		CaseLimit:   p.CaseLimit,
		IsActive:    p.IsActive,
		SortOrder:   p.SortOrder,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (m *SubscriptionMapper) PlanToModel(p *entity.Plan) *model.Plan {
	if p == nil {
		return nil
	}
	return &model.Plan{
		Id:          p.Id,
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Interval:    string(p.Interval),
		CaseLimit:   p.CaseLimit,
		IsActive:    p.IsActive,
		SortOrder:   p.SortOrder,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (m *SubscriptionMapper) SubscriptionToEntity(s *model.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}
	return &entity.Subscription{
		Id:                   s.Id,
		UserId:               s.UserId,
		PlanId:               s.PlanId,
		Status:               entity.SubscriptionStatus(s.Status),
		StripeCustomerId:     s.StripeCustomerId,
		StripeSubscriptionId: s.StripeSubscriptionId,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) SubscriptionToModel(s *entity.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}
	return &model.Subscription{
		Id:                   s.Id,
		UserId:               s.UserId,
		PlanId:               s.PlanId,
		Status:               string(s.Status),
		StripeCustomerId:     s.StripeCustomerId,
		StripeSubscriptionId: s.StripeSubscriptionId,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}
