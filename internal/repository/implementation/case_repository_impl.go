package implementation

import (
	"context"
	"errors"

	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/mapper"
	"legal-assist-be/internal/model"
	"legal-assist-be/internal/repository/contract"
	"legal-assist-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CaseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CaseMapper
}

func NewCaseRepository(db *gorm.DB) contract.CaseRepository {
	return &CaseRepositoryImpl{
		db:     db,
		mapper: mapper.NewCaseMapper(),
	}
}

func (r *CaseRepositoryImpl) Create(ctx context.Context, c *entity.Case) error {
	m := r.mapper.ToModel(c)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*c = *r.mapper.ToEntity(m)
	return nil
}

func (r *CaseRepositoryImpl) Update(ctx context.Context, c *entity.Case) error {
	m := r.mapper.ToModel(c)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*c = *r.mapper.ToEntity(m)
	return nil
}

func (r *CaseRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Case{}, id).Error
}

func (r *CaseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Case, error) {
	var m model.Case
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *CaseRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Case, error) {
	var models []*model.Case
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Case, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *CaseRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Case{}), specs...)
	err := query.Count(&count).Error
	return count, err
}
