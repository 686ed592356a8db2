package implementation

import (
	"context"

	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/mapper"
	"legal-assist-be/internal/model"
	"legal-assist-be/internal/repository/contract"
	"legal-assist-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CaseMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CaseMapper
}

func NewCaseMessageRepository(db *gorm.DB) contract.CaseMessageRepository {
	return &CaseMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewCaseMapper(),
	}
}

func (r *CaseMessageRepositoryImpl) Create(ctx context.Context, msg *entity.CaseMessage) error {
	m := r.mapper.MessageToModel(msg)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*msg = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *CaseMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CaseMessage, error) {
	var models []*model.CaseMessage
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.CaseMessage, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MessageToEntity(m)
	}
	return entities, nil
}

func (r *CaseMessageRepositoryImpl) CountByCase(ctx context.Context, caseId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CaseMessage{}).
		Where("case_id = ?", caseId).
		Count(&count).Error
	return count, err
}
