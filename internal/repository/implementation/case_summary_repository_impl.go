package implementation

import (
	"context"
	"errors"

	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/mapper"
	"legal-assist-be/internal/model"
	"legal-assist-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CaseSummaryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CaseMapper
}

func NewCaseSummaryRepository(db *gorm.DB) contract.CaseSummaryRepository {
	return &CaseSummaryRepositoryImpl{
		db:     db,
		mapper: mapper.NewCaseMapper(),
	}
}

func (r *CaseSummaryRepositoryImpl) Create(ctx context.Context, summary *entity.CaseSummary) error {
	m, err := r.mapper.SummaryToModel(summary)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*summary = *r.mapper.SummaryToEntity(m)
	return nil
}

func (r *CaseSummaryRepositoryImpl) FindLatestByCase(ctx context.Context, caseId uuid.UUID) (*entity.CaseSummary, error) {
	var m model.CaseSummary
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseId).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SummaryToEntity(&m), nil
}
