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

type CaseFileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CaseMapper
}

func NewCaseFileRepository(db *gorm.DB) contract.CaseFileRepository {
	return &CaseFileRepositoryImpl{
		db:     db,
		mapper: mapper.NewCaseMapper(),
	}
}

func (r *CaseFileRepositoryImpl) Create(ctx context.Context, file *entity.CaseFile) error {
	m := r.mapper.FileToModel(file)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*file = *r.mapper.FileToEntity(m)
	return nil
}

func (r *CaseFileRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CaseFile{}, id).Error
}

func (r *CaseFileRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CaseFile, error) {
	var m model.CaseFile
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.FileToEntity(&m), nil
}

func (r *CaseFileRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CaseFile, error) {
	var models []*model.CaseFile
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.CaseFile, len(models))
	for i, m := range models {
		entities[i] = r.mapper.FileToEntity(m)
	}
	return entities, nil
}
