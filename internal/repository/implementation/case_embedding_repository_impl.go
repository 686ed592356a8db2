package implementation

import (
	"context"

	"legal-assist-be/internal/model"
	"legal-assist-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CaseEmbeddingRepositoryImpl struct {
	db *gorm.DB
}

func NewCaseEmbeddingRepository(db *gorm.DB) contract.CaseEmbeddingRepository {
	return &CaseEmbeddingRepositoryImpl{db: db}
}

func (r *CaseEmbeddingRepositoryImpl) Upsert(ctx context.Context, caseId uuid.UUID, document string, vector pgvector.Vector) error {
	m := &model.CaseEmbedding{
		Id:             uuid.New(),
		CaseId:         caseId,
		Document:       document,
		EmbeddingValue: vector,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "case_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "embedding_value", "updated_at"}),
		}).
		Create(m).Error
}

func (r *CaseEmbeddingRepositoryImpl) FindNearest(ctx context.Context, userId, excludeCaseId uuid.UUID, vector pgvector.Vector, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("case_embeddings").
		Select("case_embeddings.case_id").
		Joins("JOIN cases ON cases.id = case_embeddings.case_id").
		Where("cases.user_id = ? AND cases.deleted_at IS NULL", userId).
		Where("case_embeddings.case_id != ?", excludeCaseId).
		Order(clause.Expr{SQL: "case_embeddings.embedding_value <=> ?", Vars: []interface{}{vector}}).
		Limit(limit).
		Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
