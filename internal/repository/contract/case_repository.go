package contract

import (
	"context"

	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type CaseRepository interface {
	Create(ctx context.Context, c *entity.Case) error
	Update(ctx context.Context, c *entity.Case) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Case, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Case, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type CaseMessageRepository interface {
	Create(ctx context.Context, msg *entity.CaseMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CaseMessage, error)
	CountByCase(ctx context.Context, caseId uuid.UUID) (int64, error)
}

type CaseSummaryRepository interface {
	Create(ctx context.Context, summary *entity.CaseSummary) error
	FindLatestByCase(ctx context.Context, caseId uuid.UUID) (*entity.CaseSummary, error)
}

type CaseFileRepository interface {
	Create(ctx context.Context, file *entity.CaseFile) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CaseFile, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CaseFile, error)
}

type CaseEmbeddingRepository interface {
	// Upsert replaces the case's stored vector (one row per case).
	Upsert(ctx context.Context, caseId uuid.UUID, document string, vector pgvector.Vector) error
	// FindNearest returns case ids ordered by cosine distance to the query
	// vector, excluding the case itself, restricted to the owner's cases.
	FindNearest(ctx context.Context, userId, excludeCaseId uuid.UUID, vector pgvector.Vector, limit int) ([]uuid.UUID, error)
}
