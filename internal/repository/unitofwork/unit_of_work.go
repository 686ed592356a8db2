package unitofwork

import (
	"context"

	"legal-assist-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	CaseRepository() contract.CaseRepository
	CaseMessageRepository() contract.CaseMessageRepository
	CaseSummaryRepository() contract.CaseSummaryRepository
	CaseFileRepository() contract.CaseFileRepository
	CaseEmbeddingRepository() contract.CaseEmbeddingRepository
	SubscriptionRepository() contract.SubscriptionRepository
}
