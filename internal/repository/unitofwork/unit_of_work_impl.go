package unitofwork

import (
	"context"
	"fmt"

	"legal-assist-be/internal/repository/contract"
	"legal-assist-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // active transaction, nil outside Begin/Commit
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CaseRepository() contract.CaseRepository {
	return implementation.NewCaseRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CaseMessageRepository() contract.CaseMessageRepository {
	return implementation.NewCaseMessageRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CaseSummaryRepository() contract.CaseSummaryRepository {
	return implementation.NewCaseSummaryRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CaseFileRepository() contract.CaseFileRepository {
	return implementation.NewCaseFileRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CaseEmbeddingRepository() contract.CaseEmbeddingRepository {
	return implementation.NewCaseEmbeddingRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SubscriptionRepository() contract.SubscriptionRepository {
	return implementation.NewSubscriptionRepository(u.getDB())
}
