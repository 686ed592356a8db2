package unitofwork

import "context"

// RepositoryFactory opens transactional units of work.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
