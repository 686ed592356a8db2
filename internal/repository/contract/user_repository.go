package contract

import (
	"context"

	"legal-assist-be/internal/entity"
	"legal-assist-be/internal/repository/specification"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Provider links (OAuth accounts)
	CreateProvider(ctx context.Context, provider *entity.UserProvider) error
	FindOneProvider(ctx context.Context, specs ...specification.Specification) (*entity.UserProvider, error)
}
