package accounts_repo

import (
	"context"

	"bank/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, querier domain.Querier, account *domain.Account) error
	GetByID(ctx context.Context, querier domain.Querier, id int64) (*domain.Account, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, querier domain.Querier, id int64) (*domain.Account, error)
	ListByUser(ctx context.Context, querier domain.Querier, userID int64) ([]domain.Account, error)
	CountByUser(ctx context.Context, querier domain.Querier, userID int64) (int, error)
	Update(ctx context.Context, querier domain.Querier, account *domain.Account) error
	UpdateBalance(ctx context.Context, querier domain.Querier, id int64, balance int64) error
	Delete(ctx context.Context, querier domain.Querier, id int64) error
}
