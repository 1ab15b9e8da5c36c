package cards_repo

import (
	"context"

	"bank/internal/domain"
)

type CardRepository interface {
	Create(ctx context.Context, querier domain.Querier, card *domain.Card) error
	GetByID(ctx context.Context, querier domain.Querier, id int64) (*domain.Card, error)
	GetByIDForUpdate(ctx context.Context, querier domain.Querier, id int64) (*domain.Card, error)
	ExistsByNumber(ctx context.Context, querier domain.Querier, number string) (bool, error)
	ListByUser(ctx context.Context, querier domain.Querier, userID int64) ([]domain.Card, error)
	ListByAccount(ctx context.Context, querier domain.Querier, accountID int64) ([]domain.Card, error)
	CountByUser(ctx context.Context, querier domain.Querier, userID int64) (int, error)
	UpdateState(ctx context.Context, querier domain.Querier, id int64, state domain.CardState) error
	Delete(ctx context.Context, querier domain.Querier, id int64) error
}
