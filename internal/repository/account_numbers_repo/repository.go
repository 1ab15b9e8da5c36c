package account_numbers_repo

import (
	"context"

	"bank/internal/domain"
)

type AccountNumberRepository interface {
	// Reserve records number as issued. It reports false, without error, when
	// the number was already reserved.
	Reserve(ctx context.Context, querier domain.Querier, number string) (bool, error)
}
