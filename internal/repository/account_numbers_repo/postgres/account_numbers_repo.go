package postgres

import (
	"context"
	"fmt"
	"time"

	"bank/internal/domain"
	"bank/internal/repository/account_numbers_repo"
)

type pgAccountNumberRepository struct{}

func NewAccountNumberRepository() account_numbers_repo.AccountNumberRepository {
	return &pgAccountNumberRepository{}
}

func (r *pgAccountNumberRepository) Reserve(ctx context.Context, querier domain.Querier, number string) (bool, error) {
	query := `
		INSERT INTO account_numbers (number, reserved_at)
		VALUES ($1, $2)
		ON CONFLICT (number) DO NOTHING
	`
	res, err := querier.ExecContext(ctx, query, number, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to reserve account number: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}
