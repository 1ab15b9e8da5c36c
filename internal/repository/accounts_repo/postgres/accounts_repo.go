package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bank/internal/domain"
	"bank/internal/repository/accounts_repo"
	"bank/internal/repository/pgutil"
)

const accountColumns = `id, account_number, name, password_hash, balance, user_id, created_at, updated_at`

type pgAccountRepository struct{}

func NewAccountRepository() accounts_repo.AccountRepository {
	return &pgAccountRepository{}
}

func (r *pgAccountRepository) Create(ctx context.Context, querier domain.Querier, account *domain.Account) error {
	query := `
		INSERT INTO accounts (account_number, name, password_hash, balance, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := querier.QueryRowContext(ctx, query,
		account.Number,
		account.Name,
		account.PasswordHash,
		account.Balance,
		account.UserID,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		if pgutil.IsUniqueViolation(err) {
			return domain.ErrAccountNumberTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *pgAccountRepository) GetByID(ctx context.Context, querier domain.Querier, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(querier.QueryRowContext(ctx, query, id))
}

func (r *pgAccountRepository) GetByIDForUpdate(ctx context.Context, querier domain.Querier, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(querier.QueryRowContext(ctx, query, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	account := &domain.Account{}
	err := row.Scan(
		&account.ID,
		&account.Number,
		&account.Name,
		&account.PasswordHash,
		&account.Balance,
		&account.UserID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return account, nil
}

func (r *pgAccountRepository) ListByUser(ctx context.Context, querier domain.Querier, userID int64) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY id`
	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for user %d: %w", userID, err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func (r *pgAccountRepository) CountByUser(ctx context.Context, querier domain.Querier, userID int64) (int, error) {
	var count int
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts for user %d: %w", userID, err)
	}
	return count, nil
}

func (r *pgAccountRepository) Update(ctx context.Context, querier domain.Querier, account *domain.Account) error {
	query := `UPDATE accounts SET name = $1, password_hash = $2, updated_at = $3 WHERE id = $4`
	res, err := querier.ExecContext(ctx, query, account.Name, account.PasswordHash, account.UpdatedAt, account.ID)
	if err != nil {
		return fmt.Errorf("failed to update account %d: %w", account.ID, err)
	}
	return pgutil.ExpectOneRow(res, domain.ErrAccountNotFound)
}

func (r *pgAccountRepository) UpdateBalance(ctx context.Context, querier domain.Querier, id int64, balance int64) error {
	query := `UPDATE accounts SET balance = $1, updated_at = $2 WHERE id = $3`
	res, err := querier.ExecContext(ctx, query, balance, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update account balance for %d: %w", id, err)
	}
	return pgutil.ExpectOneRow(res, domain.ErrAccountNotFound)
}

// Delete removes the account and, through ON DELETE CASCADE, its cards. The
// account number reservation is kept.
func (r *pgAccountRepository) Delete(ctx context.Context, querier domain.Querier, id int64) error {
	res, err := querier.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	return pgutil.ExpectOneRow(res, domain.ErrAccountNotFound)
}
