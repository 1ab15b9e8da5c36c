package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bank/internal/domain"
	"bank/internal/repository/pgutil"
	"bank/internal/repository/users_repo"
)

type pgUserRepository struct{}

func NewUserRepository() users_repo.UserRepository {
	return &pgUserRepository{}
}

func (r *pgUserRepository) Create(ctx context.Context, querier domain.Querier, user *domain.User) error {
	query := `
		INSERT INTO users (email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := querier.QueryRowContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if pgutil.IsUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *pgUserRepository) GetByID(ctx context.Context, querier domain.Querier, id int64) (*domain.User, error) {
	query := `SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE id = $1`
	return r.scanOne(querier.QueryRowContext(ctx, query, id))
}

func (r *pgUserRepository) GetByEmail(ctx context.Context, querier domain.Querier, email string) (*domain.User, error) {
	query := `SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE email = $1`
	return r.scanOne(querier.QueryRowContext(ctx, query, email))
}

func (r *pgUserRepository) scanOne(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) Update(ctx context.Context, querier domain.Querier, user *domain.User) error {
	query := `UPDATE users SET name = $1, password_hash = $2, updated_at = $3 WHERE id = $4`
	res, err := querier.ExecContext(ctx, query, user.Name, user.PasswordHash, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	return pgutil.ExpectOneRow(res, domain.ErrUserNotFound)
}

// Delete removes the user; accounts and cards go with it through ON DELETE CASCADE.
func (r *pgUserRepository) Delete(ctx context.Context, querier domain.Querier, id int64) error {
	res, err := querier.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return pgutil.ExpectOneRow(res, domain.ErrUserNotFound)
}
