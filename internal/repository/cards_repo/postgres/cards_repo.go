package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bank/internal/domain"
	"bank/internal/repository/cards_repo"
	"bank/internal/repository/pgutil"
)

const cardColumns = `id, card_number, user_id, account_id, state, created_at, updated_at`

type pgCardRepository struct{}

func NewCardRepository() cards_repo.CardRepository {
	return &pgCardRepository{}
}

func (r *pgCardRepository) Create(ctx context.Context, querier domain.Querier, card *domain.Card) error {
	query := `
		INSERT INTO cards (card_number, user_id, account_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := querier.QueryRowContext(ctx, query,
		card.Number, card.UserID, card.AccountID, card.State, card.CreatedAt, card.UpdatedAt,
	).Scan(&card.ID)
	if err != nil {
		if pgutil.IsUniqueViolation(err) {
			return domain.ErrCardNumberTaken
		}
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

func (r *pgCardRepository) GetByID(ctx context.Context, querier domain.Querier, id int64) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	return scanCard(querier.QueryRowContext(ctx, query, id))
}

func (r *pgCardRepository) GetByIDForUpdate(ctx context.Context, querier domain.Querier, id int64) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1 FOR UPDATE`
	return scanCard(querier.QueryRowContext(ctx, query, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	card := &domain.Card{}
	err := row.Scan(&card.ID, &card.Number, &card.UserID, &card.AccountID, &card.State, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to scan card: %w", err)
	}
	return card, nil
}

func (r *pgCardRepository) ExistsByNumber(ctx context.Context, querier domain.Querier, number string) (bool, error) {
	var exists bool
	err := querier.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM cards WHERE card_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check card number: %w", err)
	}
	return exists, nil
}

func (r *pgCardRepository) ListByUser(ctx context.Context, querier domain.Querier, userID int64) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE user_id = $1 ORDER BY id`
	return r.list(ctx, querier, query, userID)
}

func (r *pgCardRepository) ListByAccount(ctx context.Context, querier domain.Querier, accountID int64) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE account_id = $1 ORDER BY id`
	return r.list(ctx, querier, query, accountID)
}

func (r *pgCardRepository) list(ctx context.Context, querier domain.Querier, query string, arg int64) ([]domain.Card, error) {
	rows, err := querier.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := []domain.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}
	return cards, nil
}

func (r *pgCardRepository) CountByUser(ctx context.Context, querier domain.Querier, userID int64) (int, error) {
	var count int
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cards for user %d: %w", userID, err)
	}
	return count, nil
}

func (r *pgCardRepository) UpdateState(ctx context.Context, querier domain.Querier, id int64, state domain.CardState) error {
	res, err := querier.ExecContext(ctx, `UPDATE cards SET state = $1, updated_at = $2 WHERE id = $3`, state, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update card state for %d: %w", id, err)
	}
	return pgutil.ExpectOneRow(res, domain.ErrCardNotFound)
}

func (r *pgCardRepository) Delete(ctx context.Context, querier domain.Querier, id int64) error {
	res, err := querier.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %d: %w", id, err)
	}
	return pgutil.ExpectOneRow(res, domain.ErrCardNotFound)
}
