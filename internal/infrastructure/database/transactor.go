package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"bank/internal/domain"
)

type Transactor struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTransactor(db *sql.DB, logger *zap.Logger) *Transactor {
	return &Transactor{db: db, logger: logger}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, q domain.Querier) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		t.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			t.logger.Error("Panic during transaction, rolling back", zap.Any("panic", p))
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				t.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
			}
		} else {
			if err = tx.Commit(); err != nil {
				t.logger.Error("Failed to commit transaction", zap.Error(err))
				err = fmt.Errorf("failed to commit transaction: %w", err)
			}
		}
	}()

	return fn(ctx, tx)
}
