package outbox_repo

import (
	"context"

	"bank/internal/domain"
)

type OutboxRepository interface {
	Create(ctx context.Context, querier domain.Querier, msg *domain.OutboxMessage) error
	// GetPending returns up to limit PENDING messages, oldest first. Inside a
	// transaction the rows stay locked and are skipped by concurrent pollers.
	GetPending(ctx context.Context, querier domain.Querier, limit int) ([]domain.OutboxMessage, error)
	MarkSent(ctx context.Context, querier domain.Querier, id string) error
}
