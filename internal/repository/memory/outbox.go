package memory

import (
	"context"
	"fmt"
	"time"

	"bank/internal/domain"
	"bank/internal/repository/outbox_repo"
)

type outboxRepository struct {
	s *Store
}

func NewOutboxRepository(s *Store) outbox_repo.OutboxRepository {
	return &outboxRepository{s: s}
}

func (r *outboxRepository) Create(_ context.Context, _ domain.Querier, msg *domain.OutboxMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.outbox[msg.ID]; ok {
		return fmt.Errorf("outbox message %s already exists", msg.ID)
	}
	r.s.outbox[msg.ID] = *msg
	r.s.outboxOrder = append(r.s.outboxOrder, msg.ID)
	return nil
}

func (r *outboxRepository) GetPending(_ context.Context, _ domain.Querier, limit int) ([]domain.OutboxMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var messages []domain.OutboxMessage
	for _, id := range r.s.outboxOrder {
		if len(messages) >= limit {
			break
		}
		if msg := r.s.outbox[id]; msg.Status == domain.OutboxStatusPending {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (r *outboxRepository) MarkSent(_ context.Context, _ domain.Querier, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	msg, ok := r.s.outbox[id]
	if !ok {
		return fmt.Errorf("outbox message %s not found", id)
	}
	now := time.Now()
	msg.Status = domain.OutboxStatusSent
	msg.SentAt = &now
	r.s.outbox[id] = msg
	return nil
}
