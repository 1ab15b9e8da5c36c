package memory

import (
	"context"
	"time"

	"bank/internal/domain"
	"bank/internal/repository/account_numbers_repo"
)

type accountNumberRepository struct {
	s *Store
}

func NewAccountNumberRepository(s *Store) account_numbers_repo.AccountNumberRepository {
	return &accountNumberRepository{s: s}
}

func (r *accountNumberRepository) Reserve(_ context.Context, _ domain.Querier, number string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.accountNumbers[number]; taken {
		return false, nil
	}
	r.s.accountNumbers[number] = domain.AccountNumber{Number: number, ReservedAt: time.Now()}
	return true, nil
}
