package memory

import (
	"context"
	"slices"
	"time"

	"bank/internal/domain"
	"bank/internal/repository/accounts_repo"
)

type accountRepository struct {
	s *Store
}

func NewAccountRepository(s *Store) accounts_repo.AccountRepository {
	return &accountRepository{s: s}
}

func (r *accountRepository) Create(_ context.Context, _ domain.Querier, account *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[account.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	for _, a := range r.s.accounts {
		if a.Number == account.Number {
			return domain.ErrAccountNumberTaken
		}
	}
	r.s.nextAccountID++
	account.ID = r.s.nextAccountID
	r.s.accounts[account.ID] = *account
	return nil
}

func (r *accountRepository) GetByID(_ context.Context, _ domain.Querier, id int64) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &a, nil
}

// GetByIDForUpdate relies on Store.WithinTx for isolation.
func (r *accountRepository) GetByIDForUpdate(ctx context.Context, q domain.Querier, id int64) (*domain.Account, error) {
	return r.GetByID(ctx, q, id)
}

func (r *accountRepository) ListByUser(_ context.Context, _ domain.Querier, userID int64) ([]domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	accounts := []domain.Account{}
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			accounts = append(accounts, a)
		}
	}
	slices.SortFunc(accounts, func(a, b domain.Account) int { return int(a.ID - b.ID) })
	return accounts, nil
}

func (r *accountRepository) CountByUser(ctx context.Context, q domain.Querier, userID int64) (int, error) {
	accounts, err := r.ListByUser(ctx, q, userID)
	return len(accounts), err
}

func (r *accountRepository) Update(_ context.Context, _ domain.Querier, account *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.accounts[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	existing.Name = account.Name
	existing.PasswordHash = account.PasswordHash
	existing.UpdatedAt = account.UpdatedAt
	r.s.accounts[account.ID] = existing
	return nil
}

func (r *accountRepository) UpdateBalance(_ context.Context, _ domain.Querier, id int64, balance int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	existing.Balance = balance
	existing.UpdatedAt = time.Now()
	r.s.accounts[id] = existing
	return nil
}

func (r *accountRepository) Delete(_ context.Context, _ domain.Querier, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(r.s.accounts, id)
	for cid, c := range r.s.cards {
		if c.AccountID == id {
			delete(r.s.cards, cid)
		}
	}
	return nil
}
