package memory

import (
	"context"
	"slices"
	"time"

	"bank/internal/domain"
	"bank/internal/repository/cards_repo"
)

type cardRepository struct {
	s *Store
}

func NewCardRepository(s *Store) cards_repo.CardRepository {
	return &cardRepository{s: s}
}

func (r *cardRepository) Create(_ context.Context, _ domain.Querier, card *domain.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[card.AccountID]; !ok {
		return domain.ErrAccountNotFound
	}
	for _, c := range r.s.cards {
		if c.Number == card.Number {
			return domain.ErrCardNumberTaken
		}
	}
	r.s.nextCardID++
	card.ID = r.s.nextCardID
	r.s.cards[card.ID] = *card
	return nil
}

func (r *cardRepository) GetByID(_ context.Context, _ domain.Querier, id int64) (*domain.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.cards[id]
	if !ok {
		return nil, domain.ErrCardNotFound
	}
	return &c, nil
}

func (r *cardRepository) GetByIDForUpdate(ctx context.Context, q domain.Querier, id int64) (*domain.Card, error) {
	return r.GetByID(ctx, q, id)
}

func (r *cardRepository) ExistsByNumber(_ context.Context, _ domain.Querier, number string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.cards {
		if c.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *cardRepository) ListByUser(_ context.Context, _ domain.Querier, userID int64) ([]domain.Card, error) {
	return r.filter(func(c domain.Card) bool { return c.UserID == userID }), nil
}

func (r *cardRepository) ListByAccount(_ context.Context, _ domain.Querier, accountID int64) ([]domain.Card, error) {
	return r.filter(func(c domain.Card) bool { return c.AccountID == accountID }), nil
}

func (r *cardRepository) filter(keep func(domain.Card) bool) []domain.Card {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cards := []domain.Card{}
	for _, c := range r.s.cards {
		if keep(c) {
			cards = append(cards, c)
		}
	}
	slices.SortFunc(cards, func(a, b domain.Card) int { return int(a.ID - b.ID) })
	return cards
}

func (r *cardRepository) CountByUser(ctx context.Context, q domain.Querier, userID int64) (int, error) {
	cards, err := r.ListByUser(ctx, q, userID)
	return len(cards), err
}

func (r *cardRepository) UpdateState(_ context.Context, _ domain.Querier, id int64, state domain.CardState) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.cards[id]
	if !ok {
		return domain.ErrCardNotFound
	}
	c.State = state
	c.UpdatedAt = time.Now()
	r.s.cards[id] = c
	return nil
}

func (r *cardRepository) Delete(_ context.Context, _ domain.Querier, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cards[id]; !ok {
		return domain.ErrCardNotFound
	}
	delete(r.s.cards, id)
	return nil
}
