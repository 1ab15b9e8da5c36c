package memory

import (
	"context"

	"bank/internal/domain"
	"bank/internal/repository/users_repo"
)

type userRepository struct {
	s *Store
}

func NewUserRepository(s *Store) users_repo.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) Create(_ context.Context, _ domain.Querier, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(_ context.Context, _ domain.Querier, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, _ domain.Querier, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepository) Update(_ context.Context, _ domain.Querier, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	existing.Name = user.Name
	existing.PasswordHash = user.PasswordHash
	existing.UpdatedAt = user.UpdatedAt
	r.s.users[user.ID] = existing
	return nil
}

// Delete mirrors ON DELETE CASCADE: the user's accounts and cards are removed,
// account number reservations stay.
func (r *userRepository) Delete(_ context.Context, _ domain.Querier, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	for cid, c := range r.s.cards {
		if c.UserID == id {
			delete(r.s.cards, cid)
		}
	}
	for aid, a := range r.s.accounts {
		if a.UserID == id {
			delete(r.s.accounts, aid)
		}
	}
	return nil
}
