// Package memory keeps every repository in process memory. It backs
// REPO_BACKEND=memory and the service and HTTP tests. The querier argument of
// each repository method is ignored.
package memory

import (
	"context"
	"maps"
	"sync"

	"bank/internal/domain"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users          map[int64]domain.User
	accounts       map[int64]domain.Account
	cards          map[int64]domain.Card
	accountNumbers map[string]domain.AccountNumber
	outbox         map[string]domain.OutboxMessage
	outboxOrder    []string

	nextUserID    int64
	nextAccountID int64
	nextCardID    int64
}

func NewStore() *Store {
	return &Store{
		users:          make(map[int64]domain.User),
		accounts:       make(map[int64]domain.Account),
		cards:          make(map[int64]domain.Card),
		accountNumbers: make(map[string]domain.AccountNumber),
		outbox:         make(map[string]domain.OutboxMessage),
	}
}

type snapshot struct {
	users          map[int64]domain.User
	accounts       map[int64]domain.Account
	cards          map[int64]domain.Card
	accountNumbers map[string]domain.AccountNumber
	outbox         map[string]domain.OutboxMessage
	outboxOrder    []string
	nextUserID     int64
	nextAccountID  int64
	nextCardID     int64
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		users:          maps.Clone(s.users),
		accounts:       maps.Clone(s.accounts),
		cards:          maps.Clone(s.cards),
		accountNumbers: maps.Clone(s.accountNumbers),
		outbox:         maps.Clone(s.outbox),
		outboxOrder:    append([]string(nil), s.outboxOrder...),
		nextUserID:     s.nextUserID,
		nextAccountID:  s.nextAccountID,
		nextCardID:     s.nextCardID,
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.accounts = snap.accounts
	s.cards = snap.cards
	s.accountNumbers = snap.accountNumbers
	s.outbox = snap.outbox
	s.outboxOrder = snap.outboxOrder
	s.nextUserID = snap.nextUserID
	s.nextAccountID = snap.nextAccountID
	s.nextCardID = snap.nextCardID
}

// WithinTx serializes units of work and restores the previous state when fn
// fails or panics.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, q domain.Querier) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, nil)
}

// Ping always succeeds; it lets the store stand in for a database in readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}
