package cards

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"bank/internal/credential"
	"bank/internal/domain"
	"bank/internal/repository/cards_repo"
	"bank/internal/repository/memory"
)

type fixture struct {
	svc     CardService
	store   *memory.Store
	owner   *domain.User
	other   *domain.User
	account *domain.Account
	card    *domain.Card
}

func newFixture(t *testing.T, balance int64) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	hasher := credential.NewBcrypt(bcrypt.MinCost)

	users := memory.NewUserRepository(store)
	owner := &domain.User{Email: "a@x.com", Name: "alice"}
	other := &domain.User{Email: "b@x.com", Name: "bob"}
	require.NoError(t, users.Create(ctx, nil, owner))
	require.NoError(t, users.Create(ctx, nil, other))

	hash, err := hasher.Hash("acc-pw")
	require.NoError(t, err)
	account := &domain.Account{Number: "5555110000001", Name: "main", PasswordHash: hash, Balance: balance, UserID: owner.ID}
	require.NoError(t, memory.NewAccountRepository(store).Create(ctx, nil, account))

	card := &domain.Card{Number: "1234567812345678", UserID: owner.ID, AccountID: account.ID, State: domain.CardStateDisabled}
	require.NoError(t, memory.NewCardRepository(store).Create(ctx, nil, card))

	svc := NewCardService(
		nil,
		store,
		memory.NewCardRepository(store),
		memory.NewAccountRepository(store),
		memory.NewOutboxRepository(store),
		hasher,
		"bank_events",
		zap.NewNop(),
	)
	return &fixture{svc: svc, store: store, owner: owner, other: other, account: account, card: card}
}

func (f *fixture) pendingEvents(t *testing.T) []string {
	t.Helper()
	msgs, err := memory.NewOutboxRepository(f.store).GetPending(context.Background(), nil, 100)
	require.NoError(t, err)
	var types []string
	for _, m := range msgs {
		types = append(types, m.MessageType)
	}
	return types
}

func TestScenario(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.svc.Enable(ctx, f.owner.ID, f.card.ID)
	require.NoError(t, err)

	res, err := f.svc.Deposit(ctx, f.owner.ID, f.card.ID, 100000)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, int64(100000), res.Balance)

	res, err = f.svc.Withdraw(ctx, f.owner.ID, f.card.ID, 50000, "acc-pw")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, int64(50000), res.Balance)
	require.Contains(t, res.Message, "Withdrawing 50000")

	res, err = f.svc.Withdraw(ctx, f.owner.ID, f.card.ID, 100000, "acc-pw")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, int64(50000), res.Balance)
	require.Equal(t, "FAILED: Insufficient balance for withdrawal.", res.Message)

	balance, err := f.svc.Balance(ctx, f.owner.ID, f.card.ID)
	require.NoError(t, err)
	require.Equal(t, int64(50000), balance)

	require.Equal(t, []string{"card.enabled", "card.deposit", "card.withdrawal"}, f.pendingEvents(t))
}

func TestDisabledCardNeverMutates(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	res, err := f.svc.Deposit(ctx, f.owner.ID, f.card.ID, 10)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Cannot deposit. Card is blocked.", res.Message)

	res, err = f.svc.Withdraw(ctx, f.owner.ID, f.card.ID, 10, "acc-pw")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Cannot withdraw. Card is blocked.", res.Message)

	balance, err := f.svc.Balance(ctx, f.owner.ID, f.card.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)
	require.Empty(t, f.pendingEvents(t))
}

func TestEnableDisableTwice(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.svc.Disable(ctx, f.owner.ID, f.card.ID)
	require.ErrorIs(t, err, domain.ErrCardAlreadyDisabled)

	card, err := f.svc.Enable(ctx, f.owner.ID, f.card.ID)
	require.NoError(t, err)
	require.Equal(t, domain.CardStateEnabled, card.State)

	_, err = f.svc.Enable(ctx, f.owner.ID, f.card.ID)
	require.ErrorIs(t, err, domain.ErrCardAlreadyEnabled)

	card, err = f.svc.Disable(ctx, f.owner.ID, f.card.ID)
	require.NoError(t, err)
	require.Equal(t, domain.CardStateDisabled, card.State)

	stored, err := f.svc.Get(ctx, f.owner.ID, f.card.ID)
	require.NoError(t, err)
	require.Equal(t, domain.CardStateDisabled, stored.State)
}

func TestWithdrawChecks(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	_, err := f.svc.Enable(ctx, f.owner.ID, f.card.ID)
	require.NoError(t, err)

	_, err = f.svc.Withdraw(ctx, f.owner.ID, f.card.ID, 10, "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidAccountPassword)

	var vErr *domain.ValidationError
	_, err = f.svc.Withdraw(ctx, f.owner.ID, f.card.ID, -5, "acc-pw")
	require.ErrorAs(t, err, &vErr)
	_, err = f.svc.Deposit(ctx, f.owner.ID, f.card.ID, 0)
	require.ErrorAs(t, err, &vErr)

	_, err = f.svc.Withdraw(ctx, f.owner.ID, f.card.ID+99, 10, "acc-pw")
	require.ErrorIs(t, err, domain.ErrCardNotFound)

	balance, err := f.svc.Balance(ctx, f.owner.ID, f.card.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)
}

func TestCardOwnership(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, f.other.ID, f.card.ID)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = f.svc.Enable(ctx, f.other.ID, f.card.ID)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = f.svc.Disable(ctx, f.other.ID, f.card.ID)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = f.svc.Withdraw(ctx, f.other.ID, f.card.ID, 1, "acc-pw")
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = f.svc.Deposit(ctx, f.other.ID, f.card.ID, 1)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = f.svc.Balance(ctx, f.other.ID, f.card.ID)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	cards, err := f.svc.List(ctx, f.other.ID)
	require.NoError(t, err)
	require.Empty(t, cards)

	cards, err = f.svc.List(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()
	_, err := f.svc.Enable(ctx, f.owner.ID, f.card.ID)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.Withdraw(ctx, f.owner.ID, f.card.ID, 100, "acc-pw")
			if err != nil || !res.Success {
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 10, succeeded)
	balance, err := f.svc.Balance(ctx, f.owner.ID, f.card.ID)
	require.NoError(t, err)
	require.Zero(t, balance)
}

type lockingCards struct {
	cards_repo.CardRepository
	mu     sync.Mutex
	locked []int64
}

func (l *lockingCards) GetByIDForUpdate(ctx context.Context, q domain.Querier, id int64) (*domain.Card, error) {
	l.mu.Lock()
	l.locked = append(l.locked, id)
	l.mu.Unlock()
	return l.CardRepository.GetByIDForUpdate(ctx, q, id)
}

func TestMovesLockCardRow(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	cardsRepo := &lockingCards{CardRepository: memory.NewCardRepository(f.store)}
	svc := NewCardService(
		nil,
		f.store,
		cardsRepo,
		memory.NewAccountRepository(f.store),
		memory.NewOutboxRepository(f.store),
		credential.NewBcrypt(bcrypt.MinCost),
		"bank_events",
		zap.NewNop(),
	)

	_, err := svc.Enable(ctx, f.owner.ID, f.card.ID)
	require.NoError(t, err)
	_, err = svc.Deposit(ctx, f.owner.ID, f.card.ID, 10)
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, f.owner.ID, f.card.ID, 10, "acc-pw")
	require.NoError(t, err)

	require.Equal(t, []int64{f.card.ID, f.card.ID, f.card.ID}, cardsRepo.locked)
}
