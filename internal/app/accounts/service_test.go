package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"bank/internal/allocator"
	"bank/internal/credential"
	"bank/internal/domain"
	"bank/internal/repository/memory"
)

type fixture struct {
	svc   AccountService
	store *memory.Store
	alice *domain.User
	bob   *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	alloc, err := allocator.New("555511", 7, 10, memory.NewAccountNumberRepository(store), zap.NewNop())
	require.NoError(t, err)

	svc := NewAccountService(
		nil,
		store,
		memory.NewAccountRepository(store),
		memory.NewCardRepository(store),
		memory.NewOutboxRepository(store),
		alloc,
		credential.NewBcrypt(bcrypt.MinCost),
		"bank_events",
		zap.NewNop(),
	)

	users := memory.NewUserRepository(store)
	alice := &domain.User{Email: "alice@x.com", Name: "alice"}
	bob := &domain.User{Email: "bob@x.com", Name: "bob"}
	require.NoError(t, users.Create(context.Background(), nil, alice))
	require.NoError(t, users.Create(context.Background(), nil, bob))

	return &fixture{svc: svc, store: store, alice: alice, bob: bob}
}

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	account, err := f.svc.Create(ctx, f.alice.ID, CreateInput{Name: "main", Password: "secret"})
	require.NoError(t, err)
	require.Len(t, account.Number, 13)
	require.Equal(t, "555511", account.Number[:6])
	require.Zero(t, account.Balance)
	require.Equal(t, f.alice.ID, account.UserID)

	pending, err := memory.NewOutboxRepository(f.store).GetPending(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, string(domain.EventAccountCreated), pending[0].MessageType)

	var vErr *domain.ValidationError
	_, err = f.svc.Create(ctx, f.alice.ID, CreateInput{Password: "secret"})
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "Name is required.", vErr.Message)
	_, err = f.svc.Create(ctx, f.alice.ID, CreateInput{Name: "main"})
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "Password is required.", vErr.Message)
}

func TestAccountNumbersUniqueAfterDeletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		account, err := f.svc.Create(ctx, f.alice.ID, CreateInput{Name: "acc", Password: "pw"})
		require.NoError(t, err)
		require.False(t, seen[account.Number])
		seen[account.Number] = true
		require.NoError(t, f.svc.Delete(ctx, f.alice.ID, account.ID))
	}

	accounts, err := f.svc.List(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Empty(t, accounts)
}

func TestAccountOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	account, err := f.svc.Create(ctx, f.alice.ID, CreateInput{Name: "main", Password: "pw"})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.bob.ID, account.ID)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = f.svc.Update(ctx, f.bob.ID, account.ID, UpdateInput{Name: "mine"})
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	require.ErrorIs(t, f.svc.Delete(ctx, f.bob.ID, account.ID), domain.ErrPermissionDenied)
	_, err = f.svc.ListCards(ctx, f.bob.ID, account.ID)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = f.svc.RegisterCard(ctx, f.bob.ID, account.ID, "1234567812345678")
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = f.svc.Get(ctx, f.bob.ID, account.ID+100)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	accounts, err := f.svc.List(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Empty(t, accounts)
}

func TestUpdateAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	account, err := f.svc.Create(ctx, f.alice.ID, CreateInput{Name: "main", Password: "pw"})
	require.NoError(t, err)

	detail, err := f.svc.Update(ctx, f.alice.ID, account.ID, UpdateInput{Name: "savings"})
	require.NoError(t, err)
	require.Equal(t, "savings", detail.Account.Name)

	var vErr *domain.ValidationError
	_, err = f.svc.Update(ctx, f.alice.ID, account.ID, UpdateInput{NewPassword: "new"})
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "Previous password is required to change password", vErr.Message)

	_, err = f.svc.Update(ctx, f.alice.ID, account.ID, UpdateInput{PreviousPassword: "bad", NewPassword: "new"})
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "Incorrect previous password", vErr.Message)

	_, err = f.svc.Update(ctx, f.alice.ID, account.ID, UpdateInput{PreviousPassword: "pw", NewPassword: "new"})
	require.NoError(t, err)

	stored, err := memory.NewAccountRepository(f.store).GetByID(ctx, nil, account.ID)
	require.NoError(t, err)
	require.True(t, credential.NewBcrypt(bcrypt.MinCost).Verify(stored.PasswordHash, "new"))
}

func TestRegisterCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	account, err := f.svc.Create(ctx, f.alice.ID, CreateInput{Name: "main", Password: "pw"})
	require.NoError(t, err)

	card, err := f.svc.RegisterCard(ctx, f.alice.ID, account.ID, "1234567812345678")
	require.NoError(t, err)
	require.Equal(t, domain.CardStateDisabled, card.State)
	require.Equal(t, f.alice.ID, card.UserID)
	require.Equal(t, account.ID, card.AccountID)

	var vErr *domain.ValidationError
	_, err = f.svc.RegisterCard(ctx, f.alice.ID, account.ID, "1234567812345678")
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "A card with number '1234567812345678' is already registered.", vErr.Message)
	require.ErrorIs(t, err, domain.ErrCardNumberTaken)

	_, err = f.svc.RegisterCard(ctx, f.alice.ID, account.ID, "")
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "Card number is required.", vErr.Message)

	_, err = f.svc.RegisterCard(ctx, f.alice.ID, account.ID, "12345")
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "Card number should be 16 digits.", vErr.Message)

	_, err = f.svc.RegisterCard(ctx, f.alice.ID, account.ID+1, "8765432187654321")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	detail, err := f.svc.Get(ctx, f.alice.ID, account.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{card.ID}, detail.CardIDs)
}

func TestAccountCards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.alice.ID, CreateInput{Name: "a", Password: "pw"})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, f.alice.ID, CreateInput{Name: "b", Password: "pw"})
	require.NoError(t, err)

	card, err := f.svc.RegisterCard(ctx, f.alice.ID, first.ID, "1111222233334444")
	require.NoError(t, err)

	got, err := f.svc.GetCard(ctx, f.alice.ID, first.ID, card.ID)
	require.NoError(t, err)
	require.Equal(t, card.Number, got.Number)

	_, err = f.svc.GetCard(ctx, f.alice.ID, second.ID, card.ID)
	require.ErrorIs(t, err, domain.ErrCardNotFound)

	cards, err := f.svc.ListCards(ctx, f.alice.ID, second.ID)
	require.NoError(t, err)
	require.Empty(t, cards)

	require.NoError(t, f.svc.DeleteCard(ctx, f.alice.ID, first.ID, card.ID))
	_, err = f.svc.GetCard(ctx, f.alice.ID, first.ID, card.ID)
	require.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestDeleteAccountCascadesCards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	account, err := f.svc.Create(ctx, f.alice.ID, CreateInput{Name: "a", Password: "pw"})
	require.NoError(t, err)
	card, err := f.svc.RegisterCard(ctx, f.alice.ID, account.ID, "1111222233334444")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.alice.ID, account.ID))
	_, err = memory.NewCardRepository(f.store).GetByID(ctx, nil, card.ID)
	require.ErrorIs(t, err, domain.ErrCardNotFound)
	_, err = f.svc.Get(ctx, f.alice.ID, account.ID)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}
