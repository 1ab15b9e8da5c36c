package allocator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bank/internal/domain"
	"bank/internal/repository/memory"
)

func TestAllocateFormat(t *testing.T) {
	store := memory.NewStore()
	a, err := New("555511", 7, 10, memory.NewAccountNumberRepository(store), zap.NewNop())
	require.NoError(t, err)

	number, err := a.Allocate(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, number, 13)
	require.Equal(t, "555511", number[:6])
	require.True(t, domain.IsDigits(number))
}

func TestAllocateUnique(t *testing.T) {
	store := memory.NewStore()
	a, err := New("555511", 3, 50, memory.NewAccountNumberRepository(store), zap.NewNop())
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		number, err := a.Allocate(context.Background(), nil)
		require.NoError(t, err)
		_, dup := seen[number]
		require.False(t, dup, "duplicate number %s", number)
		seen[number] = struct{}{}
	}
}

func TestAllocateRetriesOnCollision(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewAccountNumberRepository(store)
	_, err := repo.Reserve(context.Background(), nil, "1111")
	require.NoError(t, err)

	a, err := New("11", 2, 5, repo, zap.NewNop())
	require.NoError(t, err)

	seq := []string{"11", "11", "42"}
	a.random = func(int) (string, error) {
		next := seq[0]
		seq = seq[1:]
		return next, nil
	}

	number, err := a.Allocate(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "1142", number)
}

func TestAllocateExhausted(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewAccountNumberRepository(store)
	_, err := repo.Reserve(context.Background(), nil, "90")
	require.NoError(t, err)

	a, err := New("9", 1, 3, repo, zap.NewNop())
	require.NoError(t, err)
	calls := 0
	a.random = func(int) (string, error) {
		calls++
		return "0", nil
	}

	_, err = a.Allocate(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrAccountNumberExhausted)
	require.Equal(t, 3, calls)
}

func TestNewRejectsBadPrefix(t *testing.T) {
	_, err := New("55x", 7, 10, nil, zap.NewNop())
	require.Error(t, err)
}

func TestRandomDigits(t *testing.T) {
	s, err := randomDigits(64)
	require.NoError(t, err)
	require.Len(t, s, 64)
	require.True(t, domain.IsDigits(s))
}
