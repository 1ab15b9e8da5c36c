package allocator

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bank/internal/domain"
	"bank/internal/repository/account_numbers_repo"
)

// Allocator issues account numbers made of the bank prefix followed by random
// digits. Every issued number is reserved, so it is never handed out again.
type Allocator struct {
	prefix      string
	digits      int
	maxAttempts int
	repo        account_numbers_repo.AccountNumberRepository
	random      func(count int) (string, error)
	logger      *zap.Logger
}

func New(prefix string, digits, maxAttempts int, repo account_numbers_repo.AccountNumberRepository, logger *zap.Logger) (*Allocator, error) {
	if !domain.IsDigits(prefix) {
		return nil, fmt.Errorf("allocator prefix must be numeric, got %q", prefix)
	}
	if digits <= 0 || maxAttempts <= 0 {
		return nil, fmt.Errorf("allocator needs positive digits and attempts, got %d and %d", digits, maxAttempts)
	}
	return &Allocator{
		prefix:      prefix,
		digits:      digits,
		maxAttempts: maxAttempts,
		repo:        repo,
		random:      randomDigits,
		logger:      logger,
	}, nil
}

// Allocate reserves and returns a fresh number. It must run inside the same
// unit of work that creates the account.
func (a *Allocator) Allocate(ctx context.Context, querier domain.Querier) (string, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		body, err := a.random(a.digits)
		if err != nil {
			return "", fmt.Errorf("failed to generate account number: %w", err)
		}
		candidate := a.prefix + body

		reserved, err := a.repo.Reserve(ctx, querier, candidate)
		if err != nil {
			return "", err
		}
		if reserved {
			return candidate, nil
		}
		a.logger.Debug("Account number collision, retrying", zap.String("candidate", candidate), zap.Int("attempt", attempt))
	}
	a.logger.Error("Account number allocation exhausted", zap.Int("max_attempts", a.maxAttempts))
	return "", fmt.Errorf("%w: no free number after %d attempts", domain.ErrAccountNumberExhausted, a.maxAttempts)
}

// randomDigits uses rejection sampling on bytes below 250 so every digit is
// equally likely.
func randomDigits(count int) (string, error) {
	const threshold = 250
	var sb strings.Builder
	sb.Grow(count)
	buf := make([]byte, 32)
	for sb.Len() < count {
		n, err := rand.Read(buf)
		if err != nil {
			return "", err
		}
		for i := 0; i < n && sb.Len() < count; i++ {
			if buf[i] < threshold {
				sb.WriteByte('0' + buf[i]%10)
			}
		}
	}
	return sb.String(), nil
}
