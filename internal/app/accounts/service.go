package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bank/internal/credential"
	"bank/internal/domain"
	"bank/internal/outbox"
	"bank/internal/repository/accounts_repo"
	"bank/internal/repository/cards_repo"
	"bank/internal/repository/outbox_repo"
)

// NumberAllocator hands out account numbers that were never issued before.
type NumberAllocator interface {
	Allocate(ctx context.Context, querier domain.Querier) (string, error)
}

type CreateInput struct {
	Name     string
	Password string
}

type UpdateInput struct {
	Name             string
	PreviousPassword string
	NewPassword      string
}

type Detail struct {
	Account *domain.Account
	CardIDs []int64
}

type AccountService interface {
	List(ctx context.Context, userID int64) ([]domain.Account, error)
	Create(ctx context.Context, userID int64, in CreateInput) (*domain.Account, error)
	Get(ctx context.Context, userID, accountID int64) (*Detail, error)
	Update(ctx context.Context, userID, accountID int64, in UpdateInput) (*Detail, error)
	Delete(ctx context.Context, userID, accountID int64) error

	ListCards(ctx context.Context, userID, accountID int64) ([]domain.Card, error)
	RegisterCard(ctx context.Context, userID, accountID int64, cardNumber string) (*domain.Card, error)
	GetCard(ctx context.Context, userID, accountID, cardID int64) (*domain.Card, error)
	DeleteCard(ctx context.Context, userID, accountID, cardID int64) error
}

type accountService struct {
	db          domain.Querier
	tx          domain.Transactor
	accountRepo accounts_repo.AccountRepository
	cardRepo    cards_repo.CardRepository
	outboxRepo  outbox_repo.OutboxRepository
	allocator   NumberAllocator
	hasher      credential.Hasher
	topic       string
	logger      *zap.Logger
}

func NewAccountService(
	db domain.Querier,
	tx domain.Transactor,
	accountRepo accounts_repo.AccountRepository,
	cardRepo cards_repo.CardRepository,
	outboxRepo outbox_repo.OutboxRepository,
	allocator NumberAllocator,
	hasher credential.Hasher,
	topic string,
	logger *zap.Logger,
) AccountService {
	return &accountService{
		db:          db,
		tx:          tx,
		accountRepo: accountRepo,
		cardRepo:    cardRepo,
		outboxRepo:  outboxRepo,
		allocator:   allocator,
		hasher:      hasher,
		topic:       topic,
		logger:      logger,
	}
}

func (s *accountService) List(ctx context.Context, userID int64) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for user %d: %w", userID, err)
	}
	return accounts, nil
}

func (s *accountService) Create(ctx context.Context, userID int64, in CreateInput) (*domain.Account, error) {
	switch {
	case in.Name == "":
		return nil, domain.NewValidationError("Name is required.")
	case in.Password == "":
		return nil, domain.NewValidationError("Password is required.")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.NewValidationError("Password is too long.")
	}

	now := time.Now()
	account := &domain.Account{
		Name:         in.Name,
		PasswordHash: hash,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context, q domain.Querier) error {
		number, err := s.allocator.Allocate(ctx, q)
		if err != nil {
			return err
		}
		account.Number = number
		if err := s.accountRepo.Create(ctx, q, account); err != nil {
			return err
		}
		return s.emit(ctx, q, account, domain.EventAccountCreated)
	})
	if err != nil {
		s.logger.Error("Failed to create account", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("Account created",
		zap.Int64("account_id", account.ID),
		zap.Int64("user_id", userID),
		zap.String("account_number", account.Number))
	return account, nil
}

func (s *accountService) emit(ctx context.Context, q domain.Querier, account *domain.Account, eventType domain.EventType) error {
	msg, err := outbox.NewMessage(s.topic, domain.AggregateAccount, account.ID, eventType, domain.AccountEvent{
		Type:          eventType,
		AccountID:     account.ID,
		AccountNumber: account.Number,
		UserID:        account.UserID,
		Timestamp:     time.Now(),
	})
	if err != nil {
		return err
	}
	return s.outboxRepo.Create(ctx, q, msg)
}

// owned loads the account and checks existence before ownership.
func (s *accountService) owned(ctx context.Context, q domain.Querier, userID, accountID int64) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	if !account.OwnedBy(userID) {
		s.logger.Warn("Account access denied", zap.Int64("account_id", accountID), zap.Int64("user_id", userID))
		return nil, domain.ErrPermissionDenied
	}
	return account, nil
}

func (s *accountService) detail(ctx context.Context, q domain.Querier, account *domain.Account) (*Detail, error) {
	cards, err := s.cardRepo.ListByAccount(ctx, q, account.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return &Detail{Account: account, CardIDs: ids}, nil
}

func (s *accountService) Get(ctx context.Context, userID, accountID int64) (*Detail, error) {
	account, err := s.owned(ctx, s.db, userID, accountID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, s.db, account)
}

func (s *accountService) Update(ctx context.Context, userID, accountID int64, in UpdateInput) (*Detail, error) {
	var detail *Detail
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q domain.Querier) error {
		account, err := s.owned(ctx, q, userID, accountID)
		if err != nil {
			return err
		}
		if in.Name != "" {
			account.Name = in.Name
		}
		if in.NewPassword != "" {
			if in.PreviousPassword == "" {
				return domain.NewValidationError("Previous password is required to change password")
			}
			if !s.hasher.Verify(account.PasswordHash, in.PreviousPassword) {
				return domain.NewValidationError("Incorrect previous password")
			}
			hash, err := s.hasher.Hash(in.NewPassword)
			if err != nil {
				return domain.NewValidationError("Password is too long.")
			}
			account.PasswordHash = hash
		}
		account.UpdatedAt = time.Now()
		if err := s.accountRepo.Update(ctx, q, account); err != nil {
			return err
		}
		detail, err = s.detail(ctx, q, account)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Account updated", zap.Int64("account_id", accountID))
	return detail, nil
}

func (s *accountService) Delete(ctx context.Context, userID, accountID int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q domain.Querier) error {
		account, err := s.owned(ctx, q, userID, accountID)
		if err != nil {
			return err
		}
		if err := s.accountRepo.Delete(ctx, q, account.ID); err != nil {
			return err
		}
		return s.emit(ctx, q, account, domain.EventAccountDeleted)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Account deleted", zap.Int64("account_id", accountID), zap.Int64("user_id", userID))
	return nil
}

func (s *accountService) ListCards(ctx context.Context, userID, accountID int64) ([]domain.Card, error) {
	if _, err := s.owned(ctx, s.db, userID, accountID); err != nil {
		return nil, err
	}
	return s.cardRepo.ListByAccount(ctx, s.db, accountID)
}

func (s *accountService) RegisterCard(ctx context.Context, userID, accountID int64, cardNumber string) (*domain.Card, error) {
	cardNumber = strings.TrimSpace(cardNumber)
	var card *domain.Card
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q domain.Querier) error {
		if _, err := s.owned(ctx, q, userID, accountID); err != nil {
			return err
		}
		if err := domain.ValidateCardNumber(cardNumber); err != nil {
			return err
		}
		exists, err := s.cardRepo.ExistsByNumber(ctx, q, cardNumber)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrCardNumberTaken
		}

		now := time.Now()
		card = &domain.Card{
			Number:    cardNumber,
			UserID:    userID,
			AccountID: accountID,
			State:     domain.CardStateDisabled,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.cardRepo.Create(ctx, q, card)
	})
	if err != nil {
		if errors.Is(err, domain.ErrCardNumberTaken) {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("A card with number '%s' is already registered.", cardNumber),
				Err:     err,
			}
		}
		return nil, err
	}
	s.logger.Info("Card registered", zap.Int64("card_id", card.ID), zap.Int64("account_id", accountID))
	return card, nil
}

// cardOf returns the card only when it belongs to accountID; a card under
// another account is reported as not found.
func (s *accountService) cardOf(ctx context.Context, q domain.Querier, userID, accountID, cardID int64) (*domain.Card, error) {
	card, err := s.cardRepo.GetByID(ctx, q, cardID)
	if err != nil {
		return nil, err
	}
	if card.AccountID != accountID {
		return nil, domain.ErrCardNotFound
	}
	if !card.OwnedBy(userID) {
		s.logger.Warn("Card access denied", zap.Int64("card_id", cardID), zap.Int64("user_id", userID))
		return nil, domain.ErrPermissionDenied
	}
	return card, nil
}

func (s *accountService) GetCard(ctx context.Context, userID, accountID, cardID int64) (*domain.Card, error) {
	return s.cardOf(ctx, s.db, userID, accountID, cardID)
}

func (s *accountService) DeleteCard(ctx context.Context, userID, accountID, cardID int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q domain.Querier) error {
		card, err := s.cardOf(ctx, q, userID, accountID, cardID)
		if err != nil {
			return err
		}
		return s.cardRepo.Delete(ctx, q, card.ID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Card deleted", zap.Int64("card_id", cardID), zap.Int64("account_id", accountID))
	return nil
}
