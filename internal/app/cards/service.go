package cards

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bank/internal/credential"
	"bank/internal/domain"
	"bank/internal/outbox"
	"bank/internal/repository/accounts_repo"
	"bank/internal/repository/cards_repo"
	"bank/internal/repository/outbox_repo"
)

// OperationResult is the outcome of a gated withdraw or deposit. A result with
// Success false left the balance untouched.
type OperationResult struct {
	Card    *domain.Card
	Success bool
	Message string
	Balance int64
}

type CardService interface {
	List(ctx context.Context, userID int64) ([]domain.Card, error)
	Get(ctx context.Context, userID, cardID int64) (*domain.Card, error)
	Enable(ctx context.Context, userID, cardID int64) (*domain.Card, error)
	Disable(ctx context.Context, userID, cardID int64) (*domain.Card, error)
	Withdraw(ctx context.Context, userID, cardID, amount int64, accountPassword string) (*OperationResult, error)
	Deposit(ctx context.Context, userID, cardID, amount int64) (*OperationResult, error)
	Balance(ctx context.Context, userID, cardID int64) (int64, error)
}

type cardService struct {
	db          domain.Querier
	tx          domain.Transactor
	cardRepo    cards_repo.CardRepository
	accountRepo accounts_repo.AccountRepository
	outboxRepo  outbox_repo.OutboxRepository
	hasher      credential.Hasher
	topic       string
	logger      *zap.Logger
}

func NewCardService(
	db domain.Querier,
	tx domain.Transactor,
	cardRepo cards_repo.CardRepository,
	accountRepo accounts_repo.AccountRepository,
	outboxRepo outbox_repo.OutboxRepository,
	hasher credential.Hasher,
	topic string,
	logger *zap.Logger,
) CardService {
	return &cardService{
		db:          db,
		tx:          tx,
		cardRepo:    cardRepo,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		hasher:      hasher,
		topic:       topic,
		logger:      logger,
	}
}

func (s *cardService) List(ctx context.Context, userID int64) ([]domain.Card, error) {
	cards, err := s.cardRepo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards for user %d: %w", userID, err)
	}
	return cards, nil
}

func (s *cardService) owned(ctx context.Context, q domain.Querier, userID, cardID int64, forUpdate bool) (*domain.Card, error) {
	get := s.cardRepo.GetByID
	if forUpdate {
		get = s.cardRepo.GetByIDForUpdate
	}
	card, err := get(ctx, q, cardID)
	if err != nil {
		return nil, err
	}
	if !card.OwnedBy(userID) {
		s.logger.Warn("Card access denied", zap.Int64("card_id", cardID), zap.Int64("user_id", userID))
		return nil, domain.ErrPermissionDenied
	}
	return card, nil
}

func (s *cardService) Get(ctx context.Context, userID, cardID int64) (*domain.Card, error) {
	return s.owned(ctx, s.db, userID, cardID, false)
}

func (s *cardService) Enable(ctx context.Context, userID, cardID int64) (*domain.Card, error) {
	return s.switchState(ctx, userID, cardID, (*domain.Card).Enable, domain.EventCardEnabled)
}

func (s *cardService) Disable(ctx context.Context, userID, cardID int64) (*domain.Card, error) {
	return s.switchState(ctx, userID, cardID, (*domain.Card).Disable, domain.EventCardDisabled)
}

func (s *cardService) switchState(ctx context.Context, userID, cardID int64, transition func(*domain.Card) error, eventType domain.EventType) (*domain.Card, error) {
	var card *domain.Card
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q domain.Querier) error {
		var err error
		card, err = s.owned(ctx, q, userID, cardID, true)
		if err != nil {
			return err
		}
		if err := transition(card); err != nil {
			return err
		}
		if err := s.cardRepo.UpdateState(ctx, q, card.ID, card.State); err != nil {
			return err
		}
		msg, err := outbox.NewMessage(s.topic, domain.AggregateCard, card.ID, eventType, domain.CardStateEvent{
			Type:      eventType,
			CardID:    card.ID,
			AccountID: card.AccountID,
			UserID:    card.UserID,
			State:     card.State,
			Timestamp: time.Now(),
		})
		if err != nil {
			return err
		}
		return s.outboxRepo.Create(ctx, q, msg)
	})
	if err != nil {
		s.logger.Warn("Card state change rejected", zap.Int64("card_id", cardID), zap.String("event", string(eventType)), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Card state changed", zap.Int64("card_id", card.ID), zap.String("state", string(card.State)))
	return card, nil
}

func (s *cardService) Withdraw(ctx context.Context, userID, cardID, amount int64, accountPassword string) (*OperationResult, error) {
	return s.move(ctx, userID, cardID, amount, func(card *domain.Card, account *domain.Account) (domain.GateResult, error) {
		if !s.hasher.Verify(account.PasswordHash, accountPassword) {
			return domain.GateResult{}, domain.ErrInvalidAccountPassword
		}
		if err := validateAmount(amount); err != nil {
			return domain.GateResult{}, err
		}
		return card.Withdraw(account, amount), nil
	}, domain.EventCardWithdrawal)
}

func (s *cardService) Deposit(ctx context.Context, userID, cardID, amount int64) (*OperationResult, error) {
	return s.move(ctx, userID, cardID, amount, func(card *domain.Card, account *domain.Account) (domain.GateResult, error) {
		if err := validateAmount(amount); err != nil {
			return domain.GateResult{}, err
		}
		return card.Deposit(account, amount), nil
	}, domain.EventCardDeposit)
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return domain.NewValidationError("Amount must be a positive integer.")
	}
	return nil
}

// move runs a gated balance change in one transaction. The card row is locked
// before the account row, so a concurrent enable or disable is ordered with it.
func (s *cardService) move(
	ctx context.Context,
	userID, cardID, amount int64,
	gate func(card *domain.Card, account *domain.Account) (domain.GateResult, error),
	eventType domain.EventType,
) (*OperationResult, error) {
	var result *OperationResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q domain.Querier) error {
		card, err := s.owned(ctx, q, userID, cardID, true)
		if err != nil {
			return err
		}
		account, err := s.accountRepo.GetByIDForUpdate(ctx, q, card.AccountID)
		if err != nil {
			return err
		}

		res, err := gate(card, account)
		if err != nil {
			return err
		}
		result = &OperationResult{Card: card, Success: res.Success, Message: res.Message, Balance: account.Balance}
		if !res.Success {
			return nil
		}

		if err := s.accountRepo.UpdateBalance(ctx, q, account.ID, account.Balance); err != nil {
			return err
		}
		msg, err := outbox.NewMessage(s.topic, domain.AggregateCard, card.ID, eventType, domain.LedgerEvent{
			Type:      eventType,
			CardID:    card.ID,
			AccountID: account.ID,
			UserID:    userID,
			Amount:    amount,
			Balance:   account.Balance,
			Timestamp: time.Now(),
		})
		if err != nil {
			return err
		}
		return s.outboxRepo.Create(ctx, q, msg)
	})
	if err != nil {
		s.logger.Warn("Card operation rejected", zap.Int64("card_id", cardID), zap.String("operation", string(eventType)), zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{zap.Int64("card_id", cardID), zap.Int64("amount", amount), zap.Int64("balance", result.Balance)}
	if result.Success {
		s.logger.Info(result.Message, fields...)
	} else {
		s.logger.Warn(result.Message, fields...)
	}
	return result, nil
}

func (s *cardService) Balance(ctx context.Context, userID, cardID int64) (int64, error) {
	card, err := s.owned(ctx, s.db, userID, cardID, false)
	if err != nil {
		return 0, err
	}
	account, err := s.accountRepo.GetByID(ctx, s.db, card.AccountID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Balance check", zap.Int64("card_id", cardID), zap.Int64("balance", account.Balance))
	return account.Balance, nil
}
