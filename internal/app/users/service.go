package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bank/internal/credential"
	"bank/internal/domain"
	"bank/internal/repository/accounts_repo"
	"bank/internal/repository/cards_repo"
	"bank/internal/repository/users_repo"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type UpdateProfileInput struct {
	Name             string
	CurrentPassword  string
	NewPassword      string
	NewPasswordAgain string
}

// Profile is a user together with the number of accounts and cards they own.
type Profile struct {
	User         *domain.User
	AccountCount int
	CardCount    int
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetProfile(ctx context.Context, id int64) (*Profile, error)
	UpdateProfile(ctx context.Context, id int64, in UpdateProfileInput) (*Profile, error)
	Delete(ctx context.Context, id int64) error
}

type userService struct {
	db          domain.Querier
	tx          domain.Transactor
	userRepo    users_repo.UserRepository
	accountRepo accounts_repo.AccountRepository
	cardRepo    cards_repo.CardRepository
	hasher      credential.Hasher
	logger      *zap.Logger
}

func NewUserService(
	db domain.Querier,
	tx domain.Transactor,
	userRepo users_repo.UserRepository,
	accountRepo accounts_repo.AccountRepository,
	cardRepo cards_repo.CardRepository,
	hasher credential.Hasher,
	logger *zap.Logger,
) UserService {
	return &userService{
		db:          db,
		tx:          tx,
		userRepo:    userRepo,
		accountRepo: accountRepo,
		cardRepo:    cardRepo,
		hasher:      hasher,
		logger:      logger,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.Username == "":
		return nil, domain.NewValidationError("Username is required.")
	case in.Email == "":
		return nil, domain.NewValidationError("E-mail is required.")
	case in.Password == "":
		return nil, domain.NewValidationError("Password is required.")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.NewValidationError("Password is too long.")
	}

	now := time.Now()
	user := &domain.User{
		Email:        in.Email,
		Name:         in.Username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context, q domain.Querier) error {
		return s.userRepo.Create(ctx, q, user)
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			s.logger.Warn("Registration with taken e-mail", zap.String("email", in.Email))
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("E-mail %s is already registered.", in.Email),
				Err:     err,
			}
		}
		s.logger.Error("Failed to register user", zap.String("email", in.Email), zap.Error(err))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	switch {
	case email == "":
		return nil, domain.NewValidationError("E-mail is required.")
	case password == "":
		return nil, domain.NewValidationError("Password is required.")
	}

	user, err := s.userRepo.GetByEmail(ctx, s.db, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("Login with unknown e-mail")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user by e-mail: %w", err)
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		s.logger.Warn("Login with wrong password", zap.Int64("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, s.db, user)
}

func (s *userService) profile(ctx context.Context, q domain.Querier, user *domain.User) (*Profile, error) {
	accountCount, err := s.accountRepo.CountByUser(ctx, q, user.ID)
	if err != nil {
		return nil, err
	}
	cardCount, err := s.cardRepo.CountByUser(ctx, q, user.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, AccountCount: accountCount, CardCount: cardCount}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id int64, in UpdateProfileInput) (*Profile, error) {
	var profile *Profile
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q domain.Querier) error {
		user, err := s.userRepo.GetByID(ctx, q, id)
		if err != nil {
			return err
		}

		if in.Name != "" {
			user.Name = in.Name
		}
		if in.NewPassword != "" {
			switch {
			case in.CurrentPassword == "":
				return domain.NewValidationError("Current password is required.")
			case !s.hasher.Verify(user.PasswordHash, in.CurrentPassword):
				return domain.NewValidationError("Current password is incorrect.")
			case in.NewPassword != in.NewPasswordAgain:
				return domain.NewValidationError("Two new passwords are not equal to each other.")
			}
			hash, err := s.hasher.Hash(in.NewPassword)
			if err != nil {
				return domain.NewValidationError("Password is too long.")
			}
			user.PasswordHash = hash
		}
		user.UpdatedAt = time.Now()

		if err := s.userRepo.Update(ctx, q, user); err != nil {
			return err
		}
		profile, err = s.profile(ctx, q, user)
		return err
	})
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			s.logger.Warn("Rejected profile update", zap.Int64("user_id", id), zap.String("reason", vErr.Message))
			return nil, err
		}
		s.logger.Error("Failed to update profile", zap.Int64("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}

	s.logger.Info("User info updated", zap.Int64("user_id", id))
	return profile, nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q domain.Querier) error {
		return s.userRepo.Delete(ctx, q, id)
	})
	if err != nil {
		s.logger.Error("Failed to delete user", zap.Int64("user_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	s.logger.Info("Deleted user", zap.Int64("user_id", id))
	return nil
}
