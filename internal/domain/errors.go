package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("e-mail already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrAccountNotFound        = errors.New("account not found")
	ErrInvalidAccountPassword = errors.New("invalid account password")
	ErrAccountNumberTaken     = errors.New("account number already reserved")
	ErrAccountNumberExhausted = errors.New("account number space exhausted")

	ErrCardNotFound        = errors.New("card not found")
	ErrCardNumberTaken     = errors.New("card number already registered")
	ErrCardAlreadyEnabled  = errors.New("the card is already enabled")
	ErrCardAlreadyDisabled = errors.New("the card is already disabled")

	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationError carries a message that is safe to return to the client as
// is. Err, when set, is the underlying domain error.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
