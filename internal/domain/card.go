package domain

import "time"

const CardNumberLength = 16

type Card struct {
	ID        int64
	Number    string
	UserID    int64
	AccountID int64
	State     CardState
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Card) OwnedBy(userID int64) bool {
	return c.UserID == userID
}

func (c *Card) Enable() error {
	if c.State == CardStateEnabled {
		return ErrCardAlreadyEnabled
	}
	c.State = c.State.Enable()
	return nil
}

func (c *Card) Disable() error {
	if c.State == CardStateDisabled {
		return ErrCardAlreadyDisabled
	}
	c.State = c.State.Disable()
	return nil
}

func (c *Card) Withdraw(account *Account, amount int64) GateResult {
	return c.State.Withdraw(account, amount)
}

func (c *Card) Deposit(account *Account, amount int64) GateResult {
	return c.State.Deposit(account, amount)
}

// ValidateCardNumber checks the externally supplied card number format.
func ValidateCardNumber(number string) error {
	if number == "" {
		return NewValidationError("Card number is required.")
	}
	if len(number) != CardNumberLength || !IsDigits(number) {
		return NewValidationError("Card number should be 16 digits.")
	}
	return nil
}

func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
