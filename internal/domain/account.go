package domain

import "time"

// Account holds the ledger balance. Balance is only changed through a card's
// Withdraw or Deposit.
type Account struct {
	ID           int64
	Number       string
	Name         string
	PasswordHash string
	Balance      int64
	UserID       int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a *Account) OwnedBy(userID int64) bool {
	return a.UserID == userID
}

// AccountNumber is a reservation that outlives the account it was issued to.
type AccountNumber struct {
	Number     string
	ReservedAt time.Time
}
