package domain

import "fmt"

// CardState is the two-position switch that gates card-initiated balance changes.
type CardState string

const (
	CardStateEnabled  CardState = "ENABLED"
	CardStateDisabled CardState = "DISABLED"
)

const (
	msgWithdrawBlocked     = "Cannot withdraw. Card is blocked."
	msgDepositBlocked      = "Cannot deposit. Card is blocked."
	msgInsufficientBalance = "FAILED: Insufficient balance for withdrawal."
)

// GateResult reports the outcome of a gated operation. A failed result never
// mutates the account.
type GateResult struct {
	Success bool
	Message string
}

func (s CardState) Valid() bool {
	return s == CardStateEnabled || s == CardStateDisabled
}

func (s CardState) Enable() CardState {
	return CardStateEnabled
}

func (s CardState) Disable() CardState {
	return CardStateDisabled
}

func (s CardState) Withdraw(account *Account, amount int64) GateResult {
	if s != CardStateEnabled {
		return GateResult{Message: msgWithdrawBlocked}
	}
	if account.Balance < amount {
		return GateResult{Message: msgInsufficientBalance}
	}
	account.Balance -= amount
	return GateResult{
		Success: true,
		Message: fmt.Sprintf("Withdrawing %d from active card. New balance: %d", amount, account.Balance),
	}
}

func (s CardState) Deposit(account *Account, amount int64) GateResult {
	if s != CardStateEnabled {
		return GateResult{Message: msgDepositBlocked}
	}
	account.Balance += amount
	return GateResult{
		Success: true,
		Message: fmt.Sprintf("Depositing %d to active card. New balance: %d", amount, account.Balance),
	}
}
