package domain

import "time"

type EventType string

const (
	EventCardEnabled    EventType = "card.enabled"
	EventCardDisabled   EventType = "card.disabled"
	EventCardWithdrawal EventType = "card.withdrawal"
	EventCardDeposit    EventType = "card.deposit"
	EventAccountCreated EventType = "account.created"
	EventAccountDeleted EventType = "account.deleted"
)

const (
	AggregateCard    = "card"
	AggregateAccount = "account"
)

type LedgerEvent struct {
	Type      EventType `json:"type"`
	CardID    int64     `json:"card_id"`
	AccountID int64     `json:"account_id"`
	UserID    int64     `json:"user_id"`
	Amount    int64     `json:"amount"`
	Balance   int64     `json:"balance"`
	Timestamp time.Time `json:"timestamp"`
}

type CardStateEvent struct {
	Type      EventType `json:"type"`
	CardID    int64     `json:"card_id"`
	AccountID int64     `json:"account_id"`
	UserID    int64     `json:"user_id"`
	State     CardState `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

type AccountEvent struct {
	Type          EventType `json:"type"`
	AccountID     int64     `json:"account_id"`
	AccountNumber string    `json:"account_number"`
	UserID        int64     `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}
