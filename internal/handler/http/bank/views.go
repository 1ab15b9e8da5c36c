package bank_http

import (
	"strings"

	"bank/internal/app/accounts"
	"bank/internal/app/users"
	"bank/internal/domain"
)

type userView struct {
	ID           int64  `json:"id"`
	Email        string `json:"e-mail"`
	Name         string `json:"name"`
	AccountCount int    `json:"account_count"`
	CardCount    int    `json:"card_count"`
}

func newUserView(p *users.Profile) userView {
	return userView{
		ID:           p.User.ID,
		Email:        p.User.Email,
		Name:         p.User.Name,
		AccountCount: p.AccountCount,
		CardCount:    p.CardCount,
	}
}

type accountView struct {
	ID            int64  `json:"id"`
	AccountNumber string `json:"account_number"`
	AccountOwner  string `json:"account_owner"`
	Name          string `json:"name"`
	Balance       int64  `json:"balance"`
}

func newAccountView(a *domain.Account, owner string) accountView {
	return accountView{
		ID:            a.ID,
		AccountNumber: a.Number,
		AccountOwner:  owner,
		Name:          a.Name,
		Balance:       a.Balance,
	}
}

type accountDetailView struct {
	accountView
	Cards []int64 `json:"cards"`
}

func newAccountDetailView(d *accounts.Detail, owner string) accountDetailView {
	return accountDetailView{accountView: newAccountView(d.Account, owner), Cards: d.CardIDs}
}

type cardView struct {
	ID         int64  `json:"id"`
	UserName   string `json:"user_name"`
	AccountID  int64  `json:"account_id"`
	CardNumber string `json:"card_number"`
	Status     string `json:"status"`
}

func newCardView(c *domain.Card, owner string) cardView {
	return cardView{
		ID:         c.ID,
		UserName:   owner,
		AccountID:  c.AccountID,
		CardNumber: c.Number,
		Status:     strings.ToLower(string(c.State)),
	}
}

func newCardViews(cards []domain.Card, owner string) []cardView {
	views := make([]cardView, 0, len(cards))
	for i := range cards {
		views = append(views, newCardView(&cards[i], owner))
	}
	return views
}
