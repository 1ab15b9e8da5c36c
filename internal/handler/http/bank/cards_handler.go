package bank_http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"bank/internal/app/cards"
	"bank/internal/domain"
)

const cardDenied = "Not authorized"

type CardHandler struct {
	service cards.CardService
	logger  *zap.Logger
}

func NewCardHandler(s cards.CardService, l *zap.Logger) *CardHandler {
	return &CardHandler{service: s, logger: l}
}

// Amount is a pointer so that a missing field can be told apart from zero.
type WithdrawRequest struct {
	Amount          *int64 `json:"amount"`
	AccountPassword string `json:"account_password"`
}

type DepositRequest struct {
	Amount *int64 `json:"amount"`
}

type OperationResponse struct {
	Message string   `json:"message"`
	Success bool     `json:"success"`
	Card    cardView `json:"card"`
	Balance int64    `json:"balance"`
}

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

func (h *CardHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	list, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"cards": newCardViews(list, user.Name)})
}

func (h *CardHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	cardID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}

	card, err := h.service.Get(r.Context(), user.ID, cardID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newCardView(card, user.Name))
}

func (h *CardHandler) EnableHandler(w http.ResponseWriter, r *http.Request) {
	h.switchState(w, r, h.service.Enable, "Card enabled successfully")
}

func (h *CardHandler) DisableHandler(w http.ResponseWriter, r *http.Request) {
	h.switchState(w, r, h.service.Disable, "Card disabled successfully")
}

func (h *CardHandler) switchState(
	w http.ResponseWriter,
	r *http.Request,
	transition func(ctx context.Context, userID, cardID int64) (*domain.Card, error),
	message string,
) {
	user, _ := UserFromContext(r.Context())
	cardID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}

	card, err := transition(r.Context(), user.ID, cardID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"message": message,
		"card":    newCardView(card, user.Name),
	})
}

func (h *CardHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	cardID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}

	var req WithdrawRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}
	if req.Amount == nil {
		writeError(w, h.logger, http.StatusBadRequest, "Amount must be a positive integer.")
		return
	}

	result, err := h.service.Withdraw(r.Context(), user.ID, cardID, *req.Amount, req.AccountPassword)
	if err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newOperationResponse(result, user.Name))
}

func (h *CardHandler) DepositHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	cardID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}

	var req DepositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}
	if req.Amount == nil {
		writeError(w, h.logger, http.StatusBadRequest, "Amount must be a positive integer.")
		return
	}

	result, err := h.service.Deposit(r.Context(), user.ID, cardID, *req.Amount)
	if err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newOperationResponse(result, user.Name))
}

func (h *CardHandler) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	cardID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}

	balance, err := h.service.Balance(r.Context(), user.ID, cardID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, cardDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, BalanceResponse{Balance: balance})
}

func newOperationResponse(result *cards.OperationResult, owner string) OperationResponse {
	return OperationResponse{
		Message: result.Message,
		Success: result.Success,
		Card:    newCardView(result.Card, owner),
		Balance: result.Balance,
	}
}
