package bank_http

import (
	"net/http"

	"go.uber.org/zap"

	"bank/internal/app/accounts"
)

const accountDenied = "Permission denied"

type AccountHandler struct {
	service accounts.AccountService
	logger  *zap.Logger
}

func NewAccountHandler(s accounts.AccountService, l *zap.Logger) *AccountHandler {
	return &AccountHandler{service: s, logger: l}
}

type CreateAccountRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type UpdateAccountRequest struct {
	Name             string `json:"name"`
	PreviousPassword string `json:"previous_password"`
	NewPassword      string `json:"new_password"`
}

type RegisterCardRequest struct {
	CardNumber string `json:"card_number"`
}

func (h *AccountHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	list, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}

	views := make([]accountView, 0, len(list))
	for i := range list {
		views = append(views, newAccountView(&list[i], user.Name))
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"accounts": views})
}

func (h *AccountHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}

	account, err := h.service.Create(r.Context(), user.ID, accounts.CreateInput{Name: req.Name, Password: req.Password})
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, map[string]any{
		"message": "Account created successfully",
		"account": newAccountView(account, user.Name),
	})
}

func (h *AccountHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	accountID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}

	detail, err := h.service.Get(r.Context(), user.ID, accountID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newAccountDetailView(detail, user.Name))
}

func (h *AccountHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	accountID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}

	var req UpdateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}

	detail, err := h.service.Update(r.Context(), user.ID, accountID, accounts.UpdateInput{
		Name:             req.Name,
		PreviousPassword: req.PreviousPassword,
		NewPassword:      req.NewPassword,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"message": "Account updated successfully",
		"account": newAccountDetailView(detail, user.Name),
	})
}

func (h *AccountHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	accountID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, accountID); err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "Account deleted successfully"})
}

func (h *AccountHandler) ListCardsHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	accountID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}

	list, err := h.service.ListCards(r.Context(), user.ID, accountID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"cards": newCardViews(list, user.Name)})
}

func (h *AccountHandler) RegisterCardHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	accountID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}

	var req RegisterCardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}

	card, err := h.service.RegisterCard(r.Context(), user.ID, accountID, req.CardNumber)
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, map[string]any{
		"message": "Card registered successfully",
		"card":    newCardView(card, user.Name),
	})
}

func (h *AccountHandler) GetCardHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	accountID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}
	cardID, err := idParam(r, "card_id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}

	card, err := h.service.GetCard(r.Context(), user.ID, accountID, cardID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newCardView(card, user.Name))
}

func (h *AccountHandler) DeleteCardHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	accountID, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}
	cardID, err := idParam(r, "card_id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}

	if err := h.service.DeleteCard(r.Context(), user.ID, accountID, cardID); err != nil {
		writeServiceError(w, r, h.logger, err, accountDenied)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "Card deleted successfully"})
}
