package bank_http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bank/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, msg string) {
	writeJSON(w, logger, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return domain.NewValidationError("Invalid request body")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{Message: "Invalid request body", Err: err}
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("Invalid " + name)
	}
	return id, nil
}

// writeServiceError maps a service error to its status. deniedMsg is the
// message used for ownership failures, which differs between account and card
// routes.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, deniedMsg string) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, logger, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, logger, http.StatusNotFound, "Account not found")
	case errors.Is(err, domain.ErrCardNotFound):
		writeError(w, logger, http.StatusNotFound, "Card not found")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, logger, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrPermissionDenied):
		writeError(w, logger, http.StatusForbidden, deniedMsg)
	case errors.Is(err, domain.ErrCardAlreadyEnabled):
		writeError(w, logger, http.StatusBadRequest, "The card is already enabled")
	case errors.Is(err, domain.ErrCardAlreadyDisabled):
		writeError(w, logger, http.StatusBadRequest, "The card is already disabled")
	case errors.Is(err, domain.ErrInvalidAccountPassword):
		writeError(w, logger, http.StatusUnauthorized, "Invalid account password")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, logger, http.StatusUnauthorized, "Incorrect e-mail or password.")
	case errors.Is(err, domain.ErrAccountNumberExhausted):
		logger.Error("Account number allocation exhausted", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, logger, http.StatusInternalServerError, "Could not allocate an account number")
	default:
		logger.Error("Unhandled service error", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}
