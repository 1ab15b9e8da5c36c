package bank_http

import (
	"net/http"

	"go.uber.org/zap"

	"bank/internal/app/users"
)

type UserHandler struct {
	users  users.UserService
	auth   *AuthHandler
	logger *zap.Logger
}

func NewUserHandler(u users.UserService, auth *AuthHandler, l *zap.Logger) *UserHandler {
	return &UserHandler{users: u, auth: auth, logger: l}
}

type UpdateProfileRequest struct {
	Name             string `json:"name"`
	CurrentPassword  string `json:"current_password"`
	NewPassword      string `json:"new_password"`
	NewPasswordAgain string `json:"new_password_again"`
}

func (h *UserHandler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	profile, err := h.users.GetProfile(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Permission denied")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newUserView(profile))
}

func (h *UserHandler) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err, "")
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), user.ID, users.UpdateProfileInput{
		Name:             req.Name,
		CurrentPassword:  req.CurrentPassword,
		NewPassword:      req.NewPassword,
		NewPasswordAgain: req.NewPasswordAgain,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Permission denied")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"message": "User info updated successfully",
		"user":    newUserView(profile),
	})
}

func (h *UserHandler) DeleteMeHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	if err := h.users.Delete(r.Context(), user.ID); err != nil {
		writeServiceError(w, r, h.logger, err, "Permission denied")
		return
	}
	h.auth.endSession(w, r)
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}
