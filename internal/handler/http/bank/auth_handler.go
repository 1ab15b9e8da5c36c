package bank_http

import (
	"net/http"

	"go.uber.org/zap"

	"bank/internal/app/users"
	"bank/internal/infrastructure/session"
)

type AuthHandler struct {
	users        users.UserService
	sessions     *session.Manager
	cookieSecure bool
	logger       *zap.Logger
}

func NewAuthHandler(u users.UserService, s *session.Manager, cookieSecure bool, l *zap.Logger) *AuthHandler {
	return &AuthHandler{users: u, sessions: s, cookieSecure: cookieSecure, logger: l}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) RegisterPromptHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "Please Sign into Bering Bank!"})
}

func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err, "")
		return
	}

	user, err := h.users.Register(r.Context(), users.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "")
		return
	}

	h.logger.Info("User registered", zap.Int64("user_id", user.ID))
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "Account created successfully"})
}

func (h *AuthHandler) LoginPromptHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserFromContext(r.Context()); ok {
		writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "You are already logged in!"})
		return
	}
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "Please Log into Bering Bank!"})
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err, "")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "")
		return
	}

	token, expiresAt, err := h.sessions.Start(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to start session", zap.Int64("user_id", user.ID), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "Logged in successfully"})
}

func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	h.endSession(w, r)
	h.logger.Info("User logged out", zap.Int64("user_id", user.ID))
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// endSession revokes the session behind the request cookie and clears it on
// the client.
func (h *AuthHandler) endSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := h.sessions.End(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("Failed to revoke session", zap.Error(err))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
