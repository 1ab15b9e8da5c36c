package bank_http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"bank/internal/app/users"
	"bank/internal/domain"
	"bank/internal/infrastructure/session"
)

const sessionCookieName = "session"

type ctxKey struct{}

func withUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the logged-in user, if any.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(*domain.User)
	return user, ok && user != nil
}

// loadUser resolves the session cookie. Requests with a missing, expired or
// revoked session continue anonymously.
func loadUser(sessions *session.Manager, userService users.UserService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := sessions.Resolve(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrInvalidToken) {
					next.ServeHTTP(w, r)
					return
				}
				logger.Error("Failed to resolve session", zap.Error(err))
				writeError(w, logger, http.StatusInternalServerError, "Internal server error")
				return
			}

			user, err := userService.GetByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, domain.ErrUserNotFound) {
					logger.Error("Failed to load session user", zap.Int64("user_id", userID), zap.Error(err))
					writeError(w, logger, http.StatusInternalServerError, "Internal server error")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

func requireLogin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFromContext(r.Context()); !ok {
				writeError(w, logger, http.StatusUnauthorized, "Login required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger writes one structured access log line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("HTTP request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
