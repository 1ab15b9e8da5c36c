package bank_http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"bank/internal/app/accounts"
	"bank/internal/app/cards"
	"bank/internal/app/users"
	"bank/internal/infrastructure/session"
)

// Pinger is anything readiness depends on: the repository backend, the
// session store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Users    users.UserService
	Accounts accounts.AccountService
	Cards    cards.CardService
	Sessions *session.Manager

	CookieSecure   bool
	AllowedOrigins []string
	Readiness      map[string]Pinger
	Logger         *zap.Logger
}

// NewRouter builds the full HTTP stack: middleware chain plus every route.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(deps.Logger.With(zap.String("component", "HTTPAccessLog"))))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	RegisterRoutes(r, deps)
	return r
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	logger := deps.Logger.With(zap.String("component", "HTTPHandler"))
	auth := NewAuthHandler(deps.Users, deps.Sessions, deps.CookieSecure, logger)
	userHandler := NewUserHandler(deps.Users, auth, logger)
	accountHandler := NewAccountHandler(deps.Accounts, logger)
	cardHandler := NewCardHandler(deps.Cards, logger)
	root := r

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Bank service is healthy!"))
	})
	r.Get("/-/live", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/-/ready", readinessHandler(deps.Readiness, logger))

	r.Group(func(r chi.Router) {
		r.Use(loadUser(deps.Sessions, deps.Users, logger))

		r.Get("/", homeHandler(root, logger))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/create", auth.RegisterPromptHandler)
			r.Post("/create", auth.RegisterHandler)
			r.Get("/login", auth.LoginPromptHandler)
			r.Post("/login", auth.LoginHandler)
			r.With(requireLogin(logger)).Post("/logout", auth.LogoutHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireLogin(logger))

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", userHandler.GetMeHandler)
				r.Put("/", userHandler.UpdateMeHandler)
				r.Delete("/", userHandler.DeleteMeHandler)
			})

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", accountHandler.ListHandler)
				r.Post("/", accountHandler.CreateHandler)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", accountHandler.GetHandler)
					r.Put("/", accountHandler.UpdateHandler)
					r.Delete("/", accountHandler.DeleteHandler)
					r.Get("/cards", accountHandler.ListCardsHandler)
					r.Post("/cards", accountHandler.RegisterCardHandler)
					r.Get("/cards/{card_id}", accountHandler.GetCardHandler)
					r.Delete("/cards/{card_id}", accountHandler.DeleteCardHandler)
				})
			})

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", cardHandler.ListHandler)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cardHandler.GetHandler)
					r.Put("/enable", cardHandler.EnableHandler)
					r.Put("/disable", cardHandler.DisableHandler)
					r.Post("/withdraw", cardHandler.WithdrawHandler)
					r.Post("/deposit", cardHandler.DepositHandler)
					r.Get("/balance", cardHandler.BalanceHandler)
				})
			})
		})
	})
}

// homeHandler greets the caller and lists the registered routes. routes is
// walked per request so that routes added after registration show up too.
func homeHandler(routes chi.Routes, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var listed []string
		err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			listed = append(listed, method+" "+route)
			return nil
		})
		if err != nil {
			logger.Error("Failed to walk routes", zap.Error(err))
		}
		sort.Strings(listed)
		writeJSON(w, logger, http.StatusOK, map[string]any{
			"message": "Welcome to Bering Bank!",
			"routes":  listed,
		})
	}
}

func readinessHandler(checks map[string]Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				logger.Warn("Readiness check failed", zap.String("check", name), zap.Error(err))
				report[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}
		writeJSON(w, logger, status, report)
	}
}
