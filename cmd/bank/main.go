package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bank/internal/allocator"
	"bank/internal/app/accounts"
	"bank/internal/app/cards"
	"bank/internal/app/users"
	"bank/internal/config"
	"bank/internal/credential"
	"bank/internal/domain"
	bank_http "bank/internal/handler/http/bank"
	"bank/internal/infrastructure/database"
	kafka_infra "bank/internal/infrastructure/kafka"
	"bank/internal/infrastructure/session"
	"bank/internal/outbox"
	"bank/internal/repository/account_numbers_repo"
	account_numbers_pg "bank/internal/repository/account_numbers_repo/postgres"
	"bank/internal/repository/accounts_repo"
	accounts_pg "bank/internal/repository/accounts_repo/postgres"
	"bank/internal/repository/cards_repo"
	cards_pg "bank/internal/repository/cards_repo/postgres"
	"bank/internal/repository/memory"
	"bank/internal/repository/outbox_repo"
	outbox_pg "bank/internal/repository/outbox_repo/postgres"
	"bank/internal/repository/users_repo"
	users_pg "bank/internal/repository/users_repo/postgres"
)

type repositories struct {
	db             domain.Querier
	tx             domain.Transactor
	ping           bank_http.Pinger
	users          users_repo.UserRepository
	accounts       accounts_repo.AccountRepository
	cards          cards_repo.CardRepository
	accountNumbers account_numbers_repo.AccountNumberRepository
	outbox         outbox_repo.OutboxRepository
	close          func()
}

type sqlPinger struct {
	db *sql.DB
}

func (p sqlPinger) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func connectPostgres(cfg *config.Config, logger *zap.Logger) *repositories {
	logger.Info("Waiting for database to be available...")
	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.DBHost,
		Port:     cfg.DBConfig.DBPort,
		User:     cfg.DBConfig.DBUser,
		Password: cfg.DBConfig.DBPassword,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.DBSSLMode,
	}

	var (
		db  *sql.DB
		err error
	)
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			logger.Info("Successfully connected to PostgreSQL database!")
			break
		}
		logger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}
	if db == nil {
		logger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.MigrationsPath, cfg.GetDBMigrationConnectionString(), logger); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	return &repositories{
		db:             db,
		tx:             database.NewTransactor(db, logger.With(zap.String("component", "Transactor"))),
		ping:           sqlPinger{db: db},
		users:          users_pg.NewUserRepository(),
		accounts:       accounts_pg.NewAccountRepository(),
		cards:          cards_pg.NewCardRepository(),
		accountNumbers: account_numbers_pg.NewAccountNumberRepository(),
		outbox:         outbox_pg.NewOutboxRepository(),
		close: func() {
			if err := db.Close(); err != nil {
				logger.Error("Error closing database connection", zap.Error(err))
			} else {
				logger.Info("Database connection closed.")
			}
		},
	}
}

func newMemoryRepositories(logger *zap.Logger) *repositories {
	logger.Warn("Using in-memory repositories; data is lost on restart")
	store := memory.NewStore()
	return &repositories{
		tx:             store,
		ping:           store,
		users:          memory.NewUserRepository(store),
		accounts:       memory.NewAccountRepository(store),
		cards:          memory.NewCardRepository(store),
		accountNumbers: memory.NewAccountNumberRepository(store),
		outbox:         memory.NewOutboxRepository(store),
		close:          func() {},
	}
}

type sessionBackend struct {
	store session.Store
	ping  bank_http.Pinger
	close func()
}

func newSessionBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) sessionBackend {
	if cfg.SessionBackend == config.BackendMemory {
		logger.Warn("Using in-memory session store; sessions are lost on restart")
		store := session.NewMemoryStore(cfg.SessionTTL)
		return sessionBackend{store: store, ping: store, close: func() {}}
	}

	client, err := session.NewRedisClient(ctx, session.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	logger.Info("Connected to Redis session store", zap.String("addr", cfg.RedisAddr))
	store := session.NewRedisStore(client, cfg.SessionTTL)
	return sessionBackend{
		store: store,
		ping:  store,
		close: func() {
			if err := client.Close(); err != nil {
				logger.Error("Error closing Redis client", zap.Error(err))
			}
		},
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapConfig.Level = level
	}

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()
	appLogger.Info("Bank Service starting...", zap.String("repo_backend", cfg.RepoBackend), zap.String("session_backend", cfg.SessionBackend))

	var repos *repositories
	if cfg.RepoBackend == config.BackendMemory {
		repos = newMemoryRepositories(appLogger)
	} else {
		repos = connectPostgres(cfg, appLogger)
	}
	defer repos.close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStartup()

	sessions := newSessionBackend(startupCtx, cfg, appLogger)
	defer sessions.close()

	numberAllocator, err := allocator.New(
		cfg.BankID,
		cfg.AccountNumberDigits,
		cfg.AccountNumberMaxAttempts,
		repos.accountNumbers,
		appLogger.With(zap.String("component", "AccountNumberAllocator")),
	)
	if err != nil {
		appLogger.Fatal("Failed to create account number allocator", zap.Error(err))
	}
	hasher := credential.NewBcrypt(cfg.BcryptCost)

	userService := users.NewUserService(
		repos.db,
		repos.tx,
		repos.users,
		repos.accounts,
		repos.cards,
		hasher,
		appLogger.With(zap.String("component", "UserService")),
	)
	accountService := accounts.NewAccountService(
		repos.db,
		repos.tx,
		repos.accounts,
		repos.cards,
		repos.outbox,
		numberAllocator,
		hasher,
		cfg.KafkaBankEventsTopic,
		appLogger.With(zap.String("component", "AccountService")),
	)
	cardService := cards.NewCardService(
		repos.db,
		repos.tx,
		repos.cards,
		repos.accounts,
		repos.outbox,
		hasher,
		cfg.KafkaBankEventsTopic,
		appLogger.With(zap.String("component", "CardService")),
	)
	appLogger.Info("Bank services initialized.")

	router := bank_http.NewRouter(bank_http.Dependencies{
		Users:          userService,
		Accounts:       accountService,
		Cards:          cardService,
		Sessions:       session.NewManager(sessions.store, cfg.SecretKey, cfg.SessionTTL),
		CookieSecure:   cfg.SessionCookieSecure,
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
		Readiness: map[string]bank_http.Pinger{
			"repository": repos.ping,
			"sessions":   sessions.ping,
		},
		Logger: appLogger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	appLogger.Info("HTTP server configured.")

	ctxMain, cancelMain := context.WithCancel(context.Background())
	defer cancelMain()

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	processorDone := make(chan struct{})
	kafkaBrokers := cfg.GetKafkaBrokers()
	if len(kafkaBrokers) == 0 {
		appLogger.Warn("No Kafka brokers configured; outbox events stay pending")
		close(processorDone)
	} else {
		if err := kafka_infra.EnsureTopics(startupCtx, kafkaBrokers, []string{cfg.KafkaBankEventsTopic}, appLogger); err != nil {
			appLogger.Warn("Failed to ensure Kafka topics; relay will keep retrying", zap.Error(err))
		}

		kafkaProducer := kafka_infra.NewProducer(kafkaBrokers, appLogger.With(zap.String("component", "KafkaProducer")))
		defer func() {
			if err := kafkaProducer.Close(); err != nil {
				appLogger.Error("Error closing Kafka producer", zap.Error(err))
			} else {
				appLogger.Info("Kafka producer closed.")
			}
		}()

		outboxProcessor := outbox.NewProcessor(
			repos.db,
			repos.tx,
			repos.outbox,
			kafkaProducer,
			cfg.OutboxPollInterval,
			cfg.OutboxPollTimeout,
			cfg.OutboxBatchSize,
			appLogger.With(zap.String("component", "OutboxProcessor")),
		)
		go func() {
			defer close(processorDone)
			appLogger.Info("Starting Outbox Processor...")
			outboxProcessor.Start(ctxMain)
			appLogger.Info("Outbox Processor stopped.")
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	appLogger.Info("Shutting down application...")
	cancelMain()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		appLogger.Info("HTTP server gracefully shut down.")
	}

	select {
	case <-processorDone:
	case <-shutdownCtx.Done():
		appLogger.Warn("Outbox Processor did not stop before the shutdown deadline.")
	}

	appLogger.Info("Application gracefully shut down.")
}
