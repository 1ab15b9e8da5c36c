package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

type Config struct {
	HTTPPort int `env:"BANK_HTTP_PORT"`

	DBConfig struct {
		DBHost     string `env:"BANK_DB_HOST"`
		DBPort     int    `env:"BANK_DB_PORT"`
		DBUser     string `env:"BANK_DB_USER"`
		DBPassword string `env:"BANK_DB_PASSWORD"`
		DBName     string `env:"BANK_DB_NAME"`
		DBSSLMode  string `env:"BANK_DB_SSLMODE"`
	}
	MigrationsPath string `env:"MIGRATIONS_PATH"`
	RepoBackend    string `env:"REPO_BACKEND"`

	SessionBackend      string        `env:"SESSION_BACKEND"`
	RedisAddr           string        `env:"REDIS_ADDR"`
	RedisPassword       string        `env:"REDIS_PASSWORD"`
	RedisDB             int           `env:"REDIS_DB"`
	SecretKey           string        `env:"SECRET_KEY"`
	SessionTTL          time.Duration `env:"SESSION_TTL"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE"`

	BankID                   string `env:"BANK_ID"`
	AccountNumberDigits      int    `env:"ACCOUNT_NUMBER_DIGITS"`
	AccountNumberMaxAttempts int    `env:"ACCOUNT_NUMBER_MAX_ATTEMPTS"`
	BcryptCost               int    `env:"BCRYPT_COST"`

	KafkaBrokerURL       string `env:"KAFKA_BROKER_URL"`
	KafkaBankEventsTopic string `env:"KAFKA_BANK_EVENTS_TOPIC"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxPollTimeout  time.Duration `env:"OUTBOX_POLL_TIMEOUT"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
	LogLevel           string `env:"LOG_LEVEL"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}

	cfg.HTTPPort = getEnvAsInt("BANK_HTTP_PORT", 8080)

	cfg.DBConfig.DBHost = getEnvOrDefault("BANK_DB_HOST", "localhost")
	cfg.DBConfig.DBPort = getEnvAsInt("BANK_DB_PORT", 5432)
	cfg.DBConfig.DBUser = getEnvOrDefault("BANK_DB_USER", "user")
	cfg.DBConfig.DBPassword = getEnvOrDefault("BANK_DB_PASSWORD", "password")
	cfg.DBConfig.DBName = getEnvOrDefault("BANK_DB_NAME", "bank_db")
	cfg.DBConfig.DBSSLMode = getEnvOrDefault("BANK_DB_SSLMODE", "disable")
	cfg.MigrationsPath = getEnvOrDefault("MIGRATIONS_PATH", "file://migrations")
	cfg.RepoBackend = strings.ToLower(getEnvOrDefault("REPO_BACKEND", BackendPostgres))

	cfg.SessionBackend = strings.ToLower(getEnvOrDefault("SESSION_BACKEND", BackendRedis))
	cfg.RedisAddr = getEnvOrDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvAsInt("REDIS_DB", 0)
	cfg.SecretKey = getEnvOrDefault("SECRET_KEY", "")
	cfg.SessionTTL = getEnvAsDuration("SESSION_TTL", 24*time.Hour)
	cfg.SessionCookieSecure = getEnvAsBool("SESSION_COOKIE_SECURE", false)

	cfg.BankID = getEnvOrDefault("BANK_ID", "555511")
	cfg.AccountNumberDigits = getEnvAsInt("ACCOUNT_NUMBER_DIGITS", 7)
	cfg.AccountNumberMaxAttempts = getEnvAsInt("ACCOUNT_NUMBER_MAX_ATTEMPTS", 10)
	cfg.BcryptCost = getEnvAsInt("BCRYPT_COST", 10)

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaBankEventsTopic = getEnvOrDefault("KAFKA_BANK_EVENTS_TOPIC", "bank_events")

	cfg.OutboxPollInterval = getEnvAsDuration("OUTBOX_POLL_INTERVAL", 1*time.Second)
	cfg.OutboxPollTimeout = getEnvAsDuration("OUTBOX_POLL_TIMEOUT", 500*time.Millisecond)
	cfg.OutboxBatchSize = getEnvAsInt("OUTBOX_BATCH_SIZE", 10)

	cfg.CORSAllowedOrigins = getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY must be set")
	}
	if c.RepoBackend != BackendPostgres && c.RepoBackend != BackendMemory {
		return fmt.Errorf("unsupported REPO_BACKEND %q", c.RepoBackend)
	}
	if c.SessionBackend != BackendRedis && c.SessionBackend != BackendMemory {
		return fmt.Errorf("unsupported SESSION_BACKEND %q", c.SessionBackend)
	}
	for _, r := range c.BankID {
		if r < '0' || r > '9' {
			return fmt.Errorf("BANK_ID must be numeric, got %q", c.BankID)
		}
	}
	if c.BankID == "" {
		return errors.New("BANK_ID must be set")
	}
	if c.AccountNumberDigits <= 0 {
		return fmt.Errorf("ACCOUNT_NUMBER_DIGITS must be positive, got %d", c.AccountNumberDigits)
	}
	if c.AccountNumberMaxAttempts <= 0 {
		return fmt.Errorf("ACCOUNT_NUMBER_MAX_ATTEMPTS must be positive, got %d", c.AccountNumberMaxAttempts)
	}
	return nil
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

// GetKafkaBrokers returns nil when no broker is configured, which turns the
// outbox relay off.
func (c *Config) GetKafkaBrokers() []string {
	if strings.TrimSpace(c.KafkaBrokerURL) == "" {
		return nil
	}
	return strings.Split(c.KafkaBrokerURL, ",")
}

func (c *Config) GetCORSAllowedOrigins() []string {
	return strings.Split(c.CORSAllowedOrigins, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnvOrDefault(key, strconv.FormatBool(defaultValue))
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
