package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	TwelveAPIKey   string
	Symbol         string
	Interval       string
	BacktestDays   int
	InitialCapital float64
	TakeProfitPct  float64 // fraction, 0 disables
	StopLossPct    float64 // fraction, 0 disables
	LogLevel       string
	RequestTimeout int // seconds
	RequestsPerSec int
	MaxRetries     int
	// MarketDataFallback substitutes synthetic candles when fetching fails.
	MarketDataFallback bool
	SandboxTimeoutMS   int
	ScriptMaxSteps     int
	Debug              bool

	OrderQuantity float64
	BrokerURL     string
	BrokerAPIKey  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	TelegramBotToken string
	TelegramChatID   int64

	ArenaWorkers int
	SweepFile    string
	SignalsFile  string
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	return fromEnv()
}

func fromEnv() (*Config, error) {
	var cfg Config

	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.Symbol = getEnvWithDefault("SYMBOL", "EUR/USD")
	cfg.Interval = getEnvWithDefault("INTERVAL", "1h")
	cfg.BacktestDays = getEnvIntWithDefault("BACKTEST_DAYS", 30)
	cfg.InitialCapital = getEnvFloatWithDefault("INITIAL_CAPITAL", 10000)
	cfg.TakeProfitPct = getEnvFloatWithDefault("TAKE_PROFIT_PCT", 0)
	cfg.StopLossPct = getEnvFloatWithDefault("STOP_LOSS_PCT", 0)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.MaxRetries = getEnvIntWithDefault("MAX_RETRIES", 3)
	cfg.MarketDataFallback = getEnvBoolWithDefault("MARKET_DATA_FALLBACK", false)
	cfg.SandboxTimeoutMS = getEnvIntWithDefault("SANDBOX_TIMEOUT_MS", 2000)
	cfg.ScriptMaxSteps = getEnvIntWithDefault("SCRIPT_MAX_STEPS", 1_000_000)
	cfg.Debug = getEnvBoolWithDefault("DEBUG", false)

	cfg.OrderQuantity = getEnvFloatWithDefault("ORDER_QUANTITY", 1)
	cfg.BrokerURL = os.Getenv("BROKER_URL")
	cfg.BrokerAPIKey = os.Getenv("BROKER_API_KEY")

	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "signallab")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = int64(getEnvIntWithDefault("TELEGRAM_CHAT_ID", 0))

	cfg.ArenaWorkers = getEnvIntWithDefault("ARENA_WORKERS", 4)
	cfg.SweepFile = getEnvWithDefault("SWEEP_FILE", "sweep.yaml")
	cfg.SignalsFile = getEnvWithDefault("SIGNALS_FILE", "signals.yaml")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.InitialCapital <= 0 {
		errs = append(errs, fmt.Errorf("INITIAL_CAPITAL must be positive, got %v", c.InitialCapital))
	}
	if c.BacktestDays <= 0 {
		errs = append(errs, fmt.Errorf("BACKTEST_DAYS must be positive, got %d", c.BacktestDays))
	}
	if c.ArenaWorkers <= 0 {
		errs = append(errs, fmt.Errorf("ARENA_WORKERS must be positive, got %d", c.ArenaWorkers))
	}
	if c.SandboxTimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("SANDBOX_TIMEOUT_MS must be positive, got %d", c.SandboxTimeoutMS))
	}
	return errors.Join(errs...)
}

// SandboxTimeout bounds a single module call.
func (c *Config) SandboxTimeout() time.Duration {
	return time.Duration(c.SandboxTimeoutMS) * time.Millisecond
}

// HTTPTimeout bounds a single outbound request.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// DatabaseEnabled reports whether signals are read from Postgres.
func (c *Config) DatabaseEnabled() bool {
	return c.DBHost != ""
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid integer, using default")
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid number, using default")
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
