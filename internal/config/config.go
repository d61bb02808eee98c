package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Bank     BankConfig
	Policy   PolicyConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects the transaction store driver.
type StoreConfig struct {
	// Driver is either "postgres" or "memory".
	Driver string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// BankConfig holds bank authorization endpoint configuration.
type BankConfig struct {
	BaseURL string
	APIKey  string

	// CallTimeout bounds a single authorization call.
	CallTimeout time.Duration

	// MaxAttempts caps authorization attempts per transaction; only
	// indeterminate outcomes are retried.
	MaxAttempts int

	// BackoffBase and BackoffMax shape the exponential backoff between
	// retries.
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// OverallTimeout bounds the whole authorize-with-retry loop,
	// independent of per-call timeouts.
	OverallTimeout time.Duration

	// UseMock replaces the HTTP client with an always-approving mock.
	UseMock bool
}

// PolicyConfig holds payment policy configuration.
type PolicyConfig struct {
	SupportedCurrencies []string
	KnownMerchants      []string
	MaxAmountMinor      int64
	MaxInstrumentLength int
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", "postgres"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "payment_gateway"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "payment-gateway"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Bank: BankConfig{
			BaseURL:        getEnv("BANK_BASE_URL", "http://localhost:9090"),
			APIKey:         getEnv("BANK_API_KEY", ""),
			CallTimeout:    getDurationEnv("BANK_CALL_TIMEOUT", 5*time.Second),
			MaxAttempts:    getIntEnv("BANK_MAX_ATTEMPTS", 3),
			BackoffBase:    getDurationEnv("BANK_BACKOFF_BASE", 200*time.Millisecond),
			BackoffMax:     getDurationEnv("BANK_BACKOFF_MAX", 2*time.Second),
			OverallTimeout: getDurationEnv("BANK_OVERALL_TIMEOUT", 30*time.Second),
			UseMock:        getBoolEnv("BANK_USE_MOCK", false),
		},
		Policy: PolicyConfig{
			SupportedCurrencies: getListEnv("POLICY_CURRENCIES", []string{"USD", "EUR", "GBP"}),
			KnownMerchants:      getListEnv("POLICY_MERCHANTS", []string{"merchant-demo"}),
			MaxAmountMinor:      getInt64Env("POLICY_MAX_AMOUNT_MINOR", 10_000_00),
			MaxInstrumentLength: getIntEnv("POLICY_MAX_INSTRUMENT_LENGTH", 64),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
