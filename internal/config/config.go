package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Database driver constants
const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverMySQL    = "mysql"
)

type Config struct {
	// Server settings
	ServerAddr string

	// Database
	DatabaseDriver string // "sqlite", "postgres" or "mysql"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Logging
	LogLevel string // debug, info, warn, error

	// Admin API
	AdminToken string // Bearer secret for /api/v1 (empty disables the check)

	// Reporting
	HistoricalDays int // Default window for historical grant reports

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	TokenInfoRateLimit       int    // Requests per minute per IP on /oauth/tokeninfo
	AdminRateLimit           int    // Requests per minute per IP on /api/v1
	RateLimitCleanupInterval time.Duration

	// Redis (rate limit store)
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisConnTimeout time.Duration

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string // Bearer secret for /metrics (empty disables the check)
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration

	// Timeouts
	DBInitTimeout         time.Duration
	DBCloseTimeout        time.Duration
	ServerShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", DatabaseDriverSQLite)
	var dsn string
	if driver == DatabaseDriverSQLite {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "tokens.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:     getEnv("SERVER_ADDR", ":8080"),
		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AdminToken:     getEnv("ADMIN_TOKEN", ""),
		HistoricalDays: getEnvInt("HISTORICAL_DAYS", 60),

		// Rate limiting
		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		TokenInfoRateLimit:       getEnvInt("TOKENINFO_RATE_LIMIT", 120),
		AdminRateLimit:           getEnvInt("ADMIN_RATE_LIMIT", 60),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),

		// Redis
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisConnTimeout: getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),

		// Metrics
		MetricsEnabled:            getEnvBool("METRICS_ENABLED", false),
		MetricsToken:              getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateEnabled: getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration(
			"METRICS_GAUGE_UPDATE_INTERVAL",
			5*time.Minute,
		),

		// Timeouts
		DBInitTimeout:         getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		DBCloseTimeout:        getEnvDuration("DB_CLOSE_TIMEOUT", 5*time.Second),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// Validate checks the configuration for values that would fail at startup
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DatabaseDriverSQLite, DatabaseDriverPostgres, DatabaseDriverMySQL:
	default:
		return fmt.Errorf(
			"invalid DATABASE_DRIVER value: %q (must be sqlite, postgres or mysql)",
			c.DatabaseDriver,
		)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required when DATABASE_DRIVER=%s", c.DatabaseDriver)
	}
	if c.HistoricalDays <= 0 {
		return fmt.Errorf("HISTORICAL_DAYS must be positive, got %d", c.HistoricalDays)
	}
	if c.EnableRateLimit {
		switch c.RateLimitStore {
		case RateLimitStoreMemory:
		case RateLimitStoreRedis:
			if c.RedisAddr == "" {
				return errors.New("REDIS_ADDR is required when RATE_LIMIT_STORE=redis")
			}
		default:
			return fmt.Errorf(
				"invalid RATE_LIMIT_STORE value: %q (must be memory or redis)",
				c.RateLimitStore,
			)
		}
		if c.TokenInfoRateLimit <= 0 || c.AdminRateLimit <= 0 {
			return errors.New("rate limits must be positive when ENABLE_RATE_LIMIT=true")
		}
	}
	if c.MetricsEnabled && c.MetricsGaugeUpdateEnabled && c.MetricsGaugeUpdateInterval <= 0 {
		return fmt.Errorf(
			"METRICS_GAUGE_UPDATE_INTERVAL must be positive, got %s",
			c.MetricsGaugeUpdateInterval,
		)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
