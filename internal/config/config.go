package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends
const (
	BackendPostgREST = "postgrest"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the application
type Config struct {
	Environment string
	Port        string
	LogLevel    string
	Store       StoreConfig
	Routing     RoutingConfig
	RateLimit   RateLimitConfig
}

// StoreConfig holds the data service configuration
type StoreConfig struct {
	Backend     string // "postgrest", "postgres" or "sqlite"
	URL         string
	AnonKey     string
	DatabaseURL string
	SQLitePath  string
	JWTSecret   string
	Timeout     time.Duration
}

// RoutingConfig controls how unmatched methods are answered
type RoutingConfig struct {
	Strict bool
}

// RateLimitConfig holds the local server rate limiter settings
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8081")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_BACKEND", BackendPostgREST)
	v.SetDefault("SQLITE_PATH", "./data/expenses.db")
	v.SetDefault("STORE_TIMEOUT", "10s")
	v.SetDefault("STRICT_ROUTING", false)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	config := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Store: StoreConfig{
			Backend:     strings.ToLower(v.GetString("STORE_BACKEND")),
			URL:         v.GetString("SUPABASE_URL"),
			AnonKey:     v.GetString("SUPABASE_ANON_KEY"),
			DatabaseURL: v.GetString("DATABASE_URL"),
			SQLitePath:  v.GetString("SQLITE_PATH"),
			JWTSecret:   v.GetString("JWT_SECRET"),
			Timeout:     v.GetDuration("STORE_TIMEOUT"),
		},
		Routing: RoutingConfig{
			Strict: v.GetBool("STRICT_ROUTING"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	return config, nil
}

// Validate checks that the selected backend has everything it needs
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendPostgREST:
		if strings.TrimSpace(c.Store.URL) == "" {
			return fmt.Errorf("%w: SUPABASE_URL is required", ErrInvalidConfig)
		}
		u, err := url.Parse(c.Store.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: SUPABASE_URL must be an absolute URL, got %q", ErrInvalidConfig, c.Store.URL)
		}
		if strings.TrimSpace(c.Store.AnonKey) == "" {
			return fmt.Errorf("%w: SUPABASE_ANON_KEY is required", ErrInvalidConfig)
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Store.DatabaseURL) == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres backend", ErrInvalidConfig)
		}
	case BackendSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return fmt.Errorf("%w: SQLITE_PATH is required for the sqlite backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", ErrInvalidConfig, c.Store.Backend)
	}

	if c.Store.Timeout < 0 {
		return fmt.Errorf("%w: STORE_TIMEOUT cannot be negative", ErrInvalidConfig)
	}

	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
