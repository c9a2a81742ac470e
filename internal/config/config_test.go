package config

import (
	"errors"
	"testing"
	"time"
)

var configKeys = []string{
	"PORT", "ENVIRONMENT", "LOG_LEVEL", "STORE_BACKEND", "SUPABASE_URL", "SUPABASE_ANON_KEY",
	"DATABASE_URL", "SQLITE_PATH", "JWT_SECRET", "STORE_TIMEOUT", "STRICT_ROUTING",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8081" {
		t.Errorf("Expected default port 8081, got %s", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected development environment, got %s", cfg.Environment)
	}
	if cfg.Store.Backend != BackendPostgREST {
		t.Errorf("Expected postgrest backend, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Timeout != 10*time.Second {
		t.Errorf("Expected 10s store timeout, got %v", cfg.Store.Timeout)
	}
	if cfg.Routing.Strict {
		t.Error("Expected strict routing to be off by default")
	}
	if cfg.RateLimit.RequestsPerSecond != 100 || cfg.RateLimit.Burst != 200 {
		t.Errorf("Unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
	t.Setenv("STORE_BACKEND", "PostgREST")
	t.Setenv("STORE_TIMEOUT", "3s")
	t.Setenv("STRICT_ROUTING", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Store.URL != "https://project.supabase.co" {
		t.Errorf("Unexpected URL: %s", cfg.Store.URL)
	}
	if cfg.Store.AnonKey != "anon-key" {
		t.Errorf("Unexpected anon key: %s", cfg.Store.AnonKey)
	}
	if cfg.Store.Backend != BackendPostgREST {
		t.Errorf("Expected backend to be normalised, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Timeout != 3*time.Second {
		t.Errorf("Expected 3s timeout, got %v", cfg.Store.Timeout)
	}
	if !cfg.Routing.Strict {
		t.Error("Expected strict routing")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		store   StoreConfig
		wantErr bool
	}{
		{"postgrest ok", StoreConfig{Backend: BackendPostgREST, URL: "http://127.0.0.1:54321", AnonKey: "key"}, false},
		{"postgrest missing url", StoreConfig{Backend: BackendPostgREST, AnonKey: "key"}, true},
		{"postgrest relative url", StoreConfig{Backend: BackendPostgREST, URL: "project.supabase.co", AnonKey: "key"}, true},
		{"postgrest missing key", StoreConfig{Backend: BackendPostgREST, URL: "https://project.supabase.co"}, true},
		{"postgres ok", StoreConfig{Backend: BackendPostgres, DatabaseURL: "postgres://localhost/db"}, false},
		{"postgres missing url", StoreConfig{Backend: BackendPostgres}, true},
		{"sqlite ok", StoreConfig{Backend: BackendSQLite, SQLitePath: "./data/x.db"}, false},
		{"sqlite missing path", StoreConfig{Backend: BackendSQLite}, true},
		{"unknown backend", StoreConfig{Backend: "mongo"}, true},
		{"negative timeout", StoreConfig{Backend: BackendSQLite, SQLitePath: "x.db", Timeout: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Store: tt.store}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadValidated_MissingStoreSettings(t *testing.T) {
	clearConfigEnv(t)

	if _, err := LoadValidated(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
