package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"expense-api/internal/auth"
	"expense-api/internal/config"
	"expense-api/internal/logging"
	"expense-api/internal/models"
	"expense-api/pkg/lambda"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "container-secret"

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Port:        "8080",
		Store: config.StoreConfig{
			Backend:    config.BackendSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "expenses.db"),
			JWTSecret:  testSecret,
		},
	}
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role:             auth.RoleAuthenticated,
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Bearer " + token
}

// TestNewContainer verifies that the container can be created successfully
func TestNewContainer(t *testing.T) {
	container, err := NewContainer(sqliteConfig(t), logging.Discard())
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}

	if container.ExpenseService == nil {
		t.Error("ExpenseService is nil")
	}
	if container.ExpenseHandler == nil {
		t.Error("ExpenseHandler is nil")
	}

	if err := container.Close(); err != nil {
		t.Errorf("Failed to close container: %v", err)
	}
}

func TestNewContainer_Errors(t *testing.T) {
	if _, err := NewContainer(nil, logging.Discard()); err == nil {
		t.Error("Expected error for nil config")
	}

	cfg := sqliteConfig(t)
	cfg.Store.Backend = "mongo"
	if _, err := NewContainer(cfg, logging.Discard()); err == nil {
		t.Error("Expected error for unknown backend")
	}

	cfg.Store.Backend = config.BackendPostgREST
	if _, err := NewContainer(cfg, logging.Discard()); err == nil {
		t.Error("Expected error for postgrest without URL")
	}
}

func TestContainer_CreateThenRead(t *testing.T) {
	container, err := NewContainer(sqliteConfig(t), logging.Discard())
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	defer container.Close()

	ctx := context.Background()
	authorization := bearer(t, "user-1")

	bodies := []string{
		`{"expense":{"expense_name":"Coffee","expense_amount":3.25,"expense_emoji":"☕","expense_ts":"2024-01-15T08:00:00Z"}}`,
		`{"expense":{"expense_name":"Lunch","expense_amount":12.5,"expense_emoji":"🍜","expense_ts":"2024-01-15T23:59:59Z","id":7}}`,
		`{"expense":{"expense_name":"Tomorrow","expense_amount":99,"expense_emoji":"📅","expense_ts":"2024-01-16T00:00:00Z"}}`,
	}
	for _, body := range bodies {
		resp := container.ExpenseHandler.ServeRequest(ctx, &lambda.Request{
			Method:  "POST",
			Path:    "/functions/v1/expense",
			Headers: map[string]string{"Authorization": authorization},
			Body:    []byte(body),
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", resp.StatusCode, resp.Body)
		}
	}

	resp := container.ExpenseHandler.ServeRequest(ctx, &lambda.Request{
		Method:      "GET",
		Path:        "/functions/v1/expense",
		Headers:     map[string]string{"Authorization": authorization},
		QueryParams: map[string]string{"specificDate": "01-15-2024"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}

	var summary models.DailySummary
	if err := json.Unmarshal(resp.Body, &summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if summary.TotalAmount != 15.75 || len(summary.Expenses) != 2 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	for _, e := range summary.Expenses {
		if e.UserID != "user-1" {
			t.Errorf("Expected owner from token, got %q", e.UserID)
		}
		if e.ID != nil && *e.ID == 7 {
			t.Error("Client-supplied id must not be stored")
		}
	}

	// Another user sees none of it
	resp = container.ExpenseHandler.ServeRequest(ctx, &lambda.Request{
		Method:      "GET",
		Path:        "/expense",
		Headers:     map[string]string{"Authorization": bearer(t, "user-2")},
		QueryParams: map[string]string{"specificDate": "01-15-2024"},
	})
	if string(resp.Body) != `{"total_amount":0,"expenses":[]}` {
		t.Errorf("Expected empty summary for another user, got %s", resp.Body)
	}
}

func TestContainer_UnauthenticatedCreateFails(t *testing.T) {
	container, err := NewContainer(sqliteConfig(t), logging.Discard())
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	defer container.Close()

	resp := container.ExpenseHandler.ServeRequest(context.Background(), &lambda.Request{
		Method: "POST",
		Path:   "/expense",
		Body:   []byte(`{"expense":{"expense_name":"x","expense_amount":1,"expense_emoji":"y","expense_ts":"` + time.Now().UTC().Format(time.RFC3339) + `"}}`),
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500 when the store refuses, got %d", resp.StatusCode)
	}
}
