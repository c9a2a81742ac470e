package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"expense-api/internal/auth"
	"expense-api/internal/datastore"
	"expense-api/internal/logging"
	"expense-api/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func signedBearer(t *testing.T, secret string, claims auth.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Bearer " + token
}

func TestConnector_ConnectClaims(t *testing.T) {
	connector := NewConnectorWithPool(nil, auth.NewVerifier("secret"), logging.Discard())

	tests := []struct {
		name          string
		authorization string
		wantRole      string
		wantSub       string
	}{
		{"no token acts as anon", "", auth.RoleAnon, ""},
		{
			"user token",
			signedBearer(t, "secret", auth.Claims{Role: auth.RoleAuthenticated, RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}),
			auth.RoleAuthenticated,
			"user-1",
		},
		{
			"anon key token",
			signedBearer(t, "secret", auth.Claims{Role: auth.RoleAnon}),
			auth.RoleAnon,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := connector.Connect(context.Background(), tt.authorization)
			if err != nil {
				t.Fatalf("Connect() failed: %v", err)
			}

			c := client.(*Client)
			if c.role != tt.wantRole {
				t.Errorf("Expected role %q, got %q", tt.wantRole, c.role)
			}

			var published map[string]interface{}
			if err := json.Unmarshal([]byte(c.claims), &published); err != nil {
				t.Fatalf("claims are not JSON: %v", err)
			}
			sub, _ := published["sub"].(string)
			if sub != tt.wantSub {
				t.Errorf("Expected sub %q, got %q", tt.wantSub, sub)
			}
		})
	}
}

func TestConnector_ConnectRejectsBadSignature(t *testing.T) {
	connector := NewConnectorWithPool(nil, auth.NewVerifier("secret"), logging.Discard())

	authorization := signedBearer(t, "other", auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	if _, err := connector.Connect(context.Background(), authorization); !datastore.IsUnauthorized(err) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"rls violation", &pgconn.PgError{Code: "42501", Message: "new row violates row-level security policy"}, datastore.ErrUnauthorized},
		{"not null", &pgconn.PgError{Code: "23502", Message: "null value in column"}, datastore.ErrRejected},
		{"bad timestamp", &pgconn.PgError{Code: "22007", Message: "invalid input syntax for type timestamp"}, datastore.ErrRejected},
		{"undefined table", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, datastore.ErrRejected},
		{"admin shutdown", &pgconn.PgError{Code: "57P01", Message: "terminating connection"}, datastore.ErrUnavailable},
		{"wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), datastore.ErrRejected},
		{"network", errors.New("dial tcp: connection refused"), datastore.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError("insert", models.ExpensesTable, tt.err)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestConnector_Database runs against a real database when EXPENSE_TEST_DATABASE_URL is set
func TestConnector_Database(t *testing.T) {
	dsn := os.Getenv("EXPENSE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("EXPENSE_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	connector, err := NewConnector(ctx, Config{DatabaseURL: dsn, MaxConns: 2, Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("NewConnector() failed: %v", err)
	}
	defer connector.Close()

	client, err := connector.Connect(ctx, "")
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	window := models.NewDayWindow(time.Now())
	expenses, err := client.Select(ctx, models.ExpensesTable, datastore.RangeFilter{
		Column: models.ExpenseTimestampColumn,
		From:   window.From,
		To:     window.To,
	})
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if expenses == nil {
		t.Error("Expected non-nil slice")
	}
}
