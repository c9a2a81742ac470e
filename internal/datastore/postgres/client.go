// Package postgres connects straight to the database behind the REST interface.
// Every statement runs as the database role the forwarded token maps to, with the
// token claims published the way PostgREST does, so row-level policies apply unchanged.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense-api/internal/auth"
	"expense-api/internal/datastore"
	"expense-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// SQLSTATE codes with a specific mapping
const (
	insufficientPrivilege = "42501"
	invalidPassword       = "28P01"
)

// Config holds the pool settings
type Config struct {
	DatabaseURL string
	MaxConns    int32
	Verifier    *auth.Verifier
	Logger      *logrus.Logger
}

// Connector owns the connection pool shared by all request clients
type Connector struct {
	pool     *pgxpool.Pool
	verifier *auth.Verifier
	logger   *logrus.Logger
}

// NewConnector creates the pool and checks that the database answers
func NewConnector(ctx context.Context, cfg Config) (*Connector, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewConnectorWithPool(pool, cfg.Verifier, cfg.Logger), nil
}

// NewConnectorWithPool wraps an existing pool
func NewConnectorWithPool(pool *pgxpool.Pool, verifier *auth.Verifier, logger *logrus.Logger) *Connector {
	if verifier == nil {
		verifier = auth.NewVerifier("")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Connector{
		pool:     pool,
		verifier: verifier,
		logger:   logger,
	}
}

// Connect resolves the caller's claims. Without a token the client acts as anon.
func (c *Connector) Connect(ctx context.Context, authorization string) (datastore.Client, error) {
	claims := &auth.Claims{Role: auth.RoleAnon}

	if strings.TrimSpace(authorization) != "" {
		parsed, err := c.verifier.Parse(authorization)
		if err != nil {
			return nil, datastore.NewStoreError("connect", "", fmt.Errorf("%w: %v", datastore.ErrUnauthorized, err))
		}
		claims = parsed
	}

	encoded, err := json.Marshal(claims)
	if err != nil {
		return nil, datastore.NewStoreError("connect", "", err)
	}

	return &Client{
		pool:   c.pool,
		role:   claims.EffectiveRole(),
		claims: string(encoded),
		logger: c.logger,
	}, nil
}

// Close closes the pool
func (c *Connector) Close() error {
	c.pool.Close()
	return nil
}

// Client runs statements as one token's role
type Client struct {
	pool   *pgxpool.Pool
	role   string
	claims string
	logger *logrus.Logger
}

// Insert writes one expense. created_at and id are left to column defaults.
func (c *Client) Insert(ctx context.Context, table string, expense *models.Expense) error {
	columns := []string{"expense_name", "expense_desc", "expense_amount", "expense_emoji", "expense_ts", "group_id"}
	args := []interface{}{
		expense.ExpenseName,
		expense.ExpenseDesc,
		expense.ExpenseAmount,
		expense.ExpenseEmoji,
		expense.ExpenseTS.Time,
		expense.GroupID,
	}
	if expense.UserID != "" {
		columns = append(columns, "user_id")
		args = append(args, expense.UserID)
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	return c.inTx(ctx, "insert", table, query, args, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, args...)
		return err
	})
}

// Select returns the visible rows whose filter column lies in [From, To]
func (c *Client) Select(ctx context.Context, table string, filter datastore.RangeFilter) ([]models.Expense, error) {
	if filter.Column == "" {
		return nil, datastore.NewStoreError("select", table, datastore.ErrUnsupported)
	}

	column := pgx.Identifier{filter.Column}.Sanitize()
	query := fmt.Sprintf(`
		SELECT id, expense_name, expense_desc, expense_amount::float8, expense_emoji,
			   expense_ts, user_id::text, group_id::text, created_at
		FROM %s
		WHERE %s >= $1 AND %s <= $2
		ORDER BY %s, id`, pgx.Identifier{table}.Sanitize(), column, column, column)
	args := []interface{}{filter.From.UTC(), filter.To.UTC()}

	expenses := []models.Expense{}
	err := c.inTx(ctx, "select", table, query, args, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			expense, err := scanExpense(rows)
			if err != nil {
				return err
			}
			expenses = append(expenses, *expense)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return expenses, nil
}

// inTx runs fn in a transaction scoped to the client's role and claims
func (c *Client) inTx(ctx context.Context, op, table, query string, args []interface{}, fn func(pgx.Tx) error) error {
	start := time.Now()
	err := pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT set_config('request.jwt.claims', $1, true), set_config('role', $2, true)", c.claims, c.role); err != nil {
			return err
		}
		return fn(tx)
	})
	c.logQuery(op, table, query, args, time.Since(start), err)

	if err != nil {
		return classifyError(op, table, err)
	}
	return nil
}

func scanExpense(rows pgx.Rows) (*models.Expense, error) {
	var (
		id        int64
		userID    *string
		expenseTS time.Time
		createdAt *time.Time
	)

	expense := &models.Expense{}
	err := rows.Scan(
		&id,
		&expense.ExpenseName,
		&expense.ExpenseDesc,
		&expense.ExpenseAmount,
		&expense.ExpenseEmoji,
		&expenseTS,
		&userID,
		&expense.GroupID,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	expense.ID = &id
	expense.ExpenseTS = models.NewTimestamp(expenseTS)
	if userID != nil {
		expense.UserID = *userID
	}
	if createdAt != nil {
		ts := models.NewTimestamp(*createdAt)
		expense.CreatedAt = &ts
	}

	return expense, nil
}

// classifyError maps driver errors onto the datastore error kinds
func classifyError(op, table string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return datastore.NewStoreError(op, table, fmt.Errorf("%w: %v", datastore.ErrUnavailable, err))
	}

	var kind error
	switch {
	case pgErr.Code == insufficientPrivilege || pgErr.Code == invalidPassword:
		kind = datastore.ErrUnauthorized
	case strings.HasPrefix(pgErr.Code, "22"), strings.HasPrefix(pgErr.Code, "23"), strings.HasPrefix(pgErr.Code, "42"):
		kind = datastore.ErrRejected
	default:
		kind = datastore.ErrUnavailable
	}

	storeErr := datastore.NewStoreError(op, table, kind)
	storeErr.Code = pgErr.Code
	storeErr.Detail = pgErr.Message
	if pgErr.Detail != "" {
		storeErr.Detail += " (" + pgErr.Detail + ")"
	}
	return storeErr
}

// logQuery logs a statement with its execution time
func (c *Client) logQuery(operation, table, query string, args []interface{}, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": operation,
		"table":     table,
		"query":     strings.Join(strings.Fields(query), " "),
		"args":      args,
		"duration":  duration,
		"role":      c.role,
	}

	if err != nil {
		fields["error"] = err.Error()
		c.logger.WithFields(fields).Error("Query failed")
	} else {
		c.logger.WithFields(fields).Debug("Query executed")
	}
}
