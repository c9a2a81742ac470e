// Package sqlite is a local stand-in for the hosted store. It applies the same
// per-user row policy the hosted expenses table enforces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense-api/internal/auth"
	"expense-api/internal/database"
	"expense-api/internal/datastore"
	"expense-api/internal/models"

	"github.com/sirupsen/logrus"
)

// storedTimeLayout keeps every stored timestamp the same width, so text order is time order
const storedTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// tables lists the tables and the columns a range filter may use
var tables = map[string]map[string]bool{
	models.ExpensesTable: {
		models.ExpenseTimestampColumn: true,
		"created_at":                  true,
	},
}

// Connector hands out clients bound to the caller's token claims
type Connector struct {
	manager  *database.ConnectionManager
	verifier *auth.Verifier
	logger   *logrus.Logger
}

// NewConnector connects the database (running migrations when enabled) and returns a connector
func NewConnector(manager *database.ConnectionManager, verifier *auth.Verifier, logger *logrus.Logger) (*Connector, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if verifier == nil {
		verifier = auth.NewVerifier("")
	}
	if manager.GetDB() == nil {
		if err := manager.Connect(); err != nil {
			return nil, err
		}
	}
	return &Connector{
		manager:  manager,
		verifier: verifier,
		logger:   logger,
	}, nil
}

// Connect parses the forwarded token. A missing or unreadable token is refused.
func (c *Connector) Connect(ctx context.Context, authorization string) (datastore.Client, error) {
	claims, err := c.verifier.Parse(authorization)
	if err != nil {
		c.logger.WithError(err).Debug("Rejected store credentials")
		return nil, datastore.NewStoreError("connect", "", fmt.Errorf("%w: %v", datastore.ErrUnauthorized, err))
	}

	return &Client{
		db:     c.manager.GetDB(),
		claims: claims,
		logger: c.logger,
	}, nil
}

// Close closes the underlying database
func (c *Connector) Close() error {
	return c.manager.Close()
}

// Client runs statements on behalf of one token subject
type Client struct {
	db     *sql.DB
	claims *auth.Claims
	logger *logrus.Logger
}

// Insert writes one expense. The row must belong to the token subject.
func (c *Client) Insert(ctx context.Context, table string, expense *models.Expense) error {
	if _, ok := tables[table]; !ok {
		return datastore.NewStoreError("insert", table, datastore.ErrUnsupported)
	}

	if expense.UserID == "" || expense.UserID != c.claims.UserID() || c.claims.EffectiveRole() != auth.RoleAuthenticated {
		storeErr := datastore.NewStoreError("insert", table, datastore.ErrUnauthorized)
		storeErr.Code = "42501"
		storeErr.Detail = fmt.Sprintf("new row violates row-level security policy for table %q", table)
		return storeErr
	}

	createdAt := time.Now().UTC()
	if expense.CreatedAt != nil && !expense.CreatedAt.IsZero() {
		createdAt = expense.CreatedAt.UTC()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			expense_name, expense_desc, expense_amount, expense_emoji,
			expense_ts, user_id, group_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, table)

	args := []interface{}{
		expense.ExpenseName,
		expense.ExpenseDesc,
		expense.ExpenseAmount,
		expense.ExpenseEmoji,
		formatTime(expense.ExpenseTS.Time),
		expense.UserID,
		expense.GroupID,
		formatTime(createdAt),
	}

	start := time.Now()
	_, err := c.db.ExecContext(ctx, query, args...)
	c.logQuery("insert", table, query, args, time.Since(start), err)

	if err != nil {
		return classifyError("insert", table, err)
	}
	return nil
}

// Select returns the subject's rows whose filter column lies in [From, To]
func (c *Client) Select(ctx context.Context, table string, filter datastore.RangeFilter) ([]models.Expense, error) {
	columns, ok := tables[table]
	if !ok || !columns[filter.Column] {
		return nil, datastore.NewStoreError("select", table, datastore.ErrUnsupported)
	}

	query := fmt.Sprintf(`
		SELECT id, expense_name, expense_desc, expense_amount, expense_emoji,
			   expense_ts, user_id, group_id, created_at
		FROM %s
		WHERE user_id = ? AND %s >= ? AND %s <= ?
		ORDER BY %s, id`, table, filter.Column, filter.Column, filter.Column)

	args := []interface{}{
		c.claims.UserID(),
		formatTime(filter.From),
		formatTime(filter.To),
	}

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query, args...)
	c.logQuery("select", table, query, args, time.Since(start), err)
	if err != nil {
		return nil, classifyError("select", table, err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, datastore.NewStoreError("select", table, err)
		}
		expenses = append(expenses, *expense)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyError("select", table, err)
	}

	return expenses, nil
}

func scanExpense(rows *sql.Rows) (*models.Expense, error) {
	var (
		id          int64
		desc        sql.NullString
		groupID     sql.NullString
		expenseTS   string
		createdAtTS string
	)

	expense := &models.Expense{}
	err := rows.Scan(
		&id,
		&expense.ExpenseName,
		&desc,
		&expense.ExpenseAmount,
		&expense.ExpenseEmoji,
		&expenseTS,
		&expense.UserID,
		&groupID,
		&createdAtTS,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	expense.ID = &id
	if desc.Valid {
		expense.ExpenseDesc = &desc.String
	}
	if groupID.Valid {
		expense.GroupID = &groupID.String
	}

	if expense.ExpenseTS, err = models.ParseTimestamp(expenseTS); err != nil {
		return nil, err
	}
	createdAt, err := models.ParseTimestamp(createdAtTS)
	if err != nil {
		return nil, err
	}
	expense.CreatedAt = &createdAt

	return expense, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

// classifyError maps driver errors onto the datastore error kinds
func classifyError(op, table string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return datastore.NewStoreError(op, table, fmt.Errorf("%w: %v", datastore.ErrUnavailable, err))
	}

	msg := err.Error()
	if strings.Contains(msg, "constraint failed") {
		storeErr := datastore.NewStoreError(op, table, datastore.ErrRejected)
		storeErr.Detail = msg
		return storeErr
	}

	return datastore.NewStoreError(op, table, fmt.Errorf("%w: %v", datastore.ErrUnavailable, err))
}

// logQuery logs a statement with its execution time
func (c *Client) logQuery(operation, table, query string, args []interface{}, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": operation,
		"table":     table,
		"query":     strings.Join(strings.Fields(query), " "),
		"args":      args,
		"duration":  duration,
		"user_id":   c.claims.UserID(),
	}

	if err != nil {
		fields["error"] = err.Error()
		c.logger.WithFields(fields).Error("Query failed")
	} else {
		c.logger.WithFields(fields).Debug("Query executed")
	}
}
