// Package datastore defines the data service client the expense handler talks to.
//
// A Connector is created once per process from configuration. Connect is called for every
// inbound request with the forwarded Authorization header and returns a Client scoped to
// those credentials; the store's own row-level policy decides what that client may see.
package datastore

import (
	"context"
	"time"

	"expense-api/internal/models"
)

// Connector creates request-scoped clients
type Connector interface {
	// Connect returns a client that acts with the given Authorization header value
	Connect(ctx context.Context, authorization string) (Client, error)

	// Close releases process-wide resources such as connection pools
	Close() error
}

// Client performs authenticated reads and writes against the relational store
type Client interface {
	// Insert writes one expense into the named table
	Insert(ctx context.Context, table string, expense *models.Expense) error

	// Select returns every row of the named table whose filter column lies within the range
	Select(ctx context.Context, table string, filter RangeFilter) ([]models.Expense, error)
}

// RangeFilter selects rows with From <= Column <= To
type RangeFilter struct {
	Column string
	From   time.Time
	To     time.Time
}

// ConnectorFunc adapts a function to the Connector interface
type ConnectorFunc func(ctx context.Context, authorization string) (Client, error)

// Connect calls f
func (f ConnectorFunc) Connect(ctx context.Context, authorization string) (Client, error) {
	return f(ctx, authorization)
}

// Close is a no-op
func (f ConnectorFunc) Close() error {
	return nil
}
