package datastore

import (
	"errors"
	"fmt"
)

// Common datastore errors
var (
	// ErrUnauthorized is returned when the store rejects the forwarded credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRejected is returned when the store refuses the request (constraint, policy, bad filter)
	ErrRejected = errors.New("request rejected by store")

	// ErrUnavailable is returned on transport failures and store-side 5xx answers
	ErrUnavailable = errors.New("store unavailable")

	// ErrUnsupported is returned when a table or column is not known to the backend
	ErrUnsupported = errors.New("unsupported table or column")
)

// StoreError represents a datastore error with additional context
type StoreError struct {
	Op     string // Operation that failed ("insert", "select", "connect")
	Table  string // Table involved
	Status int    // HTTP status when the backend speaks HTTP
	Code   string // Store error code (PostgREST / SQLSTATE)
	Err    error  // Underlying error
	Detail string // Human-readable message from the store
}

// Error implements the error interface
func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s %s failed: %v", e.Table, e.Op, e.Err)
	if e.Table == "" {
		msg = fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	if e.Code != "" {
		msg += fmt.Sprintf(" (code %s)", e.Code)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the underlying error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new store error
func NewStoreError(op, table string, err error) *StoreError {
	return &StoreError{
		Op:    op,
		Table: table,
		Err:   err,
	}
}

// IsUnauthorized checks if an error is an authorization rejection
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsUnavailable checks if an error is a transport or store-side failure
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
