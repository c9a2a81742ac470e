package services

import (
	"context"

	"expense-api/internal/models"
)

// ExpenseService defines the interface for expense business logic operations.
// authorization is the caller's Authorization header, forwarded to the store unchanged.
type ExpenseService interface {
	// CreateExpense stores one expense on behalf of the caller
	CreateExpense(ctx context.Context, authorization string, req *CreateExpenseRequest) error

	// GetDailySummary returns the caller's expenses inside the window and their total
	GetDailySummary(ctx context.Context, authorization string, window models.DayWindow) (*models.DailySummary, error)
}

// Request types

// CreateExpenseRequest is the body of a create call
type CreateExpenseRequest struct {
	Expense *models.Expense `json:"expense"`
}
