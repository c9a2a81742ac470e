package services

import (
	"context"

	"expense-api/internal/auth"
	"expense-api/internal/datastore"
	"expense-api/internal/models"

	"github.com/sirupsen/logrus"
)

// expenseService implements the ExpenseService interface
type expenseService struct {
	connector datastore.Connector
	logger    *logrus.Logger
}

// NewExpenseService creates a new expense service instance
func NewExpenseService(connector datastore.Connector, logger *logrus.Logger) ExpenseService {
	if logger == nil {
		logger = logrus.New()
	}
	return &expenseService{
		connector: connector,
		logger:    logger,
	}
}

// CreateExpense validates the payload and inserts it with the caller's credentials
func (s *expenseService) CreateExpense(ctx context.Context, authorization string, req *CreateExpenseRequest) error {
	const op = "create_expense"

	if req == nil || req.Expense == nil {
		return ValidationError(op, "request body must contain an expense object", nil)
	}
	if s.connector == nil {
		return ConfigurationError(op, "no data service configured")
	}

	expense := *req.Expense
	if err := expense.Validate(); err != nil {
		return ValidationError(op, "invalid expense", err)
	}

	expense.ClearStoreAssigned()
	if expense.UserID == "" {
		expense.UserID = auth.SubjectFromAuthorization(authorization)
	}

	client, err := s.connector.Connect(ctx, authorization)
	if err != nil {
		return UpstreamError(op, err)
	}

	if err := client.Insert(ctx, models.ExpensesTable, &expense); err != nil {
		return UpstreamError(op, err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":        expense.UserID,
		"expense_amount": expense.Amount(),
	}).Debug("Expense created")

	return nil
}

// GetDailySummary reads the window's expenses and adds up their amounts
func (s *expenseService) GetDailySummary(ctx context.Context, authorization string, window models.DayWindow) (*models.DailySummary, error) {
	const op = "get_daily_summary"

	if s.connector == nil {
		return nil, ConfigurationError(op, "no data service configured")
	}

	client, err := s.connector.Connect(ctx, authorization)
	if err != nil {
		return nil, UpstreamError(op, err)
	}

	expenses, err := client.Select(ctx, models.ExpensesTable, datastore.RangeFilter{
		Column: models.ExpenseTimestampColumn,
		From:   window.From,
		To:     window.To,
	})
	if err != nil {
		return nil, UpstreamError(op, err)
	}

	summary := models.NewDailySummary(expenses)

	s.logger.WithFields(logrus.Fields{
		"window":       window.String(),
		"count":        len(summary.Expenses),
		"total_amount": summary.TotalAmount,
	}).Debug("Daily summary computed")

	return summary, nil
}
