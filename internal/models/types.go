package models

import (
	"time"
)

// Common constants
const (
	// ExpensesTable is the table every expense is written to and read from
	ExpensesTable = "expenses"

	// ExpenseTimestampColumn is the event time column used for day filtering
	ExpenseTimestampColumn = "expense_ts"
)

// HealthCheck represents system health status
type HealthCheck struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Backend   string    `json:"backend"`
}
