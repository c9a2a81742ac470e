package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SpecificDateLayout is the layout of the specificDate query parameter (MM-DD-YYYY)
const SpecificDateLayout = "01-02-2006"

// Expense represents a single monetary record owned by a user
type Expense struct {
	ID            *int64     `json:"id,omitempty" db:"id"`
	ExpenseName   string     `json:"expense_name" db:"expense_name" validate:"required"`
	ExpenseDesc   *string    `json:"expense_desc" db:"expense_desc"`
	ExpenseAmount *float64   `json:"expense_amount" db:"expense_amount" validate:"required"`
	ExpenseEmoji  string     `json:"expense_emoji" db:"expense_emoji" validate:"required"`
	ExpenseTS     Timestamp  `json:"expense_ts" db:"expense_ts" validate:"required"`
	UserID        string     `json:"user_id,omitempty" db:"user_id"`
	GroupID       *string    `json:"group_id" db:"group_id"`
	CreatedAt     *Timestamp `json:"created_at,omitempty" db:"created_at"`
}

// NewExpense creates an expense with the required fields set
func NewExpense(name, emoji string, amount float64, ts time.Time) *Expense {
	return &Expense{
		ExpenseName:   name,
		ExpenseEmoji:  emoji,
		ExpenseAmount: &amount,
		ExpenseTS:     NewTimestamp(ts),
	}
}

// Amount returns expense_amount, or 0 when it is unset
func (e *Expense) Amount() float64 {
	if e.ExpenseAmount == nil {
		return 0
	}
	return *e.ExpenseAmount
}

// Validate validates the expense data
func (e *Expense) Validate() error {
	if err := ValidateStruct(e); err != nil {
		return err
	}
	if strings.TrimSpace(e.ExpenseName) == "" {
		return &ValidationError{Field: "expense_name", Message: "expense_name is required"}
	}
	return nil
}

// ClearStoreAssigned drops the fields the store assigns on insert
func (e *Expense) ClearStoreAssigned() {
	e.ID = nil
	e.CreatedAt = nil
}

// DayWindow is an inclusive timestamp window covering one calendar day
type DayWindow struct {
	From time.Time
	To   time.Time
}

// ParseSpecificDate expands a MM-DD-YYYY date into the window [00:00:00, 23:59:59] of that day
func ParseSpecificDate(value string) (DayWindow, error) {
	day, err := time.ParseInLocation(SpecificDateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return DayWindow{}, &ValidationError{
			Field:   "specificDate",
			Message: "specificDate must be in MM-DD-YYYY format",
			Value:   value,
		}
	}
	return NewDayWindow(day), nil
}

// NewDayWindow returns the window of the calendar day t falls on
func NewDayWindow(t time.Time) DayWindow {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return DayWindow{
		From: start,
		To:   start.Add(24*time.Hour - time.Second),
	}
}

// Contains reports whether t falls inside the window, both ends inclusive
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// String formats the window for logs
func (w DayWindow) String() string {
	return fmt.Sprintf("[%s, %s]", w.From.Format(time.RFC3339), w.To.Format(time.RFC3339))
}

// DailySummary is the aggregated answer for a single day
type DailySummary struct {
	TotalAmount float64   `json:"total_amount"`
	Expenses    []Expense `json:"expenses"`
}

// NewDailySummary builds a summary over the given expenses
func NewDailySummary(expenses []Expense) *DailySummary {
	if expenses == nil {
		expenses = []Expense{}
	}
	return &DailySummary{
		TotalAmount: SumAmounts(expenses),
		Expenses:    expenses,
	}
}

// SumAmounts adds up expense_amount using decimal arithmetic
func SumAmounts(expenses []Expense) float64 {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(decimal.NewFromFloat(e.Amount()))
	}
	return total.InexactFloat64()
}

// DateRange echoes the fromDate/toDate pair back to the caller
type DateRange struct {
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
}
