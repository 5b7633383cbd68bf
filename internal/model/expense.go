package model

import "time"

// MaxExpenseAmountTZS is the inclusive upper bound for a single expense.
const MaxExpenseAmountTZS int64 = 1_000_000

// Expense is the DB entity persisted in the expenses table.
// AmountTZS is strictly positive and capped at MaxExpenseAmountTZS;
// the constructor commands reject anything outside that range and the
// chk_expenses_amount constraint mirrors it at the persistence boundary.
type Expense struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	CategoryID  *string   `db:"category_id"` // nullable
	AmountTZS   int64     `db:"amount_tzs"`
	Description string    `db:"description"`
	ExpenseDate time.Time `db:"expense_date"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
