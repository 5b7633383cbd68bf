package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/jmoiron/sqlx"
)

// ExpenseFilter narrows ListByUser. Zero values mean "no filter".
type ExpenseFilter struct {
	CategoryID string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

type ExpensesRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, e model.Expense) error
	Update(ctx context.Context, tx *sqlx.Tx, e model.Expense) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, userID, id string) (bool, error)
	GetByID(ctx context.Context, userID, id string) (*model.Expense, error)
	ListByUser(ctx context.Context, userID string, f ExpenseFilter) ([]model.Expense, error)
}

type ExpensesRepositoryImpl struct {
	db *sqlx.DB
}

func NewExpensesRepository(db *sqlx.DB) *ExpensesRepositoryImpl {
	return &ExpensesRepositoryImpl{db: db}
}

var _ ExpensesRepository = (*ExpensesRepositoryImpl)(nil)

func (r *ExpensesRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

func (r *ExpensesRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, e model.Expense) error {
	const q = `
		INSERT INTO expenses
		    (id, user_id, category_id, amount_tzs, description, expense_date, created_at, updated_at)
		VALUES
		    (?,  ?,       ?,           ?,          ?,           ?,            NOW(),      NOW())
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			e.ID, e.UserID, e.CategoryID, e.AmountTZS, e.Description, e.ExpenseDate,
		)
		return err
	})
}

func (r *ExpensesRepositoryImpl) Update(ctx context.Context, tx *sqlx.Tx, e model.Expense) (bool, error) {
	const q = `
		UPDATE expenses
		   SET category_id = ?, amount_tzs = ?, description = ?, expense_date = ?, updated_at = NOW()
		 WHERE user_id = ? AND id = ?
	`
	var updated bool
	err := r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q,
			e.CategoryID, e.AmountTZS, e.Description, e.ExpenseDate, e.UserID, e.ID,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		updated = n > 0
		return nil
	})
	return updated, err
}

func (r *ExpensesRepositoryImpl) Delete(ctx context.Context, tx *sqlx.Tx, userID, id string) (bool, error) {
	var deleted bool
	err := r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM expenses WHERE user_id = ? AND id = ?`, userID, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	return deleted, err
}

func (r *ExpensesRepositoryImpl) GetByID(ctx context.Context, userID, id string) (*model.Expense, error) {
	var e model.Expense
	err := r.db.GetContext(ctx, &e, `
		SELECT id, user_id, category_id, amount_tzs, description, expense_date, created_at, updated_at
		  FROM expenses
		 WHERE user_id = ? AND id = ? LIMIT 1
	`, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExpensesRepositoryImpl) ListByUser(ctx context.Context, userID string, f ExpenseFilter) ([]model.Expense, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, user_id, category_id, amount_tzs, description, expense_date, created_at, updated_at
		  FROM expenses
		 WHERE user_id = ?`)
	args := []any{userID}

	if f.CategoryID != "" {
		sb.WriteString(` AND category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		sb.WriteString(` AND expense_date >= ?`)
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		sb.WriteString(` AND expense_date <= ?`)
		args = append(args, f.To)
	}

	sb.WriteString(` ORDER BY expense_date DESC, id DESC`)

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, limit, f.Offset)

	var exps []model.Expense
	if err := r.db.SelectContext(ctx, &exps, sb.String(), args...); err != nil {
		return nil, err
	}
	return exps, nil
}
