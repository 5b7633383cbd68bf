package expense

import (
	"context"
	"errors"
	"fmt"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/outbox"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/repository"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/util"
	"github.com/jmoiron/sqlx"
)

var (
	ErrCategoryExists   = errors.New("category name already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrExpenseNotFound  = errors.New("expense not found")
)

// Service owns the expense_management use cases: categories and expenses,
// tenant-scoped by user id. Every mutation writes its domain event through
// the outbox appender in the same transaction as the row change.
type Service struct {
	db       *sqlx.DB
	cats     repository.CategoriesRepository
	exps     repository.ExpensesRepository
	appender *outbox.Appender
}

func New(
	db *sqlx.DB,
	categoriesRepo repository.CategoriesRepository,
	expensesRepo repository.ExpensesRepository,
	appender *outbox.Appender,
) *Service {
	return &Service{
		db:       db,
		cats:     categoriesRepo,
		exps:     expensesRepo,
		appender: appender,
	}
}

func (s *Service) CreateCategory(ctx context.Context, cmd model.CreateCategoryCommand) (*model.Category, error) {
	c := model.Category{
		ID:     util.New(),
		UserID: cmd.UserID,
		Name:   cmd.Name,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.cats.Insert(ctx, tx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}

	_, err = s.appender.Append(ctx, tx, model.EventCategoryCreated, &c.ID, model.CategoryCreatedEvent{
		CategoryID: c.ID,
		UserID:     c.UserID,
		Name:       c.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := s.cats.Delete(ctx, tx, userID, categoryID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if !deleted {
		return ErrCategoryNotFound
	}

	_, err = s.appender.Append(ctx, tx, model.EventCategoryDeleted, &categoryID, model.CategoryDeletedEvent{
		CategoryID: categoryID,
		UserID:     userID,
	})
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	return tx.Commit()
}

func (s *Service) ListCategories(ctx context.Context, userID string) ([]model.Category, error) {
	return s.cats.ListByUser(ctx, userID)
}

func (s *Service) CreateExpense(ctx context.Context, cmd model.CreateExpenseCommand) (*model.Expense, error) {
	if err := s.checkCategory(ctx, cmd.UserID, cmd.CategoryID); err != nil {
		return nil, err
	}

	e := model.Expense{
		ID:          util.New(),
		UserID:      cmd.UserID,
		CategoryID:  cmd.CategoryID,
		AmountTZS:   cmd.AmountTZS,
		Description: cmd.Description,
		ExpenseDate: cmd.ExpenseDate,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.exps.Insert(ctx, tx, e); err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}

	_, err = s.appender.Append(ctx, tx, model.EventExpenseCreated, &e.ID, model.ExpenseCreatedEvent{
		ExpenseID:   e.ID,
		UserID:      e.UserID,
		CategoryID:  e.CategoryID,
		AmountTZS:   e.AmountTZS,
		Description: e.Description,
		ExpenseDate: e.ExpenseDate,
	})
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) UpdateExpense(ctx context.Context, cmd model.UpdateExpenseCommand) (*model.Expense, error) {
	if err := s.checkCategory(ctx, cmd.UserID, cmd.CategoryID); err != nil {
		return nil, err
	}

	e := model.Expense{
		ID:          cmd.ExpenseID,
		UserID:      cmd.UserID,
		CategoryID:  cmd.CategoryID,
		AmountTZS:   cmd.AmountTZS,
		Description: cmd.Description,
		ExpenseDate: cmd.ExpenseDate,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	updated, err := s.exps.Update(ctx, tx, e)
	if err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}
	if !updated {
		return nil, ErrExpenseNotFound
	}

	_, err = s.appender.Append(ctx, tx, model.EventExpenseUpdated, &e.ID, model.ExpenseUpdatedEvent{
		ExpenseID:   e.ID,
		UserID:      e.UserID,
		CategoryID:  e.CategoryID,
		AmountTZS:   e.AmountTZS,
		Description: e.Description,
		ExpenseDate: e.ExpenseDate,
	})
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := s.exps.Delete(ctx, tx, userID, expenseID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if !deleted {
		return ErrExpenseNotFound
	}

	_, err = s.appender.Append(ctx, tx, model.EventExpenseDeleted, &expenseID, model.ExpenseDeletedEvent{
		ExpenseID: expenseID,
		UserID:    userID,
	})
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	return tx.Commit()
}

func (s *Service) GetExpense(ctx context.Context, userID, expenseID string) (*model.Expense, error) {
	e, err := s.exps.GetByID(ctx, userID, expenseID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}
	return e, nil
}

func (s *Service) ListExpenses(ctx context.Context, userID string, f repository.ExpenseFilter) ([]model.Expense, error) {
	return s.exps.ListByUser(ctx, userID, f)
}

// checkCategory rejects expenses pointing at a category the user does not own.
func (s *Service) checkCategory(ctx context.Context, userID string, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	c, err := s.cats.GetByID(ctx, userID, *categoryID)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if c == nil {
		return ErrCategoryNotFound
	}
	return nil
}
