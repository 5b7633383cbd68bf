package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/jmoiron/sqlx"
)

type CategoriesRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, c model.Category) error
	GetByID(ctx context.Context, userID, id string) (*model.Category, error)
	ListByUser(ctx context.Context, userID string) ([]model.Category, error)
	Delete(ctx context.Context, tx *sqlx.Tx, userID, id string) (bool, error)
}

type CategoriesRepositoryImpl struct {
	db *sqlx.DB
}

func NewCategoriesRepository(db *sqlx.DB) *CategoriesRepositoryImpl {
	return &CategoriesRepositoryImpl{db: db}
}

var _ CategoriesRepository = (*CategoriesRepositoryImpl)(nil)

func (r *CategoriesRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
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

// Insert relies on uq_categories_user_name; a duplicate name for the same
// user surfaces as ErrDuplicateKey.
func (r *CategoriesRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, c model.Category) error {
	const q = `
		INSERT INTO categories (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, NOW(), NOW())
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, c.ID, c.UserID, c.Name)
		return translateDup(err)
	})
}

func (r *CategoriesRepositoryImpl) GetByID(ctx context.Context, userID, id string) (*model.Category, error) {
	var c model.Category
	err := r.db.GetContext(ctx, &c, `
		SELECT id, user_id, name, created_at, updated_at
		  FROM categories
		 WHERE user_id = ? AND id = ? LIMIT 1
	`, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoriesRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]model.Category, error) {
	var cats []model.Category
	err := r.db.SelectContext(ctx, &cats, `
		SELECT id, user_id, name, created_at, updated_at
		  FROM categories
		 WHERE user_id = ?
		 ORDER BY name ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *CategoriesRepositoryImpl) Delete(ctx context.Context, tx *sqlx.Tx, userID, id string) (bool, error) {
	var deleted bool
	err := r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM categories WHERE user_id = ? AND id = ?`, userID, id)
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
