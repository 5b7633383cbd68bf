package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// ErrDuplicateKey maps MySQL's duplicate-entry error (1062) so services can
// turn unique-constraint violations into domain errors.
var ErrDuplicateKey = errors.New("duplicate key")

func translateDup(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return ErrDuplicateKey
	}
	return err
}

type UsersRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, u model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, id string, from, to model.UserStatus) (bool, error)
}

type UsersRepositoryImpl struct {
	db *sqlx.DB
}

func NewUsersRepository(db *sqlx.DB) *UsersRepositoryImpl {
	return &UsersRepositoryImpl{db: db}
}

var _ UsersRepository = (*UsersRepositoryImpl)(nil)

func (r *UsersRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
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

func (r *UsersRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, u model.User) error {
	const q = `
		INSERT INTO users
		    (id, email, password_hash, first_name, last_name, status, created_at, updated_at)
		VALUES
		    (?,  ?,     ?,             ?,          ?,         ?,      NOW(),      NOW())
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Status.String(),
		)
		return translateDup(err)
	})
}

func (r *UsersRepositoryImpl) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		SELECT id, email, password_hash, first_name, last_name, status, created_at, updated_at
		  FROM users
		 WHERE email = ? LIMIT 1
	`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UsersRepositoryImpl) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		SELECT id, email, password_hash, first_name, last_name, status, created_at, updated_at
		  FROM users
		 WHERE id = ? LIMIT 1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateStatus flips status only when the row is still in the from state.
// Returns false when no row matched, so concurrent flips resolve to one winner.
func (r *UsersRepositoryImpl) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id string, from, to model.UserStatus) (bool, error) {
	const q = `UPDATE users SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?`
	var changed bool
	err := r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q, to.String(), id, from.String())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		changed = n > 0
		return nil
	})
	return changed, err
}
