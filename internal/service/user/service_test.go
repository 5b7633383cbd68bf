package user

import (
	"context"
	"testing"
	"time"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsersRepo struct {
	user *model.User

	statusCalls int
}

func (f *fakeUsersRepo) Insert(_ context.Context, _ *sqlx.Tx, _ model.User) error { return nil }

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	return nil, nil
}

func (f *fakeUsersRepo) UpdateStatus(_ context.Context, _ *sqlx.Tx, _ string, from, to model.UserStatus) (bool, error) {
	f.statusCalls++
	if f.user == nil || f.user.Status != from {
		return false, nil
	}
	f.user.Status = to
	return true, nil
}

func demoUser(t *testing.T, status model.UserStatus) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("super-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &model.User{
		ID:           "u1",
		Email:        "asha@example.com",
		PasswordHash: string(hash),
		FirstName:    "Asha",
		LastName:     "Mushi",
		Status:       status,
	}
}

func TestAuthenticate(t *testing.T) {
	repo := &fakeUsersRepo{user: demoUser(t, model.UserStatusActive)}
	svc := New(nil, repo, nil, "unit-test-secret", time.Hour)

	ctx := context.Background()

	t.Run("valid credentials issue a token", func(t *testing.T) {
		token, u, err := svc.Authenticate(ctx, "asha@example.com", "super-secret")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "u1", u.ID)

		parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
			return []byte("unit-test-secret"), nil
		})
		require.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, "u1", claims["sub"])
		assert.Equal(t, "asha@example.com", claims["email"])
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Authenticate(ctx, "asha@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Authenticate(ctx, "nobody@example.com", "super-secret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("deactivated account", func(t *testing.T) {
		repo := &fakeUsersRepo{user: demoUser(t, model.UserStatusDeactivated)}
		svc := New(nil, repo, nil, "unit-test-secret", time.Hour)
		_, _, err := svc.Authenticate(ctx, "asha@example.com", "super-secret")
		assert.ErrorIs(t, err, ErrUserDeactivated)
	})
}

func TestDeactivateAlreadyDeactivatedIsNoOp(t *testing.T) {
	repo := &fakeUsersRepo{user: demoUser(t, model.UserStatusDeactivated)}
	svc := New(nil, repo, nil, "unit-test-secret", time.Hour)

	cmd, err := model.NewDeactivateUserCommand("u1")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), cmd))
	assert.Zero(t, repo.statusCalls, "no update and no second event for an already-deactivated user")
}

func TestDeactivateUnknownUser(t *testing.T) {
	svc := New(nil, &fakeUsersRepo{}, nil, "unit-test-secret", time.Hour)

	cmd, err := model.NewDeactivateUserCommand("missing")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Deactivate(context.Background(), cmd), ErrUserNotFound)
}

func TestUpdateStatusIsConditional(t *testing.T) {
	repo := &fakeUsersRepo{user: demoUser(t, model.UserStatusActive)}

	changed, err := repo.UpdateStatus(context.Background(), nil, "u1", model.UserStatusActive, model.UserStatusDeactivated)
	require.NoError(t, err)
	assert.True(t, changed)

	// the losing side of a concurrent flip sees no row change
	changed, err = repo.UpdateStatus(context.Background(), nil, "u1", model.UserStatusActive, model.UserStatusDeactivated)
	require.NoError(t, err)
	assert.False(t, changed)
}
