package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/outbox"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/repository"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/util"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserDeactivated    = errors.New("user deactivated")
)

// Service owns the user_management use cases. Every mutation writes its
// domain event through the outbox appender in the same transaction.
type Service struct {
	db       *sqlx.DB
	users    repository.UsersRepository
	appender *outbox.Appender

	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
}

func New(
	db *sqlx.DB,
	usersRepo repository.UsersRepository,
	appender *outbox.Appender,
	jwtSecret string,
	tokenTTL time.Duration,
) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		db:         db,
		users:      usersRepo,
		appender:   appender,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register hashes the password and writes the user row and its
// UserRegistered event in a single transaction.
func (s *Service) Register(ctx context.Context, cmd model.RegisterUserCommand) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := model.User{
		ID:           util.New(),
		Email:        cmd.Email,
		PasswordHash: string(hash),
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		Status:       model.UserStatusActive,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.users.Insert(ctx, tx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	_, err = s.appender.Append(ctx, tx, model.EventUserRegistered, &u.ID, model.UserRegisteredEvent{
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate verifies credentials and issues an HS256 JWT.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, *model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	switch u.Status {
	case model.UserStatusActive:
		// ok
	case model.UserStatusDeactivated:
		return "", nil, ErrUserDeactivated
	default:
		return "", nil, fmt.Errorf("unknown user status %q", u.Status)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, u, nil
}

// Deactivate flips the user to deactivated and appends the UserDeactivated
// event in the same transaction. Deactivating twice is a no-op.
func (s *Service) Deactivate(ctx context.Context, cmd model.DeactivateUserCommand) error {
	u, err := s.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}

	switch u.Status {
	case model.UserStatusDeactivated:
		return nil
	case model.UserStatusActive:
		// proceed
	default:
		return fmt.Errorf("unknown user status %q", u.Status)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	changed, err := s.users.UpdateStatus(ctx, tx, u.ID, model.UserStatusActive, model.UserStatusDeactivated)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if !changed {
		// a concurrent request already flipped the status and appended its event
		return nil
	}

	_, err = s.appender.Append(ctx, tx, model.EventUserDeactivated, &u.ID, model.UserDeactivatedEvent{
		UserID: u.ID,
	})
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	return tx.Commit()
}
