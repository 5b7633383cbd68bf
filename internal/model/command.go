package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalidCommand wraps every command validation failure so handlers can
// map the whole family to a client error.
var ErrInvalidCommand = errors.New("invalid command")

const (
	maxNameLen        = 100
	maxDescriptionLen = 300
	minPasswordLen    = 8
)

// RegisterUserCommand is a validated request to create a user.
// Construct through NewRegisterUserCommand; a zero value is not usable.
type RegisterUserCommand struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func NewRegisterUserCommand(email, password, firstName, lastName string) (RegisterUserCommand, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	if email == "" {
		return RegisterUserCommand{}, fmt.Errorf("%w: email is required", ErrInvalidCommand)
	}
	if !strings.Contains(email, "@") {
		return RegisterUserCommand{}, fmt.Errorf("%w: email is malformed", ErrInvalidCommand)
	}
	if len(password) < minPasswordLen {
		return RegisterUserCommand{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidCommand, minPasswordLen)
	}
	if firstName == "" || lastName == "" {
		return RegisterUserCommand{}, fmt.Errorf("%w: first and last name are required", ErrInvalidCommand)
	}
	if utf8.RuneCountInString(firstName) > maxNameLen || utf8.RuneCountInString(lastName) > maxNameLen {
		return RegisterUserCommand{}, fmt.Errorf("%w: name too long", ErrInvalidCommand)
	}

	return RegisterUserCommand{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	}, nil
}

// DeactivateUserCommand marks an existing user as deactivated.
type DeactivateUserCommand struct {
	UserID string
}

func NewDeactivateUserCommand(userID string) (DeactivateUserCommand, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return DeactivateUserCommand{}, fmt.Errorf("%w: user id is required", ErrInvalidCommand)
	}
	return DeactivateUserCommand{UserID: userID}, nil
}

// CreateCategoryCommand creates a per-user category.
type CreateCategoryCommand struct {
	UserID string
	Name   string
}

func NewCreateCategoryCommand(userID, name string) (CreateCategoryCommand, error) {
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" {
		return CreateCategoryCommand{}, fmt.Errorf("%w: user id is required", ErrInvalidCommand)
	}
	if name == "" {
		return CreateCategoryCommand{}, fmt.Errorf("%w: category name is required", ErrInvalidCommand)
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return CreateCategoryCommand{}, fmt.Errorf("%w: category name too long", ErrInvalidCommand)
	}
	return CreateCategoryCommand{UserID: userID, Name: name}, nil
}

// CreateExpenseCommand records a new expense for a user.
type CreateExpenseCommand struct {
	UserID      string
	CategoryID  *string
	AmountTZS   int64
	Description string
	ExpenseDate time.Time
}

func NewCreateExpenseCommand(userID string, categoryID *string, amountTZS int64, description string, expenseDate time.Time) (CreateExpenseCommand, error) {
	userID = strings.TrimSpace(userID)
	description = strings.TrimSpace(description)
	if userID == "" {
		return CreateExpenseCommand{}, fmt.Errorf("%w: user id is required", ErrInvalidCommand)
	}
	if err := validateAmount(amountTZS); err != nil {
		return CreateExpenseCommand{}, err
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return CreateExpenseCommand{}, fmt.Errorf("%w: description too long", ErrInvalidCommand)
	}
	if expenseDate.IsZero() {
		return CreateExpenseCommand{}, fmt.Errorf("%w: expense date is required", ErrInvalidCommand)
	}
	if categoryID != nil && strings.TrimSpace(*categoryID) == "" {
		categoryID = nil
	}
	return CreateExpenseCommand{
		UserID:      userID,
		CategoryID:  categoryID,
		AmountTZS:   amountTZS,
		Description: description,
		ExpenseDate: expenseDate,
	}, nil
}

// UpdateExpenseCommand replaces the mutable fields of an existing expense.
type UpdateExpenseCommand struct {
	UserID      string
	ExpenseID   string
	CategoryID  *string
	AmountTZS   int64
	Description string
	ExpenseDate time.Time
}

func NewUpdateExpenseCommand(userID, expenseID string, categoryID *string, amountTZS int64, description string, expenseDate time.Time) (UpdateExpenseCommand, error) {
	base, err := NewCreateExpenseCommand(userID, categoryID, amountTZS, description, expenseDate)
	if err != nil {
		return UpdateExpenseCommand{}, err
	}
	expenseID = strings.TrimSpace(expenseID)
	if expenseID == "" {
		return UpdateExpenseCommand{}, fmt.Errorf("%w: expense id is required", ErrInvalidCommand)
	}
	return UpdateExpenseCommand{
		UserID:      base.UserID,
		ExpenseID:   expenseID,
		CategoryID:  base.CategoryID,
		AmountTZS:   base.AmountTZS,
		Description: base.Description,
		ExpenseDate: base.ExpenseDate,
	}, nil
}

func validateAmount(amountTZS int64) error {
	if amountTZS <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidCommand)
	}
	if amountTZS > MaxExpenseAmountTZS {
		return fmt.Errorf("%w: amount exceeds %d TZS", ErrInvalidCommand, MaxExpenseAmountTZS)
	}
	return nil
}
