package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegisterUserCommand(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		firstName string
		lastName  string
		wantErr   bool
	}{
		{
			name:      "valid",
			email:     "asha@example.com",
			password:  "super-secret",
			firstName: "Asha",
			lastName:  "Mushi",
		},
		{
			name:      "email normalized",
			email:     "  ASHA@Example.COM ",
			password:  "super-secret",
			firstName: "Asha",
			lastName:  "Mushi",
		},
		{
			name:      "missing email",
			password:  "super-secret",
			firstName: "Asha",
			lastName:  "Mushi",
			wantErr:   true,
		},
		{
			name:      "malformed email",
			email:     "not-an-email",
			password:  "super-secret",
			firstName: "Asha",
			lastName:  "Mushi",
			wantErr:   true,
		},
		{
			name:      "short password",
			email:     "asha@example.com",
			password:  "short",
			firstName: "Asha",
			lastName:  "Mushi",
			wantErr:   true,
		},
		{
			name:     "missing first name",
			email:    "asha@example.com",
			password: "super-secret",
			lastName: "Mushi",
			wantErr:  true,
		},
		{
			name:      "missing last name",
			email:     "asha@example.com",
			password:  "super-secret",
			firstName: "Asha",
			wantErr:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := NewRegisterUserCommand(tc.email, tc.password, tc.firstName, tc.lastName)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "asha@example.com", cmd.Email)
			assert.Equal(t, "Asha", cmd.FirstName)
			assert.Equal(t, "Mushi", cmd.LastName)
		})
	}
}

func TestNewCreateExpenseCommandAmountBounds(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		amount  int64
		wantErr bool
	}{
		{name: "one shilling", amount: 1},
		{name: "max amount", amount: MaxExpenseAmountTZS},
		{name: "zero", amount: 0, wantErr: true},
		{name: "negative", amount: -500, wantErr: true},
		{name: "over max", amount: MaxExpenseAmountTZS + 1, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := NewCreateExpenseCommand("u1", nil, tc.amount, "lunch", date)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.amount, cmd.AmountTZS)
		})
	}
}

func TestNewCreateExpenseCommandValidation(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := NewCreateExpenseCommand("", nil, 100, "lunch", date)
	assert.ErrorIs(t, err, ErrInvalidCommand)

	_, err = NewCreateExpenseCommand("u1", nil, 100, "lunch", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidCommand)

	// blank category id collapses to nil
	blank := "   "
	cmd, err := NewCreateExpenseCommand("u1", &blank, 100, "lunch", date)
	require.NoError(t, err)
	assert.Nil(t, cmd.CategoryID)
}

func TestNewUpdateExpenseCommand(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := NewUpdateExpenseCommand("u1", "", nil, 100, "lunch", date)
	assert.ErrorIs(t, err, ErrInvalidCommand)

	cmd, err := NewUpdateExpenseCommand("u1", "e1", nil, 100, "lunch", date)
	require.NoError(t, err)
	assert.Equal(t, "e1", cmd.ExpenseID)
}

func TestNewCreateCategoryCommand(t *testing.T) {
	_, err := NewCreateCategoryCommand("u1", "")
	assert.ErrorIs(t, err, ErrInvalidCommand)

	cmd, err := NewCreateCategoryCommand("u1", "  Food ")
	require.NoError(t, err)
	assert.Equal(t, "Food", cmd.Name)
}

func TestParseUserStatus(t *testing.T) {
	tests := []struct {
		in    string
		want  UserStatus
		valid bool
	}{
		{"", UserStatusActive, true},
		{"active", UserStatusActive, true},
		{"ACTIVE", UserStatusActive, true},
		{"deactivated", UserStatusDeactivated, true},
		{"suspended", UserStatusActive, false},
	}

	for _, tc := range tests {
		got, ok := ParseUserStatus(tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
		assert.Equal(t, tc.valid, ok, "input %q", tc.in)
	}
}
