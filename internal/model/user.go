package model

import (
	"strings"
	"time"
)

type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusDeactivated UserStatus = "deactivated"
)

func (s UserStatus) String() string { return string(s) }

// ParseUserStatus normalizes input; empty => active.
// Returns (value, true) if valid; otherwise (active, false).
func ParseUserStatus(s string) (UserStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active":
		return UserStatusActive, true
	case "deactivated":
		return UserStatusDeactivated, true
	default:
		return UserStatusActive, false
	}
}

func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusDeactivated
}

// User is the DB entity persisted in the users table.
type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	FirstName    string     `db:"first_name"`
	LastName     string     `db:"last_name"`
	Status       UserStatus `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}
