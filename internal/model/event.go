package model

import "time"

// Event type discriminators stored in outbox_events.event_type.
const (
	EventUserRegistered  = "UserRegistered"
	EventUserDeactivated = "UserDeactivated"
	EventCategoryCreated = "CategoryCreated"
	EventCategoryDeleted = "CategoryDeleted"
	EventExpenseCreated  = "ExpenseCreated"
	EventExpenseUpdated  = "ExpenseUpdated"
	EventExpenseDeleted  = "ExpenseDeleted"
)

type UserRegisteredEvent struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserDeactivatedEvent struct {
	UserID string `json:"user_id"`
}

type CategoryCreatedEvent struct {
	CategoryID string `json:"category_id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
}

type CategoryDeletedEvent struct {
	CategoryID string `json:"category_id"`
	UserID     string `json:"user_id"`
}

type ExpenseCreatedEvent struct {
	ExpenseID   string    `json:"expense_id"`
	UserID      string    `json:"user_id"`
	CategoryID  *string   `json:"category_id,omitempty"`
	AmountTZS   int64     `json:"amount_tzs"`
	Description string    `json:"description,omitempty"`
	ExpenseDate time.Time `json:"expense_date"`
}

type ExpenseUpdatedEvent struct {
	ExpenseID   string    `json:"expense_id"`
	UserID      string    `json:"user_id"`
	CategoryID  *string   `json:"category_id,omitempty"`
	AmountTZS   int64     `json:"amount_tzs"`
	Description string    `json:"description,omitempty"`
	ExpenseDate time.Time `json:"expense_date"`
}

type ExpenseDeletedEvent struct {
	ExpenseID string `json:"expense_id"`
	UserID    string `json:"user_id"`
}
