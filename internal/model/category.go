package model

import "time"

// Category is a per-user expense grouping. Name is unique per user
// (enforced by the uq_categories_user_name key).
type Category struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
