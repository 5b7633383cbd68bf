package util

import "github.com/oklog/ulid/v2"

// New returns a fresh ULID string. IDs sort lexicographically by creation
// time, which keeps the outbox's created_at ordering cheap to index.
func New() string {
	return ulid.Make().String()
}
