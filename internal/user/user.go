// Package user holds staff accounts for the dashboard. Usernames are not
// deduplicated at the store layer; registration enforces uniqueness.
package user

import "context"

// User is a dashboard account. Password holds the bcrypt hash and never
// leaves the process in API responses.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// Store is the authoritative holder of users. Users are never deleted.
type Store interface {
	// Create assigns the next id and stores the user.
	Create(ctx context.Context, username, password string) (User, error)
	Get(ctx context.Context, id int64) (User, error)
	// GetByUsername scans for the first matching username.
	GetByUsername(ctx context.Context, username string) (User, error)
}
