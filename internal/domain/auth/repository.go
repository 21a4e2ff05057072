package auth

import (
	"context"

	"stockroom/internal/core/id"
)

// UserRepository defines user storage operations.
// Lookups of missing users return an apperror NOT_FOUND error.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByUsername retrieves user by login name (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update updates user data.
	Update(ctx context.Context, user *User) error

	// Delete removes a user.
	Delete(ctx context.Context, userID id.ID) error

	// List retrieves users ordered by username.
	List(ctx context.Context, filter UserFilter) ([]User, error)

	// Count returns the number of users.
	Count(ctx context.Context) (int, error)

	// ReplaceAll swaps the whole user table, used by backup restore.
	ReplaceAll(ctx context.Context, users []User) error
}
