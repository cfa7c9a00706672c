package repository

import (
	"context"
	"errors"

	"study_dashboard/internal/model"
)

var (
	// ErrDuplicateEmail is returned by Create when the store's unique email constraint rejects the insert.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
)

// UserRepository defines operations for user data
type UserRepository interface {
	// Create inserts the user, assigning ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Ping(ctx context.Context) error
}
