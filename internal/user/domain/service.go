package domain

import (
	"context"
	"errors"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Service interface {
	// Register creates a user with the default token grant and pricing tier.
	Register(ctx context.Context, req RegisterRequest) (*User, error)

	// GetByUID returns a non-deleted user by public reference.
	GetByUID(ctx context.Context, uid string) (*User, error)

	// FindByUsername returns a non-deleted user for credential checks.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByID fetches by primary key without the lifecycle filter; used by
	// bearer-token resolution to tell a deleted principal from a missing one.
	FindByID(ctx context.Context, id int64) (*User, error)

	// DebitTokens atomically subtracts amount from the user's balance. The
	// read-modify-write happens in one guarded statement so concurrent
	// requests cannot lose updates. ErrInsufficientFunds when the balance
	// cannot cover the amount.
	DebitTokens(ctx context.Context, userID int64, amount int64) error
}

var (
	ErrInvalidUsername = errors.New("invalid_username")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrUsernameTaken   = errors.New("username_taken")
	ErrNotFound        = errors.New("not_found")

	// ErrInsufficientFunds means a debit would take the balance negative.
	ErrInsufficientFunds = errors.New("insufficient_funds")
)
