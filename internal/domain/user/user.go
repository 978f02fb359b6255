package user

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when no user exists for the given email.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when registering an email that is
	// already taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// User is an account record. PasswordHash holds the bcrypt hash of the
// password; the plaintext is never stored. RefreshToken is the single
// currently-valid refresh token for the account, empty when logged out.
type User struct {
	Email        string
	Name         string
	PasswordHash string
	RefreshToken string
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	// Create inserts a new user. Returns ErrDuplicateEmail when the email
	// is already registered.
	Create(ctx context.Context, u *User) error
	// GetByEmail returns the user for the given email, or ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)
	// UpdateRefreshToken stores token as the user's single active refresh
	// token, replacing any previous one.
	UpdateRefreshToken(ctx context.Context, email, token string) error
	// ClearRefreshToken removes the user's stored refresh token.
	ClearRefreshToken(ctx context.Context, email string) error
}
