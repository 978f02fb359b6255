package auth

import (
	"context"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/shopcart/internal/domain/user"
)

var (
	// ErrInvalidCredentials is returned when the email is unknown or the
	// password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRefreshMismatch is returned when a refresh token verifies but does
	// not equal the single token stored for its subject. This is how reuse
	// of a superseded refresh token is detected.
	ErrRefreshMismatch = errors.New("refresh token has expired or is invalid")
)

// Identity is a resolved caller identity.
type Identity struct {
	Email string
	Name  string
}

// Service is the credential store. It owns password hashing and the
// access/refresh token lifecycle, persisting the single active refresh
// token per user on the user record.
type Service struct {
	users  user.Repository
	tokens *Tokens
}

// NewService creates a credential store backed by the given user repository
// and token signer.
func NewService(users user.Repository, tokens *Tokens) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates a new account with a bcrypt-hashed password. Returns
// user.ErrDuplicateEmail when the email is already taken.
func (s *Service) Register(ctx context.Context, name, email, password string) error {
	// Pre-check keeps the common duplicate path cheap; the unique index on
	// email catches the racing insert.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return errors.Wrap(err, "check existing user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	if err := s.users.Create(ctx, &user.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}); err != nil {
		return errors.Wrap(err, "create user")
	}
	return nil
}

// Login verifies the password and mints a fresh token pair, overwriting any
// previously stored refresh token. A new login invalidates prior sessions.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, errors.Wrap(err, "load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.MintPair(email)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.UpdateRefreshToken(ctx, email, pair.RefreshToken); err != nil {
		return TokenPair{}, errors.Wrap(err, "store refresh token")
	}
	return pair, nil
}

// Refresh rotates a refresh token: the presented token must verify and
// match the stored one exactly, after which a new pair is minted and the
// stored token overwritten. An old pair cannot be replayed after rotation.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	email, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return TokenPair{}, ErrRefreshMismatch
		}
		return TokenPair{}, errors.Wrap(err, "load user")
	}
	if u.RefreshToken == "" || u.RefreshToken != refreshToken {
		return TokenPair{}, ErrRefreshMismatch
	}

	pair, err := s.tokens.MintPair(email)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.UpdateRefreshToken(ctx, email, pair.RefreshToken); err != nil {
		return TokenPair{}, errors.Wrap(err, "rotate refresh token")
	}
	return pair, nil
}

// Logout clears the stored refresh token for the identity. Subsequent
// Refresh calls fail until a new login.
func (s *Service) Logout(ctx context.Context, email string) error {
	if err := s.users.ClearRefreshToken(ctx, email); err != nil {
		return errors.Wrap(err, "clear refresh token")
	}
	return nil
}

// Resolve validates an access token and loads its subject. Returns a token
// verification error when the token is malformed or expired, and
// user.ErrNotFound when the subject no longer exists.
func (s *Service) Resolve(ctx context.Context, accessToken string) (*Identity, error) {
	email, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrap(err, "load user")
	}
	return &Identity{Email: u.Email, Name: u.Name}, nil
}
