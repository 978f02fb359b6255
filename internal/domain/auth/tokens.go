// Package auth implements the credential store: password verification,
// access/refresh token lifecycle, and API key lookup contracts.
package auth

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Token verification failure modes. Callers can distinguish an expired
// token from a structurally invalid one.
var (
	// ErrTokenMalformed is returned when a token fails to parse or its
	// signature does not verify.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired is returned when a token parses and verifies but is
	// past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// TokenPair is an access + refresh token pair minted for one subject.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokensConfig configures token signing. Access and refresh tokens use
// distinct secrets so a leaked access token cannot be replayed as a
// refresh token.
type TokensConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Tokens mints and verifies HS256-signed JWTs carrying the subject email
// and an expiry timestamp.
type Tokens struct {
	cfg TokensConfig
	now func() time.Time
}

// NewTokens creates a Tokens signer/verifier from the given config.
func NewTokens(cfg TokensConfig) *Tokens {
	return &Tokens{cfg: cfg, now: time.Now}
}

// MintPair issues a fresh access + refresh pair for the subject.
func (t *Tokens) MintPair(subject string) (TokenPair, error) {
	access, err := t.mint(subject, t.cfg.AccessSecret, t.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, errors.Wrap(err, "mint access token")
	}
	refresh, err := t.mint(subject, t.cfg.RefreshSecret, t.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, errors.Wrap(err, "mint refresh token")
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess validates an access token and returns its subject.
func (t *Tokens) VerifyAccess(raw string) (string, error) {
	return t.verify(raw, t.cfg.AccessSecret)
}

// VerifyRefresh validates a refresh token and returns its subject.
func (t *Tokens) VerifyRefresh(raw string) (string, error) {
	return t.verify(raw, t.cfg.RefreshSecret)
}

func (t *Tokens) mint(subject string, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(t.now().Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (t *Tokens) verify(raw string, secret []byte) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenMalformed
	}
	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
