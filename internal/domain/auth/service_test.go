package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shopcart/internal/domain/user"
)

// --- Mock implementations ---

type mockUserRepo struct {
	byEmail map[string]*user.User
	getErr  error
}

func newUserRepo(users ...*user.User) *mockUserRepo {
	byEmail := make(map[string]*user.User, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}
	return &mockUserRepo{byEmail: byEmail}
}

func (m *mockUserRepo) Create(_ context.Context, u *user.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return user.ErrDuplicateEmail
	}
	cp := *u
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) UpdateRefreshToken(_ context.Context, email, token string) error {
	if u, ok := m.byEmail[email]; ok {
		u.RefreshToken = token
	}
	return nil
}

func (m *mockUserRepo) ClearRefreshToken(_ context.Context, email string) error {
	if u, ok := m.byEmail[email]; ok {
		u.RefreshToken = ""
	}
	return nil
}

// --- Tests ---

func newTestService(repo *mockUserRepo) (*Service, *Tokens) {
	tokens := newTestTokens(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	return NewService(repo, tokens), tokens
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newUserRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "Alice", "alice@example.com", "s3cret"))

	stored := repo.byEmail["alice@example.com"]
	require.NotNil(t, stored)
	assert.Equal(t, "Alice", stored.Name)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "s3cret")

	pair, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, pair.RefreshToken, repo.byEmail["alice@example.com"].RefreshToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newUserRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "Alice", "alice@example.com", "s3cret"))

	err := svc.Register(ctx, "Other Alice", "alice@example.com", "different")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newUserRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	// Login before signup.
	_, err := svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.Register(ctx, "Alice", "alice@example.com", "s3cret"))

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInvalidatesPriorRefreshToken(t *testing.T) {
	repo := newUserRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "Alice", "alice@example.com", "s3cret"))

	first, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	// MintPair output depends on issue time, so advance the clock between
	// logins to get a distinct token.
	tokens := svc.tokens
	tokens.now = func() time.Time { return time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC) }

	second, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshMismatch)
}

func TestRefreshRotation(t *testing.T) {
	repo := newUserRepo()
	svc, tokens := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "Alice", "alice@example.com", "s3cret"))
	pair, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	tokens.now = func() time.Time { return time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC) }

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, rotated.RefreshToken, repo.byEmail["alice@example.com"].RefreshToken)

	// The superseded token is rejected on reuse.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshMismatch)

	// The rotated token still works.
	tokens.now = func() time.Time { return time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC) }
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshMalformedAndExpired(t *testing.T) {
	repo := newUserRepo()
	svc, tokens := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	require.NoError(t, svc.Register(ctx, "Alice", "alice@example.com", "s3cret"))
	pair, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	tokens.now = func() time.Time { return time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC) }

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestLogoutBlocksRefresh(t *testing.T) {
	repo := newUserRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "Alice", "alice@example.com", "s3cret"))
	pair, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "alice@example.com"))
	assert.Empty(t, repo.byEmail["alice@example.com"].RefreshToken)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshMismatch)
}

func TestResolve(t *testing.T) {
	repo := newUserRepo()
	svc, tokens := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "Alice", "alice@example.com", "s3cret"))
	pair, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	id, err := svc.Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, &Identity{Email: "alice@example.com", Name: "Alice"}, id)

	// Subject vanished between token issue and resolution.
	delete(repo.byEmail, "alice@example.com")
	_, err = svc.Resolve(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, user.ErrNotFound)

	_, err = svc.Resolve(ctx, "garbage")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	tokens.now = func() time.Time { return time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC) }
	_, err = svc.Resolve(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
