package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenking/shopcart/internal/domain/auth"
	"github.com/xenking/shopcart/internal/domain/cart"
	"github.com/xenking/shopcart/internal/domain/coupon"
	"github.com/xenking/shopcart/internal/domain/order"
	"github.com/xenking/shopcart/internal/domain/product"
	"github.com/xenking/shopcart/internal/domain/user"
)

// --- Mock repositories ---

type mockUserRepo struct {
	byEmail map[string]*user.User
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

type mockCartRepo struct {
	carts map[string]*cart.Cart
}

func (m *mockCartRepo) Get(_ context.Context, userEmail string) (*cart.Cart, error) {
	c, ok := m.carts[userEmail]
	if !ok {
		return nil, cart.ErrNotFound
	}
	cp := *c
	cp.Items = append([]cart.LineItem(nil), c.Items...)
	return &cp, nil
}

func (m *mockCartRepo) Create(_ context.Context, c *cart.Cart) error {
	m.carts[c.UserEmail] = c
	return nil
}

func (m *mockCartRepo) ReplaceItems(_ context.Context, userEmail string, items []cart.LineItem) error {
	if c, ok := m.carts[userEmail]; ok {
		c.Items = items
	}
	return nil
}

func (m *mockCartRepo) SetCoupon(_ context.Context, userEmail, code string) error {
	if c, ok := m.carts[userEmail]; ok {
		c.AppliedCoupon = code
	}
	return nil
}

func (m *mockCartRepo) Delete(_ context.Context, userEmail string) error {
	delete(m.carts, userEmail)
	return nil
}

type mockProductRepo struct {
	byID map[string]product.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, product.ErrInvalidID
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Create(_ context.Context, p *product.Product) (string, error) {
	id := primitive.NewObjectID().Hex()
	cp := *p
	cp.ID = id
	m.byID[id] = cp
	return id, nil
}

type mockOrderRepo struct {
	created []*order.Order
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	o.ID = primitive.NewObjectID().Hex()
	m.created = append(m.created, o)
	return nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userEmail string) ([]order.Order, error) {
	out := make([]order.Order, 0, len(m.created))
	for i := len(m.created) - 1; i >= 0; i-- {
		if m.created[i].UserEmail == userEmail {
			out = append(out, *m.created[i])
		}
	}
	return out, nil
}

type mockAPIKeyRepo struct {
	byHash map[string]*auth.APIKeyInfo
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	info, ok := m.byHash[hash]
	if !ok {
		return nil, errors.New("api key not found")
	}
	return info, nil
}

// --- Fixture ---

const testPepper = "test-pepper"

type fixture struct {
	router   http.Handler
	users    *mockUserRepo
	carts    *mockCartRepo
	products *mockProductRepo
	orders   *mockOrderRepo
	apikeys  *mockAPIKeyRepo
}

func newFixture() *fixture {
	users := &mockUserRepo{byEmail: make(map[string]*user.User)}
	carts := &mockCartRepo{carts: make(map[string]*cart.Cart)}
	products := &mockProductRepo{byID: make(map[string]product.Product)}
	orders := &mockOrderRepo{}
	apikeys := &mockAPIKeyRepo{byHash: make(map[string]*auth.APIKeyInfo)}

	tokens := auth.NewTokens(auth.TokensConfig{
		AccessSecret:  []byte("access-test-secret"),
		RefreshSecret: []byte("refresh-test-secret"),
		AccessTTL:     6 * time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	table := coupon.DefaultTable()

	authSvc := auth.NewService(users, tokens)
	cartSvc := cart.NewService(carts, products, table)
	orderSvc := order.NewService(carts, products, table, orders)

	h := NewHandler(authSvc, cartSvc, orderSvc, products, apikeys, []byte(testPepper))
	return &fixture{
		router:   h.Routes(),
		users:    users,
		carts:    carts,
		products: products,
		orders:   orders,
		apikeys:  apikeys,
	}
}

func (f *fixture) addProduct(name, price string) string {
	id, _ := f.products.Create(context.Background(), &product.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
	})
	return id
}

func (f *fixture) registerAPIKey(key string) {
	mac := hmac.New(sha256.New, []byte(testPepper))
	mac.Write([]byte(key))
	hash := hex.EncodeToString(mac.Sum(nil))
	f.apikeys.byHash[hash] = &auth.APIKeyInfo{ID: "k1", KeyHash: hash, Name: "test"}
}

// do sends a JSON request through the router. token and body may be empty.
func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// signupAndLogin registers a user and returns an access token.
func (f *fixture) signupAndLogin(t *testing.T, email string) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/signup", "", map[string]string{
		"name": "Test User", "email": email, "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": email, "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return decodeBody[tokenResponse](t, rec).AccessToken
}

// --- Auth route tests ---

func TestSignup(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/signup", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "alice@example.com", body["email"])

	// Duplicate email.
	rec = f.do(t, http.MethodPost, "/signup", "", map[string]string{
		"name": "Alice Again", "email": "alice@example.com", "password": "other",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "email already registered", errBody.Message)
}

func TestSignupMissingFields(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/signup", "", map[string]string{"name": "Alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	f := newFixture()
	f.signupAndLogin(t, "alice@example.com")

	rec := f.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": "alice@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[tokenResponse](t, rec)
	assert.NotEmpty(t, body.AccessToken)
	assert.NotEmpty(t, body.RefreshToken)
	assert.Equal(t, "bearer", body.TokenType)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": "nobody@example.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshFlow(t *testing.T) {
	f := newFixture()
	f.signupAndLogin(t, "alice@example.com")

	rec := f.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": "alice@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	pair := decodeBody[tokenResponse](t, rec)

	rec = f.do(t, http.MethodPost, "/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := decodeBody[tokenResponse](t, rec)
	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEmpty(t, rotated.RefreshToken)

	// A garbage token is 401; a superseded one is 403.
	rec = f.do(t, http.MethodPost, "/refresh", "", map[string]string{
		"refresh_token": "garbage",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	if rotated.RefreshToken != pair.RefreshToken {
		rec = f.do(t, http.MethodPost, "/refresh", "", map[string]string{
			"refresh_token": pair.RefreshToken,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture()
	token := f.signupAndLogin(t, "alice@example.com")

	rec := f.do(t, http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.users.byEmail["alice@example.com"].RefreshToken)
}

func TestMe(t *testing.T) {
	f := newFixture()
	token := f.signupAndLogin(t, "alice@example.com")

	rec := f.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, "Test User", body["name"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture()

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/cart"},
		{http.MethodPost, "/cart/add"},
		{http.MethodPost, "/checkout"},
		{http.MethodGet, "/orders"},
		{http.MethodPost, "/logout"},
	} {
		rec := f.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}

	// A token whose subject vanished resolves to 404.
	token := f.signupAndLogin(t, "ghost@example.com")
	delete(f.users.byEmail, "ghost@example.com")
	rec := f.do(t, http.MethodGet, "/cart", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
