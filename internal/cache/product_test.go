package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shopcart/internal/domain/product"
)

// countingRepo tracks how many calls reach the underlying repository.
type countingRepo struct {
	byID       map[string]product.Product
	getCalls   int
	batchCalls int
}

func newCountingRepo(products ...product.Product) *countingRepo {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &countingRepo{byID: byID}
}

func (m *countingRepo) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

func (m *countingRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	m.getCalls++
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *countingRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	m.batchCalls++
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *countingRepo) Create(_ context.Context, p *product.Product) (string, error) {
	m.byID[p.ID] = *p
	return p.ID, nil
}

func newTestCache(t *testing.T, repo product.Repository) *ProductCache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewProductCache(repo, client)
}

func testProduct(id, name, price string) product.Product {
	return product.Product{
		ID:          id,
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Image:       "img.jpg",
		Description: "cached product",
	}
}

func TestGetByIDReadThrough(t *testing.T) {
	repo := newCountingRepo(testProduct("p1", "Widget", "10.50"))
	c := newTestCache(t, repo)
	ctx := context.Background()

	p, err := c.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 1, repo.getCalls)

	// Second read is served from the cache.
	p, err = c.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.True(t, decimal.RequireFromString("10.50").Equal(p.Price))
	assert.Equal(t, 1, repo.getCalls)
}

func TestGetByIDMissPassesThroughError(t *testing.T) {
	repo := newCountingRepo()
	c := newTestCache(t, repo)

	_, err := c.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestGetByIDsPartialHit(t *testing.T) {
	p1 := testProduct("p1", "Widget", "10.00")
	p2 := testProduct("p2", "Gadget", "20.00")
	repo := newCountingRepo(p1, p2)
	c := newTestCache(t, repo)
	ctx := context.Background()

	// Warm p1 only.
	_, err := c.GetByID(ctx, "p1")
	require.NoError(t, err)

	out, err := c.GetByIDs(ctx, []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1, repo.batchCalls)

	// Both cached now: no more repository calls.
	out, err = c.GetByIDs(ctx, []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, repo.batchCalls)
}

func TestGetByIDsUnknownIDsDropped(t *testing.T) {
	repo := newCountingRepo(testProduct("p1", "Widget", "10.00"))
	c := newTestCache(t, repo)

	out, err := c.GetByIDs(context.Background(), []string{"p1", "gone"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "p1", out[0].ID)
}

func TestCacheUnavailableFallsBack(t *testing.T) {
	repo := newCountingRepo(testProduct("p1", "Widget", "10.00"))
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := NewProductCache(repo, client)

	srv.Close()

	p, err := c.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 1, repo.getCalls)
}
