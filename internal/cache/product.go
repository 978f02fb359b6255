// Package cache provides a Redis read-through cache in front of the
// product catalog repository.
package cache

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/xenking/shopcart/internal/domain/product"
)

var _ product.Repository = (*ProductCache)(nil)

// ErrCacheMiss is returned internally when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// ProductCache decorates a product.Repository with per-product Redis
// caching. Reads go through the cache; cache failures degrade to the
// underlying repository rather than failing the request. List is served
// straight from the repository: enrichment never calls it on a hot path.
type ProductCache struct {
	inner   product.Repository
	client  *redis.Client
	baseTTL time.Duration
}

// NewProductCache creates a ProductCache over inner using the given Redis
// client.
func NewProductCache(inner product.Repository, client *redis.Client) *ProductCache {
	return &ProductCache{
		inner:   inner,
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

// cachedProduct is the serialized cache entry. Price is kept as a string to
// round-trip the decimal exactly.
type cachedProduct struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

func toCached(p product.Product) cachedProduct {
	return cachedProduct{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price.String(),
		Image:       p.Image,
		Description: p.Description,
	}
}

func (c cachedProduct) toDomain() (product.Product, error) {
	price, err := decimal.NewFromString(c.Price)
	if err != nil {
		return product.Product{}, errors.Wrap(err, "parse cached price")
	}
	return product.Product{
		ID:          c.ID,
		Name:        c.Name,
		Price:       price,
		Image:       c.Image,
		Description: c.Description,
	}, nil
}

// List delegates to the underlying repository.
func (c *ProductCache) List(ctx context.Context) ([]product.Product, error) {
	return c.inner.List(ctx)
}

// GetByID returns the cached product when present, otherwise reads through
// to the repository and populates the cache.
func (c *ProductCache) GetByID(ctx context.Context, id string) (*product.Product, error) {
	if p, err := c.get(ctx, id); err == nil {
		return p, nil
	}

	p, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, *p)
	return p, nil
}

// GetByIDs serves hits from the cache and batch-fetches the misses from the
// repository in one query, caching what comes back.
func (c *ProductCache) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	out := make([]product.Product, 0, len(ids))
	var misses []string
	for _, id := range ids {
		p, err := c.get(ctx, id)
		if err != nil {
			misses = append(misses, id)
			continue
		}
		out = append(out, *p)
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := c.inner.GetByIDs(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, p := range fetched {
		c.set(ctx, p)
		out = append(out, p)
	}
	return out, nil
}

// Create delegates to the repository. The new ID cannot be cached yet.
func (c *ProductCache) Create(ctx context.Context, p *product.Product) (string, error) {
	return c.inner.Create(ctx, p)
}

func (c *ProductCache) get(ctx context.Context, id string) (*product.Product, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}

	var entry cachedProduct
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, errors.Wrap(err, "unmarshal cached product")
	}
	p, err := entry.toDomain()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// set populates the cache best-effort; failures are ignored. TTLs carry a
// small jitter so a bulk enrichment does not expire all at once.
func (c *ProductCache) set(ctx context.Context, p product.Product) {
	data, err := json.Marshal(toCached(p))
	if err != nil {
		return
	}
	ttl := c.baseTTL + time.Duration(rand.Intn(300))*time.Second
	_ = c.client.Set(ctx, cacheKey(p.ID), data, ttl).Err()
}

func cacheKey(id string) string {
	return "product:" + id
}
