package cache

import (
	"context"
	"errors"

	"storefront/store"
)

// CartCache holds the rendered line items of a cart, keyed by cart id.
type CartCache interface {
	Get(ctx context.Context, cartID uint) ([]store.CartLine, error)
	Set(ctx context.Context, cartID uint, lines []store.CartLine) error
	Delete(ctx context.Context, cartID uint) error
}

var ErrCacheMiss = errors.New("cache miss")

// NoopCache is used when no redis is configured. Every Get misses.
type NoopCache struct{}

func (NoopCache) Get(context.Context, uint) ([]store.CartLine, error) { return nil, ErrCacheMiss }
func (NoopCache) Set(context.Context, uint, []store.CartLine) error   { return nil }
func (NoopCache) Delete(context.Context, uint) error                  { return nil }
