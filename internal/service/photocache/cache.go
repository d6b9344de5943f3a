// Package photocache keeps downloaded place photos for the lifetime of the
// process. Each key is downloaded at most once; concurrent requests for an
// uncached key share a single download.
package photocache

import (
	"context"
	"fmt"
	"sync"

	"github.com/mekedron/placetour/internal/domain"
	"github.com/mekedron/placetour/internal/logger"
	"golang.org/x/sync/singleflight"
)

// Source downloads the photo behind key.
type Source interface {
	Photo(ctx context.Context, key string) (domain.Image, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, key string) (domain.Image, error)

// Photo calls f.
func (f SourceFunc) Photo(ctx context.Context, key string) (domain.Image, error) {
	return f(ctx, key)
}

// Cache maps photo keys to images.
type Cache struct {
	source  Source
	log     *logger.Logger
	mu      sync.RWMutex
	entries map[string]domain.Image
	flights singleflight.Group
}

// Option applies Cache options.
type Option func(*Cache)

// WithLogger sets the diagnostics logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates an empty cache backed by source.
func New(source Source, opts ...Option) *Cache {
	c := &Cache{
		source:  source,
		log:     logger.Discard(),
		entries: make(map[string]domain.Image),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the image for key, downloading it on first use. A failed
// download is not remembered, so a later Fetch retries.
func (c *Cache) Fetch(ctx context.Context, key string) (*domain.Image, error) {
	if img, ok := c.Peek(key); ok {
		return img, nil
	}

	// The flight is detached from the caller: a waiter giving up must not
	// fail the others.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(key, func() (any, error) {
		if img, ok := c.Peek(key); ok {
			return *img, nil
		}
		img, err := c.source.Photo(flightCtx, key)
		if err != nil {
			return nil, err
		}
		stored := c.store(key, img)
		c.log.Debug("photo_cached", "photo_key", key, "bytes", stored.Size())
		return stored, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		img, ok := res.Val.(domain.Image)
		if !ok {
			return nil, fmt.Errorf("photo cache: unexpected flight value %T", res.Val)
		}
		return &img, nil
	}
}

// Peek returns a cached image without touching the network.
func (c *Cache) Peek(key string) (*domain.Image, bool) {
	c.mu.RLock()
	img, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return &img, true
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// store keeps the first image written for key and returns the stored value.
func (c *Cache) store(key string, img domain.Image) domain.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	c.entries[key] = img
	return img
}
