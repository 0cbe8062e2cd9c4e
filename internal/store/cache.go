// Package store caches analysis results in memory, keyed by image content
// and query.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Cache is a bounded LRU with one in-flight computation per key.
// A nil *Cache is valid and caches nothing.
type Cache[V any] struct {
	entries *lru.Cache[string, V]
	group   singleflight.Group
}

func New[V any](size int) (*Cache[V], error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Cache[V]{entries: entries}, nil
}

// Key hashes the image bytes together with the query.
func Key(image []byte, query string) string {
	h := sha256.New()
	h.Write(image)
	h.Write([]byte{0})
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// Do returns the cached value for key or runs fn once for all concurrent
// callers. Errors are returned to every waiter and never stored. The bool
// reports a cache hit; callers that joined an in-flight computation get
// false. A waiter whose own ctx is still live retries when the shared
// computation ended with a context error from another caller.
func (c *Cache[V]) Do(ctx context.Context, key string, fn func() (V, error)) (V, bool, error) {
	var zero V
	if c == nil {
		v, err := fn()
		return v, false, err
	}
	for {
		if v, ok := c.entries.Get(key); ok {
			return v, true, nil
		}

		ch := c.group.DoChan(key, func() (any, error) {
			v, err := fn()
			if err != nil {
				return v, err
			}
			c.entries.Add(key, v)
			return v, nil
		})
		select {
		case <-ctx.Done():
			return zero, false, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(V), false, nil
			}
			if isContextErr(res.Err) && ctx.Err() == nil {
				continue
			}
			return zero, false, res.Err
		}
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Remove drops key from the cache.
func (c *Cache[V]) Remove(key string) {
	if c != nil {
		c.entries.Remove(key)
	}
}

func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
