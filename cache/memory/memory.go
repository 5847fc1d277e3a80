// Package memory provides an in-process cache.Cache backed by
// github.com/hashicorp/golang-lru/v2.
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ggoodman/moodlews-go/cache"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache implements cache.Cache with a bounded LRU. Expired items are dropped
// lazily when read.
type Cache struct {
	lru *lru.Cache[string, *cache.Item]
}

// New creates a cache holding at most maxItems answers.
func New(maxItems int) (*Cache, error) {
	l, err := lru.New[string, *cache.Item](maxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &Cache{lru: l}, nil
}

func (c *Cache) Get(ctx context.Context, key string, opts ...cache.Option) (*cache.Item, error) {
	options := cache.Apply(opts...)
	k := buildKey(options.Namespace, key)

	item, ok := c.lru.Get(k)
	if !ok {
		return nil, nil
	}
	if item.IsExpired() {
		c.lru.Remove(k)
		return nil, nil
	}
	return item, nil
}

func (c *Cache) Set(ctx context.Context, key string, data []byte, opts ...cache.Option) error {
	options := cache.Apply(opts...)

	now := time.Now()
	item := &cache.Item{
		Data:      append([]byte(nil), data...),
		CreatedAt: now,
	}
	if options.TTL != nil {
		expiresAt := now.Add(*options.TTL)
		item.ExpiresAt = &expiresAt
	}

	c.lru.Add(buildKey(options.Namespace, key), item)
	return nil
}

func (c *Cache) Delete(ctx context.Context, opts ...cache.Option) error {
	options := cache.Apply(opts...)

	if options.Key != nil {
		c.lru.Remove(buildKey(options.Namespace, *options.Key))
		return nil
	}
	if options.Namespace == "" {
		return cache.ErrGlobalDelete
	}

	// LRU offers no prefix iteration; namespaces are small.
	prefix := namespacePrefix(options.Namespace)
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
	return nil
}

func (c *Cache) Close() error {
	c.lru.Purge()
	return nil
}

// Len returns the number of stored items, expired ones included.
func (c *Cache) Len() int { return c.lru.Len() }

func namespacePrefix(ns string) string {
	if ns == "" {
		return "global:"
	}
	return "ns:" + ns + ":"
}

func buildKey(ns, key string) string { return namespacePrefix(ns) + key }

var _ cache.Cache = (*Cache)(nil)
