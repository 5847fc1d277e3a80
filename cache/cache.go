// Package cache defines the answer cache used by the client for read-only
// web-service calls. Entries are grouped by namespace (the web-service
// function name) so a write can invalidate every cached answer of the
// functions it affects.
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache stores raw response bodies.
type Cache interface {
	// Get returns nil when the key is absent or expired. An error is returned
	// only for backend failures.
	Get(ctx context.Context, key string, opts ...Option) (*Item, error)

	// Set stores data under key.
	Set(ctx context.Context, key string, data []byte, opts ...Option) error

	// Delete removes one key (WithKey) or a whole namespace.
	Delete(ctx context.Context, opts ...Option) error

	// Close releases backend resources.
	Close() error
}

// Item is a cached response body.
type Item struct {
	Data      []byte
	CreatedAt time.Time
	ExpiresAt *time.Time // nil = no expiration
}

// IsExpired reports whether the item has expired.
func (i *Item) IsExpired() bool {
	return i.ExpiresAt != nil && time.Now().After(*i.ExpiresAt)
}

// Option configures a cache operation.
type Option func(*Options)

// Options collects the effect of Option values.
type Options struct {
	Namespace string         // empty = global
	Key       *string        // Delete only
	TTL       *time.Duration // Set only
}

// Apply folds opts into an Options value.
func Apply(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithNamespace scopes the operation to a namespace.
func WithNamespace(ns string) Option {
	return func(o *Options) { o.Namespace = ns }
}

// WithKey selects a single key for Delete. Without it Delete removes the
// whole namespace.
func WithKey(key string) Option {
	return func(o *Options) { o.Key = &key }
}

// WithTTL sets a time-to-live on Set.
func WithTTL(ttl time.Duration) Option {
	return func(o *Options) { o.TTL = &ttl }
}

// ErrGlobalDelete is returned when Delete is asked to drop the global
// namespace without a key.
var ErrGlobalDelete = errors.New("cache: refusing to delete the global namespace")
