// Package redis provides a cache.Cache shared between processes through Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ggoodman/moodlews-go/cache"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

// Config for the Redis cache. Defaults can be loaded via envdecode.
type Config struct {
	// Addr like "localhost:6379". ENV: REDIS_ADDR
	Addr string `env:"REDIS_ADDR,default=localhost:6379"`
	// DB index. ENV: REDIS_DB
	DB int `env:"REDIS_DB,default=0"`
	// KeyPrefix for all keys. ENV: MOODLE_CACHE_KEY_PREFIX
	KeyPrefix string `env:"MOODLE_CACHE_KEY_PREFIX,default=moodlews:cache:"`
}

// Cache implements cache.Cache using Redis.
type Cache struct {
	client    *redis.Client
	keyPrefix string
}

type storedItem struct {
	Encoding  string     `json:"enc,omitempty"`
	Data      []byte     `json:"data"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	return NewWithClient(ctx, redis.NewClient(&redis.Options{Addr: addr, DB: cfg.DB}), cfg.KeyPrefix)
}

// NewWithClient wraps an existing client. The cache owns the client and
// closes it on Close.
func NewWithClient(ctx context.Context, client *redis.Client, keyPrefix string) (*Cache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if keyPrefix == "" {
		keyPrefix = "moodlews:cache:"
	}
	return &Cache{client: client, keyPrefix: keyPrefix}, nil
}

// NewFromEnv builds a Cache using envdecode to populate Config.
func NewFromEnv(ctx context.Context) (*Cache, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("redis cache config: %w", err)
	}
	return New(ctx, cfg)
}

func (c *Cache) Get(ctx context.Context, key string, opts ...cache.Option) (*cache.Item, error) {
	options := cache.Apply(opts...)
	redisKey := c.buildKey(options.Namespace, key)

	raw, err := c.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get key %s: %w", redisKey, err)
	}

	var stored storedItem
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached item: %w", err)
	}
	item := &cache.Item{CreatedAt: stored.CreatedAt, ExpiresAt: stored.ExpiresAt}
	if item.IsExpired() {
		c.client.Del(ctx, redisKey)
		return nil, nil
	}
	item.Data, err = decompress(stored.Encoding, stored.Data)
	if err != nil {
		return nil, fmt.Errorf("cached item %s: %w", redisKey, err)
	}
	return item, nil
}

func (c *Cache) Set(ctx context.Context, key string, data []byte, opts ...cache.Option) error {
	options := cache.Apply(opts...)
	redisKey := c.buildKey(options.Namespace, key)

	now := time.Now()
	stored := storedItem{Encoding: encodingZstd, Data: compress(data), CreatedAt: now}
	var ttl time.Duration
	if options.TTL != nil {
		expiresAt := now.Add(*options.TTL)
		stored.ExpiresAt = &expiresAt
		ttl = *options.TTL
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal cached item: %w", err)
	}
	if err := c.client.Set(ctx, redisKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", redisKey, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, opts ...cache.Option) error {
	options := cache.Apply(opts...)

	if options.Key != nil {
		redisKey := c.buildKey(options.Namespace, *options.Key)
		if err := c.client.Del(ctx, redisKey).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", redisKey, err)
		}
		return nil
	}
	if options.Namespace == "" {
		return cache.ErrGlobalDelete
	}

	pattern := c.buildKey(options.Namespace, "*")
	keys, err := c.scanKeys(ctx, pattern)
	if err != nil {
		return fmt.Errorf("failed to scan keys for pattern %s: %w", pattern, err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete keys: %w", err)
		}
	}
	return nil
}

func (c *Cache) Close() error { return c.client.Close() }

func (c *Cache) buildKey(ns, key string) string {
	if ns == "" {
		return c.keyPrefix + "global:" + key
	}
	return c.keyPrefix + "ns:" + ns + ":" + key
}

func (c *Cache) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

var _ cache.Cache = (*Cache)(nil)
