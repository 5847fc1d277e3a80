package redis

import (
	"context"
	"testing"

	"github.com/ggoodman/moodlews-go/cache"
	"github.com/ggoodman/moodlews-go/cache/cachetest"
	"github.com/redis/go-redis/v9"
)

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	probe := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379", DB: 3})
	if err := probe.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	_ = probe.Close()

	cachetest.RunCacheTests(t, func(t *testing.T) cache.Cache {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379", DB: 3})
		c, err := NewWithClient(ctx, client, "moodlews:test:")
		if err != nil {
			t.Fatalf("NewWithClient failed: %v", err)
		}
		t.Cleanup(func() {
			client.FlushDB(ctx)
			_ = c.Close()
		})
		return c
	})
}

func TestNewWithClient_Nil(t *testing.T) {
	if _, err := NewWithClient(context.Background(), nil, ""); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestCompressRoundTrip(t *testing.T) {
	data := []byte(`{"assignments":[{"assignmentid":1,"grades":[]}],"warnings":[]}`)
	got, err := decompress(encodingZstd, compress(data))
	if err != nil {
		t.Fatalf("decompress failed: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("round trip mismatch: %s", got)
	}
	if _, err := decompress("lz77", data); err == nil {
		t.Fatalf("expected error for unknown encoding")
	}
	if got, _ := decompress("", data); string(got) != string(data) {
		t.Fatalf("plain payload should pass through")
	}
}
