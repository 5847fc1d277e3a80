package memory

import (
	"context"
	"testing"

	"github.com/ggoodman/moodlews-go/cache"
	"github.com/ggoodman/moodlews-go/cache/cachetest"
)

func TestMemoryCache(t *testing.T) {
	cachetest.RunCacheTests(t, func(t *testing.T) cache.Cache {
		c, err := New(64)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		t.Cleanup(func() { _ = c.Close() })
		return c
	})
}

func TestMemoryCache_Evicts(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k))
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", c.Len())
	}
	if item, _ := c.Get(ctx, "a"); item != nil {
		t.Fatalf("least recently used item should be evicted")
	}
}

func TestNew_InvalidSize(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}
