// Package cachetest provides a conformance suite for cache.Cache
// implementations.
package cachetest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ggoodman/moodlews-go/cache"
)

// Factory returns a fresh, empty cache for one subtest.
type Factory func(t *testing.T) cache.Cache

// RunCacheTests runs the suite against caches produced by factory.
func RunCacheTests(t *testing.T, factory Factory) {
	t.Run("SetAndGet", func(t *testing.T) { testSetAndGet(t, factory(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, factory(t)) })
	t.Run("TTL", func(t *testing.T) { testTTL(t, factory(t)) })
	t.Run("Namespaces", func(t *testing.T) { testNamespaces(t, factory(t)) })
	t.Run("DeleteKey", func(t *testing.T) { testDeleteKey(t, factory(t)) })
	t.Run("DeleteNamespace", func(t *testing.T) { testDeleteNamespace(t, factory(t)) })
}

func testSetAndGet(t *testing.T, c cache.Cache) {
	ctx := context.Background()
	data := []byte(`{"warnings":[],"courses":[]}`)
	if err := c.Set(ctx, "k", data); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	data[0] = 'X' // the cache must not alias the caller's buffer

	item, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item == nil {
		t.Fatal("expected item, got nil")
	}
	if !bytes.Equal(item.Data, []byte(`{"warnings":[],"courses":[]}`)) {
		t.Fatalf("unexpected data %q", item.Data)
	}
	if item.ExpiresAt != nil {
		t.Fatalf("item without TTL should not expire")
	}
}

func testGetMissing(t *testing.T, c cache.Cache) {
	item, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item != nil {
		t.Fatalf("expected nil item, got %+v", item)
	}
}

func testTTL(t *testing.T, c cache.Cache) {
	ctx := context.Background()
	if err := c.Set(ctx, "short", []byte("x"), cache.WithTTL(50*time.Millisecond)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	item, err := c.Get(ctx, "short")
	if err != nil || item == nil {
		t.Fatalf("expected fresh item, got %v, %v", item, err)
	}
	if item.ExpiresAt == nil {
		t.Fatalf("expected ExpiresAt to be set")
	}

	time.Sleep(100 * time.Millisecond)
	item, err = c.Get(ctx, "short")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item != nil {
		t.Fatalf("expected expired item to be gone")
	}
}

func testNamespaces(t *testing.T, c cache.Cache) {
	ctx := context.Background()
	_ = c.Set(ctx, "k", []byte("a"), cache.WithNamespace("fn_a"))
	_ = c.Set(ctx, "k", []byte("b"), cache.WithNamespace("fn_b"))
	_ = c.Set(ctx, "k", []byte("g"))

	for ns, want := range map[string]string{"fn_a": "a", "fn_b": "b", "": "g"} {
		item, err := c.Get(ctx, "k", cache.WithNamespace(ns))
		if err != nil || item == nil {
			t.Fatalf("namespace %q: %v, %v", ns, item, err)
		}
		if string(item.Data) != want {
			t.Fatalf("namespace %q: got %q, want %q", ns, item.Data, want)
		}
	}
}

func testDeleteKey(t *testing.T, c cache.Cache) {
	ctx := context.Background()
	_ = c.Set(ctx, "k1", []byte("1"), cache.WithNamespace("fn"))
	_ = c.Set(ctx, "k2", []byte("2"), cache.WithNamespace("fn"))

	if err := c.Delete(ctx, cache.WithNamespace("fn"), cache.WithKey("k1")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if item, _ := c.Get(ctx, "k1", cache.WithNamespace("fn")); item != nil {
		t.Fatalf("k1 should be deleted")
	}
	if item, _ := c.Get(ctx, "k2", cache.WithNamespace("fn")); item == nil {
		t.Fatalf("k2 should survive")
	}
}

func testDeleteNamespace(t *testing.T, c cache.Cache) {
	ctx := context.Background()
	_ = c.Set(ctx, "k1", []byte("1"), cache.WithNamespace("grades"))
	_ = c.Set(ctx, "k2", []byte("2"), cache.WithNamespace("grades"))
	_ = c.Set(ctx, "k1", []byte("3"), cache.WithNamespace("courses"))

	if err := c.Delete(ctx, cache.WithNamespace("grades")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	for _, k := range []string{"k1", "k2"} {
		if item, _ := c.Get(ctx, k, cache.WithNamespace("grades")); item != nil {
			t.Fatalf("%s should be deleted", k)
		}
	}
	if item, _ := c.Get(ctx, "k1", cache.WithNamespace("courses")); item == nil {
		t.Fatalf("other namespace should survive")
	}

	if err := c.Delete(ctx); !errors.Is(err, cache.ErrGlobalDelete) {
		t.Fatalf("expected ErrGlobalDelete, got %v", err)
	}
}
