package tokencache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func setupTestCache(t *testing.T) *RedisCache {
	t.Helper()
	s := miniredis.RunT(t)
	cache, err := NewRedisCache("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	if err := cache.Save(ctx, "ya29.token"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	token, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if token != "ya29.token" {
		t.Fatalf("expected cached token, got %q", token)
	}
}

func TestRedisCacheLoadAbsent(t *testing.T) {
	cache := setupTestCache(t)

	token, err := cache.Load(context.Background())
	if err != nil {
		t.Fatalf("Load of absent credential must not fail: %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}
}

func TestRedisCacheClear(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	if err := cache.Save(ctx, "ya29.token"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	token, err := cache.Load(ctx)
	if err != nil || token != "" {
		t.Fatalf("expected cleared credential, got %q err=%v", token, err)
	}

	// Clearing again is harmless.
	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	if token, _ := cache.Load(ctx); token != "" {
		t.Fatalf("fresh cache not empty: %q", token)
	}
	_ = cache.Save(ctx, "abc")
	if token, _ := cache.Load(ctx); token != "abc" {
		t.Fatalf("expected saved token, got %q", token)
	}
	_ = cache.Clear(ctx)
	if token, _ := cache.Load(ctx); token != "" {
		t.Fatalf("expected cleared token, got %q", token)
	}
}
