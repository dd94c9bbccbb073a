package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_GetSetExpiry(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](0)
	defer c.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "gas", 30, 12*time.Second)
	c.Set(ctx, "forever", 1, 0)

	if v, ok := c.Get(ctx, "gas"); !ok || v != 30 {
		t.Fatalf("Get(gas) = %d, %v", v, ok)
	}

	now = now.Add(13 * time.Second)

	if _, ok := c.Get(ctx, "gas"); ok {
		t.Error("expected gas entry to be expired")
	}
	if _, ok := c.Get(ctx, "forever"); !ok {
		t.Error("zero ttl entry must not expire")
	}

	c.evictExpired()
	if c.Len() != 1 {
		t.Errorf("Len after eviction = %d, want 1", c.Len())
	}
}

func TestCache_DeleteAndClose(t *testing.T) {
	ctx := context.Background()
	c := New[string, string](time.Millisecond)

	c.Set(ctx, "k", "v", time.Minute)
	c.Delete(ctx, "k")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("deleted key still present")
	}

	c.Close()
	c.Close()
}
