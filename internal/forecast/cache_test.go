package forecast

import (
	"testing"
	"time"
)

func TestCacheServesWithinTTL(t *testing.T) {
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	c := NewCache(time.Hour)
	c.now = func() time.Time { return clock }

	c.Set("k", 42)

	clock = base.Add(59 * time.Minute)
	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Fatalf("entry should still be fresh, got %v %v", v, ok)
	}
}

func TestCacheExpiresAtTTL(t *testing.T) {
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	c := NewCache(time.Hour)
	c.now = func() time.Time { return clock }

	c.Set("k", "v")

	clock = base.Add(time.Hour)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry at exactly TTL age must be expired")
	}
	// Expired entries are dropped, not resurrected.
	clock = base
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry should have been evicted")
	}
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache(0)
	c.Set("k", 1)
	if _, ok := c.Get("k"); ok {
		t.Fatal("zero TTL disables caching")
	}

	var nilCache *Cache
	nilCache.Set("k", 1)
	if _, ok := nilCache.Get("k"); ok {
		t.Fatal("nil cache must behave as disabled")
	}
}

func TestCacheMiss(t *testing.T) {
	c := NewCache(time.Minute)
	if _, ok := c.Get("absent"); ok {
		t.Fatal("missing key should miss")
	}
}
