package cache

import (
	"sync"
	"testing"
	"time"
)

func TestCacheSet(t *testing.T) {
	c := New[string](0)
	c.Set("key1", "value1")

	val, exists := c.Get("key1")
	if !exists {
		t.Fatal("key1 should exist")
	}
	if val != "value1" {
		t.Fatalf("expected 'value1', got '%s'", val)
	}
}

func TestCacheGetMissing(t *testing.T) {
	c := New[string](0)

	_, exists := c.Get("missing")
	if exists {
		t.Fatal("missing key should not exist")
	}
}

func TestCacheTTL(t *testing.T) {
	c := New[string](50 * time.Millisecond)
	c.Set("key1", "value1")

	if _, exists := c.Get("key1"); !exists {
		t.Fatal("key1 should exist immediately after set")
	}

	time.Sleep(80 * time.Millisecond)

	if _, exists := c.Get("key1"); exists {
		t.Fatal("key1 should be expired after TTL")
	}
	if !c.UpdatedAt("key1").IsZero() {
		t.Error("UpdatedAt of an expired key should be zero")
	}
}

func TestCacheUpdate(t *testing.T) {
	c := New[int](0)

	got := c.Update("n", func(cur int, found bool) int {
		if found {
			t.Error("first Update should report not found")
		}
		return cur + 1
	})
	if got != 1 {
		t.Fatalf("Update returned %d, want 1", got)
	}

	got = c.Update("n", func(cur int, found bool) int {
		if !found {
			t.Error("second Update should report found")
		}
		return cur + 10
	})
	if got != 11 {
		t.Fatalf("Update returned %d, want 11", got)
	}
}

func TestCacheUpdateConcurrent(t *testing.T) {
	c := New[int](0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Update("n", func(cur int, _ bool) int { return cur + 1 })
		}()
	}
	wg.Wait()

	if v, _ := c.Get("n"); v != 50 {
		t.Errorf("concurrent updates = %d, want 50", v)
	}
}

func TestCacheUpdatedAt(t *testing.T) {
	c := New[string](0)
	if !c.UpdatedAt("k").IsZero() {
		t.Error("missing key should have zero UpdatedAt")
	}

	before := time.Now()
	c.Set("k", "v")
	if at := c.UpdatedAt("k"); at.Before(before) {
		t.Errorf("UpdatedAt = %v, want >= %v", at, before)
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New[string](0)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("b should be cleared")
	}
}

func TestCacheCleanExpired(t *testing.T) {
	c := New[string](10 * time.Millisecond)
	c.Set("a", "1")
	time.Sleep(20 * time.Millisecond)
	c.CleanExpired()

	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	if n != 0 {
		t.Errorf("entries after CleanExpired = %d, want 0", n)
	}
}
