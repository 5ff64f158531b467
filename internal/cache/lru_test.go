package cache

import (
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache returned ok")
	}

	c.Set("a", "one")
	got, ok := c.Get("a")
	if !ok || got != "one" {
		t.Errorf("Get(a) = %q, %v, want one, true", got, ok)
	}

	c.Set("a", "two")
	got, _ = c.Get("a")
	if got != "two" {
		t.Errorf("Get(a) after overwrite = %q, want two", got)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used key 'b' should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used key 'a' should survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newly added key 'c' should be present")
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should not be returned")
	}
	if c.Size() != 0 {
		t.Errorf("Size() after expired Get = %d, want 0", c.Size())
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("c", 3)

	removed := c.CleanExpired()
	if removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size() after cleanup = %d, want 1", c.Size())
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	c.Set(OwnerKey("alice", "trend", "day"), "a1")
	c.Set(OwnerKey("alice", "rank", "category"), "a2")
	c.Set(OwnerKey("bob", "trend", "day"), "b1")

	removed := c.DeletePrefix(OwnerPrefix("alice"))
	if removed != 2 {
		t.Errorf("DeletePrefix(alice) = %d, want 2", removed)
	}
	if _, ok := c.Get(OwnerKey("alice", "trend", "day")); ok {
		t.Error("alice entries should be gone")
	}
	if _, ok := c.Get(OwnerKey("bob", "trend", "day")); !ok {
		t.Error("bob entry should survive alice invalidation")
	}
}

func TestOwnerKey(t *testing.T) {
	key := OwnerKey("alice", "trend", "day")
	if key != "alice|trend|day" {
		t.Errorf("OwnerKey = %q, want alice|trend|day", key)
	}
	if pre := OwnerPrefix("alice"); pre != "alice|" {
		t.Errorf("OwnerPrefix = %q, want alice|", pre)
	}
}
