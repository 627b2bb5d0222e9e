package cache

import (
	"sync"
	"time"
)

type Entry[T any] struct {
	Value     T
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the entry passed its deadline. A zero ExpiresAt
// never expires.
func (e Entry[T]) IsExpired() bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(e.ExpiresAt)
}

type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
	ttl     time.Duration
}

func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]Entry[T]),
		ttl:     ttl,
	}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || entry.IsExpired() {
		var zero T
		return zero, false
	}

	return entry.Value, true
}

func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.set(key, value)
}

func (c *Cache[T]) set(key string, value T) {
	now := time.Now()
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = now.Add(c.ttl)
	}

	c.entries[key] = Entry[T]{
		Value:     value,
		UpdatedAt: now,
		ExpiresAt: expiresAt,
	}
}

// Update replaces the value under key with fn(current, found) atomically and
// returns the stored value.
func (c *Cache[T]) Update(key string, fn func(current T, found bool) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	found := exists && !entry.IsExpired()
	if !found {
		var zero T
		entry.Value = zero
	}
	next := fn(entry.Value, found)
	c.set(key, next)
	return next
}

// UpdatedAt returns the time the key was last written, or the zero time.
func (c *Cache[T]) UpdatedAt(key string) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entry, ok := c.entries[key]; ok && !entry.IsExpired() {
		return entry.UpdatedAt
	}
	return time.Time{}
}

func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry[T])
}

func (c *Cache[T]) CleanExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.IsExpired() {
			delete(c.entries, key)
		}
	}
}
