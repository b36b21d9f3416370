// Package cache is a small in-memory TTL cache. Expired entries are dropped
// lazily on access and periodically by a janitor goroutine.
package cache

import (
	"sync"
	"time"
)

type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
	MaxEntries    int
	Clock         func() time.Time
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
	storedAt  time.Time
}

type Cache[V any] struct {
	mu      sync.Mutex
	cfg     Config
	entries map[string]entry[V]

	hits   int64
	misses int64

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

func New[V any](cfg Config) *Cache[V] {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 256
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	c := &Cache[V]{
		cfg:     cfg,
		entries: map[string]entry[V]{},
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *Cache[V]) now() time.Time {
	return c.cfg.Clock().UTC()
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		if ok {
			delete(c.entries, key)
		}
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key for the configured TTL. When the cache is full
// the oldest entry is evicted.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.cfg.MaxEntries {
		c.sweepLocked(now)
		if len(c.entries) >= c.cfg.MaxEntries {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = entry[V]{value: value, storedAt: now, expiresAt: now.Add(c.cfg.TTL)}
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// Sweep removes every expired entry and reports how many were dropped.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(c.now())
}

// Close stops the janitor. It is safe to call more than once.
func (c *Cache[V]) Close() {
	c.once.Do(func() {
		close(c.stop)
		<-c.done
	})
}

func (c *Cache[V]) sweepLocked(now time.Time) int {
	n := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *Cache[V]) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.storedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, e.storedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

func (c *Cache[V]) janitor() {
	defer close(c.done)
	t := time.NewTicker(c.cfg.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			c.Sweep()
		}
	}
}
