package cache

import (
	"context"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// InMemoryCache implements ResponseCache for single-instance deployments and
// tests. Patterns follow the same glob rules as Redis for the key shapes used
// here ('*' and '?' within a key segment).
type InMemoryCache struct {
	entries         sync.Map // map[string]*cacheEntry
	logger          *zap.Logger
	cleanupInterval time.Duration
	now             func() time.Time
	stopCh          chan struct{}
	stopped         atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e *cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemoryCacheOption configures an InMemoryCache
type InMemoryCacheOption func(*InMemoryCache)

// WithInMemoryLogger sets the logger
func WithInMemoryLogger(logger *zap.Logger) InMemoryCacheOption {
	return func(c *InMemoryCache) {
		c.logger = logger
	}
}

// WithCleanupInterval sets how often expired entries are swept
func WithCleanupInterval(d time.Duration) InMemoryCacheOption {
	return func(c *InMemoryCache) {
		if d > 0 {
			c.cleanupInterval = d
		}
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) InMemoryCacheOption {
	return func(c *InMemoryCache) {
		c.now = now
	}
}

// NewInMemoryCache creates the cache and starts its cleanup goroutine
func NewInMemoryCache(opts ...InMemoryCacheOption) *InMemoryCache {
	c := &InMemoryCache{
		logger:          zap.NewNop(),
		cleanupInterval: defaultCleanupInterval,
		now:             time.Now,
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupLoop()
	return c
}

// Get returns a copy of the cached payload
func (c *InMemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, ok := c.entries.Load(key)
	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}
	entry := raw.(*cacheEntry)
	if entry.expired(c.now()) {
		c.entries.Delete(key)
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)
	return append([]byte(nil), entry.value...), true, nil
}

// Set stores a copy of value; ttl <= 0 keeps the entry until deleted
func (c *InMemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := &cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries.Store(key, entry)
	return nil
}

// DeletePattern removes keys matching pattern
func (c *InMemoryCache) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, err
	}

	var deleted int64
	c.entries.Range(func(k, _ any) bool {
		key := k.(string)
		if matched, _ := path.Match(pattern, key); matched {
			c.entries.Delete(key)
			deleted++
		}
		return true
	})
	return deleted, nil
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (c *InMemoryCache) Close() error {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

// Stats returns hit and miss counters
func (c *InMemoryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of live entries
func (c *InMemoryCache) Len() int {
	now := c.now()
	n := 0
	c.entries.Range(func(_, v any) bool {
		if !v.(*cacheEntry).expired(now) {
			n++
		}
		return true
	})
	return n
}

func (c *InMemoryCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *InMemoryCache) removeExpired() {
	now := c.now()
	removed := 0
	c.entries.Range(func(k, v any) bool {
		if v.(*cacheEntry).expired(now) {
			c.entries.Delete(k)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("expired cache entries removed", zap.Int("count", removed))
	}
}

var _ ResponseCache = (*InMemoryCache)(nil)
