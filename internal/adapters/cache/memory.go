package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"twitfetch/internal/domain"
)

const cleanupInterval = time.Minute

// MemoryCache is an in-memory cache of fetch results with TTL support.
type MemoryCache struct {
	results sync.Map
	ttl     time.Duration
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type cacheEntry struct {
	posts     []domain.Post
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache with the specified TTL.
// Close stops its cleanup goroutine.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go c.cleanup(cleanupInterval)
	return c
}

// NormalizedKey returns the cache key for a fetch:
// /{mode}/{kind}/{id}?window={start..end}. Account handles are
// case-insensitive.
func NormalizedKey(mode string, target domain.Target, window domain.TimeWindow) string {
	id := target.ID
	if target.Kind == domain.TargetAccount {
		id = strings.ToLower(id)
	}
	return fmt.Sprintf("/%s/%s/%s?window=%s", mode, target.Kind, id, window.Key())
}

// Get returns a copy of the cached posts if present and not expired.
func (c *MemoryCache) Get(mode string, target domain.Target, window domain.TimeWindow) ([]domain.Post, bool) {
	key := NormalizedKey(mode, target, window)
	value, ok := c.results.Load(key)
	if !ok {
		return nil, false
	}

	entry := value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.results.Delete(key)
		return nil, false
	}

	return append([]domain.Post(nil), entry.posts...), true
}

// Set stores posts with the configured TTL.
func (c *MemoryCache) Set(mode string, target domain.Target, window domain.TimeWindow, posts []domain.Post) {
	c.results.Store(NormalizedKey(mode, target, window), &cacheEntry{
		posts:     append([]domain.Post(nil), posts...),
		expiresAt: c.now().Add(c.ttl),
	})
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	n := 0
	c.results.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	now := c.now()
	c.results.Range(func(key, value any) bool {
		if now.After(value.(*cacheEntry).expiresAt) {
			c.results.Delete(key)
		}
		return true
	})
}
