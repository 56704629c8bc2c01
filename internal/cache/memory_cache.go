package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// cacheItem represents an item in the memory cache
type cacheItem struct {
	value      []byte
	expiration time.Time
}

func (i *cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// MemoryCache implements Cache interface using in-memory storage
type MemoryCache struct {
	items         map[string]*cacheItem
	mutex         sync.Mutex
	config        *CacheConfig
	currentMemory int64
	hits          int64
	misses        int64
	evictions     int64
	closed        bool
	stop          chan struct{}
	stopOnce      sync.Once
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(config *CacheConfig) *MemoryCache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	c := &MemoryCache{
		items:  make(map[string]*cacheItem),
		config: config,
		stop:   make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go c.startCleanup(config.CleanupInterval)
	}
	return c
}

// SetNX stores a value only when the key is absent or expired
func (c *MemoryCache) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		return false, ErrInvalidTTL
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return false, ErrCacheClosed
	}

	fullKey := c.buildKey(key)
	if _, ok := c.lookup(fullKey, time.Now()); ok {
		return false, nil
	}
	if err := c.store(fullKey, value, ttl); err != nil {
		return false, err
	}
	return true, nil
}

// Exists checks if a key exists in cache
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return false, ErrCacheClosed
	}
	if _, ok := c.lookup(c.buildKey(key), time.Now()); !ok {
		atomic.AddInt64(&c.misses, 1)
		return false, nil
	}
	atomic.AddInt64(&c.hits, 1)
	return true, nil
}

// Close stops the cleanup goroutine and drops all entries
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.closed = true
	c.items = make(map[string]*cacheItem)
	c.currentMemory = 0
	return nil
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() CacheStats {
	c.mutex.Lock()
	keys := int64(len(c.items))
	memory := c.currentMemory
	c.mutex.Unlock()

	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)

	return CacheStats{
		Hits:        hits,
		Misses:      misses,
		HitRatio:    hitRatio(hits, misses),
		Keys:        keys,
		MemoryUsage: memory,
		Evictions:   atomic.LoadInt64(&c.evictions),
	}
}

// lookup returns a live item, dropping it if expired. Caller holds the lock.
func (c *MemoryCache) lookup(fullKey string, now time.Time) (*cacheItem, bool) {
	item, ok := c.items[fullKey]
	if !ok {
		return nil, false
	}
	if item.expired(now) {
		c.remove(fullKey)
		return nil, false
	}
	return item, true
}

// store writes an entry, evicting expired ones first when over budget. Caller holds the lock.
func (c *MemoryCache) store(fullKey string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.config.TTL
	}

	now := time.Now()
	if _, ok := c.lookup(fullKey, now); ok {
		c.remove(fullKey)
	}

	size := int64(len(fullKey) + len(value))
	if c.config.MaxMemory > 0 && c.currentMemory+size > c.config.MaxMemory {
		c.evictExpired(now)
		if c.currentMemory+size > c.config.MaxMemory {
			return ErrCacheFull
		}
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	item := &cacheItem{value: stored}
	if ttl > 0 {
		item.expiration = now.Add(ttl)
	}
	c.items[fullKey] = item
	c.currentMemory += size
	return nil
}

// remove deletes an entry. Caller holds the lock.
func (c *MemoryCache) remove(fullKey string) {
	if item, ok := c.items[fullKey]; ok {
		c.currentMemory -= int64(len(fullKey) + len(item.value))
		delete(c.items, fullKey)
	}
}

// evictExpired drops all expired entries. Caller holds the lock.
func (c *MemoryCache) evictExpired(now time.Time) {
	for key, item := range c.items {
		if item.expired(now) {
			c.remove(key)
			atomic.AddInt64(&c.evictions, 1)
		}
	}
}

func (c *MemoryCache) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			if !c.closed {
				c.evictExpired(time.Now())
			}
			c.mutex.Unlock()
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryCache) buildKey(key string) string {
	return c.config.Prefix + key
}

func hitRatio(hits, misses int64) float64 {
	if total := hits + misses; total > 0 {
		return float64(hits) / float64(total)
	}
	return 0
}
