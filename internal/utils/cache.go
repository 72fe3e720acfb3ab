package utils

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem[V any] struct {
	data      V
	expiresAt time.Time
}

// TTLCache is an LRU cache whose entries also expire after a fixed TTL.
type TTLCache[K comparable, V any] struct {
	lruCache *lru.Cache[K, cacheItem[V]]
	ttl      time.Duration
	now      func() time.Time

	// Delete stamps the key with the next value of clock so a Set that raced
	// with an invalidation can be told apart from a fresh one. Stamps live in a
	// bounded LRU; an evicted stamp raises floor, which absent keys report.
	mu    sync.Mutex
	clock uint64
	floor uint64
	gen   *lru.Cache[K, uint64]
}

func NewTTLCache[K comparable, V any](size int, ttl time.Duration) (*TTLCache[K, V], error) {
	l, err := lru.New[K, cacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	c := &TTLCache[K, V]{lruCache: l, ttl: ttl, now: time.Now}
	c.gen, err = lru.NewWithEvict[K, uint64](size*4, func(_ K, stamp uint64) {
		// runs inside gen.Add, with mu held
		c.floor = max(c.floor, stamp)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *TTLCache[K, V]) stamp(key K) uint64 {
	if g, ok := c.gen.Peek(key); ok {
		return g
	}
	return c.floor
}

// Generation returns a token to pass to SetIfCurrent.
func (c *TTLCache[K, V]) Generation(key K) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stamp(key)
}

func (c *TTLCache[K, V]) Set(key K, data V) {
	c.lruCache.Add(key, cacheItem[V]{data: data, expiresAt: c.now().Add(c.ttl)})
}

// SetIfCurrent stores data only if key was not deleted since gen was taken.
func (c *TTLCache[K, V]) SetIfCurrent(key K, data V, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stamp(key) != gen {
		return false
	}
	c.Set(key, data)
	return true
}

// Get returns the cached value; expired entries are evicted and reported missing.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		var zero V
		return zero, false
	}
	return val.data, true
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	c.clock++
	c.gen.Add(key, c.clock)
	c.mu.Unlock()
	c.lruCache.Remove(key)
}

func (c *TTLCache[K, V]) Len() int {
	return c.lruCache.Len()
}
