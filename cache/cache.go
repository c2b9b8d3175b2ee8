// Package cache provides the result cache the pipelines are embedded
// behind: TTL expiry plus LRU eviction, with an injectable clock so tests
// control expiry deterministically, and at-most-one fresh computation per
// key under concurrent identical requests.
package cache

import (
	"container/list"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// Clock supplies the current time. Production code uses SystemClock;
// tests inject a fake.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	elem      *list.Element
}

// Cache is a TTL+LRU cache. The zero value is not usable; construct with
// New. All methods are safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	entries  map[string]*entry[V]
	recency  *list.List // front = most recently used
	capacity int
	ttl      time.Duration
	clock    Clock
	group    singleflight.Group
}

// New creates a cache holding at most capacity entries, each fresh for
// ttl. A nil clock defaults to SystemClock.
func New[V any](capacity int, ttl time.Duration, clock Clock) *Cache[V] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Cache[V]{
		entries:  make(map[string]*entry[V]),
		recency:  list.New(),
		capacity: capacity,
		ttl:      ttl,
		clock:    clock,
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Cache[V]) getLocked(key string) (V, bool) {
	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.clock.Now().After(e.expiresAt) {
		c.removeLocked(e)
		return zero, false
	}
	c.recency.MoveToFront(e.elem)
	return e.value, true
}

// Put stores a value under key, evicting the least recently used entry
// when the cache is full.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key, value)
}

func (c *Cache[V]) putLocked(key string, value V) {
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = c.clock.Now().Add(c.ttl)
		c.recency.MoveToFront(e.elem)
		return
	}
	for c.capacity > 0 && len(c.entries) >= c.capacity {
		oldest := c.recency.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(*entry[V]))
	}
	e := &entry[V]{key: key, value: value, expiresAt: c.clock.Now().Add(c.ttl)}
	e.elem = c.recency.PushFront(e)
	c.entries[key] = e
}

func (c *Cache[V]) removeLocked(e *entry[V]) {
	c.recency.Remove(e.elem)
	delete(c.entries, e.key)
}

// Len returns the number of cached entries, expired ones included until
// they are read or evicted.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetOrCompute returns the cached value for key, computing and storing it
// on a miss. Concurrent calls with the same key share a single
// computation; compute errors are not cached.
func (c *Cache[V]) GetOrCompute(key string, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have stored the
		// value between the miss and the flight starting.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.Put(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Key builds a cache key from its parts using xxhash, so callers can key
// on full document text plus the profile version without storing either.
func Key(parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
