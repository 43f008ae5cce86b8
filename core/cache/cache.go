// Package cache provides a bounded LRU cache for translation memory
// lookups.
package cache

import (
	"container/list"
	"sync"
)

// Cache is a generic LRU cache interface.
type Cache[K comparable, V any] interface {
	// Get retrieves a value and marks it recently used.
	Get(key K) (V, bool)

	// Put stores a value, evicting the least recently used entry when full.
	Put(key K, value V)

	Remove(key K)
	Clear()
	Len() int
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

// HitRate returns hits over lookups, 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Config contains cache configuration options.
type Config[K comparable, V any] struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// OnEvict is called when an entry is evicted for space.
	OnEvict func(key K, value V)
}

// DefaultMaxSize bounds caches built without an explicit size.
const DefaultMaxSize = 4096

type entry[K comparable, V any] struct {
	key   K
	value V
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.Mutex
	config    Config[K, V]
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
}

// New creates an LRU cache. A negative MaxSize is treated as unlimited.
func New[K comparable, V any](config Config[K, V]) Cache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}
	return &lruCache[K, V]{
		config:    config,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return ent.Value.(*entry[K, V]).value, true
}

func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*entry[K, V]).value = value
		return
	}

	c.entries[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: value})
	if c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		oldest := c.evictList.Back()
		e := c.remove(oldest)
		c.stats.Evictions++
		if c.config.OnEvict != nil {
			c.config.OnEvict(e.key, e.value)
		}
	}
}

func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ent, ok := c.entries[key]; ok {
		c.remove(ent)
	}
}

func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
}

func (c *lruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

func (c *lruCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

func (c *lruCache[K, V]) remove(ent *list.Element) *entry[K, V] {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)
	return e
}
