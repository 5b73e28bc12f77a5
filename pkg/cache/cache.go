// Package cache provides a small thread-safe LRU cache with TTL, used to
// memoize completion results between polling runs.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Entry holds a cached value with its expiration time. Exported so caches can
// be dumped to and restored from disk.
type Entry struct {
	Value     any       `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

type node struct {
	key   string
	entry Entry
}

// LRU is a fixed-capacity cache; entries expire after the TTL and the least
// recently used entry is evicted when the capacity is exceeded.
type LRU struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	order    *list.List
}

// NewLRU creates a cache with the given capacity and TTL.
func NewLRU(capacity int, ttl time.Duration) *LRU {
	return &LRU{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get retrieves a live value, refreshing its recency.
func (c *LRU) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	n := elem.Value.(*node)
	if time.Now().After(n.entry.ExpiresAt) {
		c.order.Remove(elem)
		delete(c.items, key)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return n.entry.Value, true
}

// Set stores a value under key, evicting the oldest entry if needed.
func (c *LRU) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry{Value: value, ExpiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*node).entry = entry
		return
	}

	c.items[key] = c.order.PushFront(&node{key: key, entry: entry})
	c.evict()
}

// Len returns the number of entries, expired ones included.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear removes every entry.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

// Dump snapshots the cache for persistence.
func (c *LRU) Dump() map[string]Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]Entry, len(c.items))
	for k, elem := range c.items {
		out[k] = elem.Value.(*node).entry
	}
	return out
}

// Restore replaces the cache contents with a dump, skipping expired entries
// and re-enforcing capacity.
func (c *LRU) Restore(dump map[string]Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element, c.capacity)
	now := time.Now()
	for k, e := range dump {
		if now.After(e.ExpiresAt) {
			continue
		}
		c.items[k] = c.order.PushFront(&node{key: k, entry: e})
	}
	c.evict()
}

func (c *LRU) evict() {
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			return
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*node).key)
	}
}

// Key hashes an arbitrary sequence of byte chunks into a stable cache key.
func Key(chunks ...[]byte) string {
	h := sha256.New()
	for _, chunk := range chunks {
		h.Write(chunk)
	}
	return hex.EncodeToString(h.Sum(nil))
}
