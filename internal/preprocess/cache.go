package preprocess

import (
	"container/list"
	"sync"

	"github.com/hyperjump/hdkg/internal/vsa"
)

// vectorCache is an LRU cache of label vectors keyed by canonical label.
type vectorCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value vsa.HyperVec
}

func newVectorCache(capacity int) *vectorCache {
	return &vectorCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached vector for key if present. A hit moves the entry to
// the front, so it needs the write lock.
func (c *vectorCache) Get(key string) (vsa.HyperVec, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return vsa.HyperVec{}, false
}

// Set stores the vector for key, evicting the oldest entry if at capacity.
func (c *vectorCache) Set(key string, value vsa.HyperVec) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: value})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

func (c *vectorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
