// Package imagecache resolves image refs to bytes through a memory LRU,
// an optional redis tier and HTTP.
package imagecache

import (
	"container/list"
	"sync"

	"reviewlist/internal/adapters/observability"
)

// Memory is an LRU cache bounded by entry count and total bytes.
// Front of the list is the most recently used entry.
type Memory struct {
	mu       sync.Mutex
	maxCount int
	maxBytes int64
	bytes    int64
	entries  map[string]*list.Element
	lru      *list.List
}

type entry struct {
	key  string
	data []byte
}

func NewMemory(maxCount int, maxBytes int64) *Memory {
	return &Memory{
		maxCount: maxCount,
		maxBytes: maxBytes,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

func (c *Memory) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*entry).data, true
	}
	return nil, false
}

// Put stores data under key, evicting least recently used entries until both
// limits hold. A value larger than maxBytes on its own is not stored.
func (c *Memory) Put(key string, data []byte) {
	size := int64(len(data))
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxCount <= 0 || size > c.maxBytes {
		return
	}
	if elem, ok := c.entries[key]; ok {
		e := elem.Value.(*entry)
		c.bytes += size - int64(len(e.data))
		e.data = data
		c.lru.MoveToFront(elem)
	} else {
		c.entries[key] = c.lru.PushFront(&entry{key: key, data: data})
		c.bytes += size
	}

	for c.lru.Len() > c.maxCount || c.bytes > c.maxBytes {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		e := oldest.Value.(*entry)
		c.lru.Remove(oldest)
		delete(c.entries, e.key)
		c.bytes -= int64(len(e.data))
		observability.ObserveCache("image_memory", "evict")
	}
	observability.SetImageCacheBytes(c.bytes)
}

// Len and Bytes report current usage.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *Memory) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

func (c *Memory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
	c.bytes = 0
	observability.SetImageCacheBytes(0)
}
