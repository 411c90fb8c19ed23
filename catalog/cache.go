package catalog

import (
	"container/list"
	"sync"

	"golang.org/x/sync/singleflight"
)

// renderCache is a bounded LRU keyed by node-tree pointer identity, value
// the final rendered SQL for that tree under this catalog's dialect. A
// singleflight.Group collapses concurrent misses on the same key into one
// compile, per SPEC_FULL.md §8 — no LRU library in the retrieval pack
// covers this, so it is hand-rolled on container/list+sync.Mutex.
type renderCache struct {
	mu       sync.Mutex
	ll       *list.List
	items    map[any]*list.Element
	capacity int

	group singleflight.Group
}

type cacheEntry struct {
	key   any
	value any
}

func newRenderCache(capacity int) *renderCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &renderCache{
		ll:       list.New(),
		items:    make(map[any]*list.Element),
		capacity: capacity,
	}
}

func (c *renderCache) get(key any) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

func (c *renderCache) put(key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).value = value
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&cacheEntry{key: key, value: value})
	c.items[key] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

// getOrCompute returns the cached value for key, or computes, caches, and
// returns it. Concurrent calls for the same key share one compute call.
func (c *renderCache) getOrCompute(key any, groupKey string, compute func() (any, error)) (any, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(groupKey, func() (any, error) {
		if v, ok := c.get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.put(key, v)
		return v, nil
	})
	return v, err
}
