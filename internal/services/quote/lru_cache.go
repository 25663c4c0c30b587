package quote

import (
	"container/list"
	"sync"
)

// boundedLRU is a mutex-guarded LRU map with a fixed capacity.
type boundedLRU[K comparable, V any] struct {
	mu      sync.Mutex
	items   map[K]*list.Element
	order   *list.List
	maxSize int
}

type lruItem[K comparable, V any] struct {
	key   K
	value V
}

func newBoundedLRU[K comparable, V any](maxSize int) *boundedLRU[K, V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &boundedLRU[K, V]{
		items:   make(map[K]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
	}
}

func (c *boundedLRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruItem[K, V]).value, true
}

func (c *boundedLRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruItem[K, V]).value = value
		c.order.MoveToFront(elem)
		return
	}

	for len(c.items) >= c.maxSize {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.order.Remove(back)
		delete(c.items, back.Value.(*lruItem[K, V]).key)
	}
	c.items[key] = c.order.PushFront(&lruItem[K, V]{key: key, value: value})
}

func (c *boundedLRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
