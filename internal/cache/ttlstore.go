package cache

import (
	"container/list"
	"sync"
	"time"
)

// ttlEntry is one cached value with its insertion deadline.
type ttlEntry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// ttlStore is a bounded, TTL-expiring map. When the store is at
// capacity, the least-recently-inserted entry is evicted to admit the
// new one. All operations are internally synchronized.
type ttlStore[V any] struct {
	ttl        time.Duration
	maxEntries int

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List
}

// newTTLStore creates a ttlStore with the given TTL and capacity.
func newTTLStore[V any](ttl time.Duration, maxEntries int) *ttlStore[V] {
	return &ttlStore[V]{
		ttl:        ttl,
		maxEntries: maxEntries,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// get returns the live value for the key. An expired entry is removed
// and reported as a miss.
func (s *ttlStore[V]) get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	elem, ok := s.items[key]
	if !ok {
		return zero, false
	}
	entry := elem.Value.(*ttlEntry[V])
	if time.Now().After(entry.expiresAt) {
		s.remove(elem)
		return zero, false
	}
	return entry.value, true
}

// put inserts or replaces the value for the key and returns how many
// entries were evicted to admit it. A replaced entry takes a fresh TTL
// and counts as newly inserted.
func (s *ttlStore[V]) put(key string, value V) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[key]; ok {
		s.remove(elem)
	}

	evicted := 0
	for s.order.Len() >= s.maxEntries {
		oldest := s.order.Front()
		if oldest == nil {
			break
		}
		s.remove(oldest)
		evicted++
	}

	elem := s.order.PushBack(&ttlEntry[V]{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(s.ttl),
	})
	s.items[key] = elem
	return evicted
}

// len returns the current entry count.
func (s *ttlStore[V]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// purge drops every expired entry and returns how many were removed.
func (s *ttlStore[V]) purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element
	for elem := s.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*ttlEntry[V]).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		s.remove(elem)
	}
	return len(toRemove)
}

// remove drops an element. Must be called with the lock held.
func (s *ttlStore[V]) remove(elem *list.Element) {
	s.order.Remove(elem)
	delete(s.items, elem.Value.(*ttlEntry[V]).key)
}
