package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLStore_GetPut(t *testing.T) {
	t.Parallel()

	s := newTTLStore[string](time.Minute, 10)

	_, ok := s.get("missing")
	assert.False(t, ok)

	s.put("a", "1")
	val, ok := s.get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", val)

	s.put("a", "2")
	val, ok = s.get("a")
	assert.True(t, ok)
	assert.Equal(t, "2", val)
	assert.Equal(t, 1, s.len())
}

func TestTTLStore_Expiry(t *testing.T) {
	t.Parallel()

	s := newTTLStore[string](10*time.Millisecond, 10)
	s.put("a", "1")

	_, ok := s.get("a")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok = s.get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, s.len())
}

func TestTTLStore_EvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	s := newTTLStore[int](time.Minute, 3)
	for i := 0; i < 3; i++ {
		assert.Zero(t, s.put(fmt.Sprintf("k%d", i), i))
	}
	assert.Equal(t, 3, s.len())

	// Admitting a fourth entry evicts the least-recently-inserted one.
	assert.Equal(t, 1, s.put("k3", 3))
	assert.Equal(t, 3, s.len())

	_, ok := s.get("k0")
	assert.False(t, ok)
	for i := 1; i <= 3; i++ {
		_, ok := s.get(fmt.Sprintf("k%d", i))
		assert.True(t, ok, "k%d should survive", i)
	}
}

func TestTTLStore_ReplaceRefreshesInsertionOrder(t *testing.T) {
	t.Parallel()

	s := newTTLStore[int](time.Minute, 2)
	s.put("a", 1)
	s.put("b", 2)

	// Re-inserting "a" makes "b" the oldest entry.
	s.put("a", 10)
	s.put("c", 3)

	_, ok := s.get("b")
	assert.False(t, ok)
	val, ok := s.get("a")
	assert.True(t, ok)
	assert.Equal(t, 10, val)
}

func TestTTLStore_Purge(t *testing.T) {
	t.Parallel()

	s := newTTLStore[int](15*time.Millisecond, 10)
	s.put("a", 1)
	s.put("b", 2)

	assert.Zero(t, s.purge())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 2, s.purge())
	assert.Equal(t, 0, s.len())
}

func TestTTLStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := newTTLStore[int](time.Minute, 50)

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%60)
				s.put(key, worker)
				s.get(key)
			}
		}(worker)
	}
	wg.Wait()

	assert.LessOrEqual(t, s.len(), 50)
}
