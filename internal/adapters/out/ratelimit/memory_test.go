package ratelimit

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func allow(t *testing.T, s *MemoryStore, key string) bool {
	t.Helper()
	ok, err := s.Allow(key)
	require.NoError(t, err)
	return ok
}

func TestMemoryStore_Allow_WithinLimit(t *testing.T) {
	store := NewMemoryStore(10, 10, testLogger())

	for i := 0; i < 10; i++ {
		assert.True(t, allow(t, store, "test"), "request %d should be allowed", i+1)
	}
}

func TestMemoryStore_Allow_ExceedsLimit(t *testing.T) {
	store := NewMemoryStore(1, 1, testLogger())

	assert.True(t, allow(t, store, "test"), "first request should be allowed")
	assert.False(t, allow(t, store, "test"), "second request should be rate limited")
}

func TestMemoryStore_Allow_Refill(t *testing.T) {
	store := NewMemoryStore(10, 5, testLogger())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		assert.True(t, allow(t, store, "test"), "burst request %d should be allowed", i+1)
	}
	assert.False(t, allow(t, store, "test"), "request exceeding burst should be rate limited")

	now = now.Add(200 * time.Millisecond)
	assert.True(t, allow(t, store, "test"), "tokens refill over time")
}

func TestMemoryStore_Allow_IndependentKeys(t *testing.T) {
	store := NewMemoryStore(1, 1, testLogger())

	assert.True(t, allow(t, store, "192.168.1.1"))
	assert.False(t, allow(t, store, "192.168.1.1"))
	assert.True(t, allow(t, store, "192.168.1.2"), "other keys have their own bucket")
	assert.False(t, allow(t, store, "192.168.1.2"))
}

func TestMemoryStore_AllowN(t *testing.T) {
	store := NewMemoryStore(10, 5, testLogger())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	assert.False(t, store.AllowN("test", 10), "AllowN above burst never succeeds")
	assert.True(t, store.AllowN("test", 3))
	assert.True(t, store.AllowN("test", 2))
	assert.False(t, store.AllowN("test", 1))
}

func TestMemoryStore_SweepsIdleKeys(t *testing.T) {
	store := NewMemoryStore(1, 1, testLogger())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	allow(t, store, "a")
	allow(t, store, "b")
	assert.Equal(t, 2, store.Len())

	now = now.Add(DefaultIdleTTL + time.Second)
	allow(t, store, "c")
	assert.Equal(t, 1, store.Len(), "idle keys are dropped")
}

func TestMemoryStore_Allow_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(1000, 100, testLogger())

	var wg sync.WaitGroup
	results := make(chan bool, 200)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				ok, _ := store.Allow("concurrent")
				results <- ok
			}
		}()
	}

	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}
	require.GreaterOrEqual(t, allowed, 100, "at least burst number of requests should be allowed")
	require.LessOrEqual(t, allowed, 200)
}
