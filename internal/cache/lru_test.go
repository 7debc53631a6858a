package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_PutGet(t *testing.T) {
	t.Parallel()
	c := NewLRU[string, int](4, time.Minute)

	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRU_UpdateExistingKey(t *testing.T) {
	t.Parallel()
	c := NewLRU[string, int](4, time.Minute)

	c.Put("a", 1)
	c.Put("a", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()
	c := NewLRU[string, int](2, time.Minute)

	c.Put("a", 1)
	c.Put("b", 2)
	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRU_TTLExpiry(t *testing.T) {
	t.Parallel()
	c := NewLRU[string, int](4, time.Minute)

	now := time.Now()
	c.nowFn = func() time.Time { return now }
	c.Put("a", 1)

	// Advance past the TTL.
	c.nowFn = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok := c.Get("a")
	assert.False(t, ok, "expired entry must not be served")
	assert.Equal(t, 0, c.Len(), "expired entry is removed on access")
}

func TestLRU_Remove(t *testing.T) {
	t.Parallel()
	c := NewLRU[string, int](4, time.Minute)

	c.Put("a", 1)
	c.Remove("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	// Removing an absent key is a no-op.
	c.Remove("missing")
}

func TestLRU_Stats(t *testing.T) {
	t.Parallel()
	c := NewLRU[string, int](4, time.Minute)

	c.Put("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}
