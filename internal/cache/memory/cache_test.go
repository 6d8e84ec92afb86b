package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New(16, time.Hour)
	c.Set("record:water", "v1", time.Minute)

	got, ok := c.Get("record:water")
	require.True(t, ok)
	assert.Equal(t, "v1", got)

	_, ok = c.Get("record:glycerin")
	assert.False(t, ok)
}

func TestPerEntryTTLExpiry(t *testing.T) {
	c := New(16, time.Hour)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.nowFunc = func() time.Time { return now }

	c.Set("fact:ewg:water", "v", 30*time.Second)

	_, ok := c.Get("fact:ewg:water")
	assert.True(t, ok)

	// Advance past the per-entry TTL; entry becomes a transparent miss.
	now = now.Add(31 * time.Second)
	_, ok = c.Get("fact:ewg:water")
	assert.False(t, ok)

	// And it was removed, not just hidden.
	assert.Equal(t, 0, c.Len())
}

func TestZeroTTLStoresNothing(t *testing.T) {
	c := New(16, time.Hour)
	c.Set("record:x", "v", 0)
	_, ok := c.Get("record:x")
	assert.False(t, ok)
}

func TestLRUEvictionCounted(t *testing.T) {
	c := New(2, time.Hour)
	c.Set("record:a", 1, time.Minute)
	c.Set("record:b", 2, time.Minute)
	c.Set("record:c", 3, time.Minute) // evicts record:a

	_, ok := c.Get("record:a")
	assert.False(t, ok)

	stats := c.StatsFor("record")
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestStatsPerPrefix(t *testing.T) {
	c := New(16, time.Hour)
	c.Set("record:water", "r", time.Minute)
	c.Set("fact:ewg:water", "f", time.Minute)

	c.Get("record:water")   // hit
	c.Get("record:missing") // miss
	c.Get("fact:ewg:water") // hit

	rec := c.StatsFor("record")
	assert.Equal(t, int64(1), rec.Hits)
	assert.Equal(t, int64(1), rec.Misses)

	fact := c.StatsFor("fact")
	assert.Equal(t, int64(1), fact.Hits)
	assert.Equal(t, int64(0), fact.Misses)

	total := c.TotalStats()
	assert.Equal(t, int64(2), total.Hits)
	assert.Equal(t, int64(1), total.Misses)
}

func TestConcurrentAccess(t *testing.T) {
	c := New(128, time.Hour)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("record:key-%d", i%32)
				c.Set(key, g, time.Minute)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 32)
}
