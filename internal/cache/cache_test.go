package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/permitmap/pkg/permits"
)

func TestKey(t *testing.T) {
	a := Key("roof", []string{"seattle", "Austin"})
	b := Key(" roof ", []string{"austin", "seattle", "austin"})
	assert.Equal(t, a, b, "order, case and duplicates do not matter")
	assert.Len(t, a, 32)

	assert.NotEqual(t, a, Key("roof", []string{"austin"}))
	assert.NotEqual(t, a, Key("solar", []string{"austin", "seattle"}))
	assert.NotEqual(t, Key("a", []string{"b"}), Key("a,b", nil), "query and cities are separated")
}

func TestGetSet(t *testing.T) {
	c := New(time.Minute, 2*time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	want := permits.AggregateResult{Query: "roof", TotalItems: 2, Confidence: 0.5}
	c.Set("k", want)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, c.ItemCount())
}

func TestGetReturnsIndependentCopies(t *testing.T) {
	c := New(time.Minute, time.Minute)
	c.Set("k", permits.AggregateResult{
		Query:           "roof",
		AggregatedItems: []permits.Record{{ID: "P-1"}},
		Cities:          []permits.SourceResult{{City: "austin", Items: []permits.Record{{ID: "P-1"}}}},
		Notes:           []string{"1 of 2 sources responded"},
	})

	first, ok := c.Get("k")
	require.True(t, ok)
	first.AggregatedItems[0].ID = "changed"
	first.Cities[0].Items[0].ID = "changed"
	first.Cities[0].City = "changed"
	first.Notes[0] = "changed"

	second, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "P-1", second.AggregatedItems[0].ID)
	assert.Equal(t, "P-1", second.Cities[0].Items[0].ID)
	assert.Equal(t, "austin", second.Cities[0].City)
	assert.Equal(t, "1 of 2 sources responded", second.Notes[0])
}

func TestExpiryAndStats(t *testing.T) {
	c := New(20*time.Millisecond, time.Minute)
	c.Set("a", permits.AggregateResult{})
	c.Set("b", permits.AggregateResult{})

	stats := c.GetStats()
	assert.Equal(t, 2, stats.ItemCount)
	assert.Equal(t, 20*time.Millisecond, stats.TTL)

	time.Sleep(50 * time.Millisecond)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key("q", []string{string(rune('a' + i%5))})
			c.Set(key, permits.AggregateResult{TotalItems: i})
			_, _ = c.Get(key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, c.ItemCount())
}
