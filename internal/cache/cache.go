// Package cache holds recent aggregate results in memory.
// It uses patrickmn/go-cache for TTL-based expiry; keys are BLAKE3 digests of
// the normalized query and the sorted set of cities it targeted.
package cache

import (
	"encoding/hex"
	"slices"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/zeebo/blake3"

	"github.com/agentstation/permitmap/pkg/permits"
)

// Cache stores aggregate results keyed by query and city set.
type Cache struct {
	store *gocache.Cache
	ttl   time.Duration
}

// New creates a cache. Entries expire after ttl and are swept every
// cleanupInterval.
func New(ttl, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// Key derives the cache key for a query against a set of cities. City order
// and case do not matter.
func Key(query string, cities []string) string {
	keys := make([]string, 0, len(cities))
	for _, c := range cities {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			keys = append(keys, c)
		}
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	h := blake3.New()
	_, _ = h.WriteString(strings.TrimSpace(query))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(strings.Join(keys, ","))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Get returns a copy of the cached result for key, so callers may modify it.
func (c *Cache) Get(key string) (permits.AggregateResult, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return permits.AggregateResult{}, false
	}
	res, ok := v.(permits.AggregateResult)
	if !ok {
		return permits.AggregateResult{}, false
	}
	return res.Clone(), true
}

// Set stores a copy of res with the default TTL.
func (c *Cache) Set(key string, res permits.AggregateResult) {
	c.store.Set(key, res.Clone(), gocache.DefaultExpiration)
}

// ItemCount returns the number of items in the cache, expired ones included
// until the next sweep.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}

// Stats returns cache statistics.
type Stats struct {
	ItemCount int           `json:"item_count"`
	TTL       time.Duration `json:"ttl"`
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	return Stats{
		ItemCount: c.store.ItemCount(),
		TTL:       c.ttl,
	}
}
