package permitmap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/logging"
	"github.com/agentstation/permitmap/pkg/permits"
	"github.com/agentstation/permitmap/pkg/registry"
)

type recorder struct {
	mu         sync.Mutex
	sources    []string
	aggregates int
	hits       int
	misses     int
}

func (r *recorder) ObserveSource(s permits.SourceResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, s.City)
}

func (r *recorder) ObserveAggregate(permits.AggregateResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregates++
}

func (r *recorder) CacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func upstream(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[
			{"permit_number":"P-2","address":"2 Oak Ave","permit_type":"Roofing","status":"Issued"},
			{"permit_number":"P-1","address":"1 Oak Ave","permit_type":"Roofing","status":"Filed"}
		]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testRegistry(t *testing.T, endpoint string) *registry.Registry {
	t.Helper()
	reg, err := registry.New(
		registry.Entry{City: "springfield", Kind: registry.KindSocrata, Endpoint: endpoint, Dataset: "abcd-1234", TrustScore: 0.8},
		registry.Entry{City: "shelbyville", Kind: registry.KindScrape, TrustScore: 0.4},
	)
	require.NoError(t, err)
	return reg
}

func TestClientAggregate(t *testing.T) {
	var calls atomic.Int32
	srv := upstream(t, &calls)
	rec := &recorder{}

	c, err := New(
		WithRegistry(testRegistry(t, srv.URL)),
		WithLogger(logging.NewNopLogger()),
		WithMetrics(rec),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Registry().Len())

	var hooked []string
	c.OnSourceResult(func(r permits.SourceResult) { hooked = append(hooked, r.City) })

	res := c.Aggregate(context.Background(), "roof")
	assert.Equal(t, 2, res.TotalItems)
	assert.Equal(t, "P-1", res.AggregatedItems[0].ID)
	assert.Equal(t, "Springfield", res.AggregatedItems[0].City)
	assert.Equal(t, 1, res.Responded)
	assert.Equal(t, 1, res.Attempted, "scrape placeholders are not attempted")
	assert.Equal(t, 0.8, res.Confidence)

	assert.Equal(t, []string{"shelbyville", "springfield"}, hooked)
	assert.Equal(t, []string{"shelbyville", "springfield"}, rec.sources)
	assert.Equal(t, 1, rec.aggregates)
	assert.Equal(t, 0, rec.hits+rec.misses, "no cache configured")
}

func TestClientCache(t *testing.T) {
	var calls atomic.Int32
	srv := upstream(t, &calls)
	rec := &recorder{}

	c, err := New(
		WithRegistry(testRegistry(t, srv.URL)),
		WithLogger(logging.NewNopLogger()),
		WithCacheTTL(time.Minute),
		WithMetrics(rec),
	)
	require.NoError(t, err)

	var aggregates int
	c.OnAggregate(func(permits.AggregateResult) { aggregates++ })

	first := c.Aggregate(context.Background(), "roof", "springfield")
	second := c.Aggregate(context.Background(), " roof ", "Springfield")
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, "P-1", first.AggregatedItems[0].ID)
	assert.Equal(t, 1, aggregates, "cached results do not fire hooks")

	second.AggregatedItems[0].ID = "edited"
	third := c.Aggregate(context.Background(), "roof", "springfield")
	assert.Equal(t, "P-1", third.AggregatedItems[0].ID, "cache hits do not share slices")

	c.Aggregate(context.Background(), "roof")
	assert.Equal(t, int32(2), calls.Load(), "a different city set is a different key")

	stats := c.CacheStats()
	assert.True(t, stats.Enabled)
	assert.Equal(t, 2, stats.Items)
	assert.Equal(t, "1m0s", stats.TTL)
}

func TestClientCacheStatsDisabled(t *testing.T) {
	c, err := New(WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	assert.Equal(t, CacheStats{}, c.CacheStats())
}

func TestClientDoesNotCacheTotalFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(
		WithRegistry(testRegistry(t, srv.URL)),
		WithLogger(logging.NewNopLogger()),
		WithCacheTTL(time.Minute),
		WithRetryWait(time.Millisecond),
	)
	require.NoError(t, err)

	ans := c.Answer(context.Background(), "roof", "springfield")
	assert.False(t, ans.OK)
	assert.Equal(t, 0.0, ans.Confidence)

	c.Answer(context.Background(), "roof", "springfield")
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cities:
  - city: ogdenville
    kind: scrape
    trust_score: 0.5
`), 0o600))

	c, err := New(WithRegistryFile(path), WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	assert.Equal(t, []string{"ogdenville"}, c.Registry().Cities())

	_, err = New(WithRegistryFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.True(t, errors.IsConfiguration(err))
}

func TestClientDefaultRegistry(t *testing.T) {
	c, err := New(WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	assert.Equal(t, registry.Default().Cities(), c.Registry().Cities())
}
