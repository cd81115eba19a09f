// Package permitmap provides the main entry point for permit aggregation.
// It wraps the aggregator with registry loading, result caching, metrics and
// event hooks.
//
// Example usage:
//
//	client, err := permitmap.New(permitmap.WithCacheTTL(2 * time.Minute))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client.OnSourceResult(func(r permits.SourceResult) {
//	    log.Printf("%s: %s (%d records)", r.City, r.Outcome, len(r.Items))
//	})
//
//	ans := client.Answer(ctx, "solar panel", "austin", "seattle")
//	fmt.Printf("confidence %.2f, %d permits\n", ans.Confidence, ans.Payload.TotalItems)
package permitmap

import (
	"context"
	"os"

	"github.com/agentstation/permitmap/internal/cache"
	"github.com/agentstation/permitmap/internal/connectors/builtin"
	"github.com/agentstation/permitmap/pkg/aggregator"
	"github.com/agentstation/permitmap/pkg/confidence"
	"github.com/agentstation/permitmap/pkg/connectors"
	"github.com/agentstation/permitmap/pkg/constants"
	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/logging"
	"github.com/agentstation/permitmap/pkg/permits"
	"github.com/agentstation/permitmap/pkg/registry"
)

// Compile-time interface check.
var _ Client = (*client)(nil)

// Querier runs permit queries.
type Querier interface {
	// Aggregate queries the given cities, or every registered city when
	// none are given.
	Aggregate(ctx context.Context, query string, cities ...string) permits.AggregateResult

	// Answer is Aggregate wrapped in the single-answer envelope.
	Answer(ctx context.Context, query string, cities ...string) permits.Answer
}

// Sources exposes the configured registry.
type Sources interface {
	Registry() *registry.Registry
}

// CacheStats describes the result cache.
type CacheStats struct {
	Enabled bool   `json:"enabled"`
	Items   int    `json:"items"`
	TTL     string `json:"ttl,omitempty"`
}

// Stats reports client internals for monitoring.
type Stats interface {
	CacheStats() CacheStats
}

// Client is the permit aggregation client.
type Client interface {
	Querier
	Sources
	Stats
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	options  *options
	registry *registry.Registry
	agg      *aggregator.Aggregator
	cache    *cache.Cache // nil when caching is off
	*hooks
}

// New creates a Client. Registry or connector problems are returned here;
// once built, queries never fail as a whole.
func New(opts ...Option) (Client, error) {
	o := defaults().apply(opts...)
	if o.logger == nil {
		o.logger = logging.Default()
	}

	reg := o.registry
	if reg == nil && o.registryPath != "" {
		var err error
		if reg, err = registry.Load(o.registryPath); err != nil {
			return nil, err
		}
	}
	if reg == nil {
		reg = registry.Default()
	}

	c := &client{
		options:  o,
		registry: reg,
		hooks:    newHooks(),
	}

	secrets := o.secrets
	if secrets == nil {
		secrets = os.Getenv
	}
	aggOpts := []aggregator.Option{
		aggregator.WithLogger(o.logger),
		aggregator.WithTimeout(o.timeout),
		aggregator.WithObserver(c.observe),
		aggregator.WithConnectorOptions(
			connectors.WithHTTPClient(o.httpClient),
			connectors.WithUserAgent(o.userAgent),
			connectors.WithRetryWait(o.retryWait),
			connectors.WithSecrets(secrets),
			connectors.WithLogger(o.logger),
		),
	}
	for _, conn := range o.connectors {
		aggOpts = append(aggOpts, aggregator.WithConnector(conn))
	}

	agg, err := aggregator.New(reg, builtin.Factories(), aggOpts...)
	if err != nil {
		return nil, errors.WrapConfig("client", err)
	}
	c.agg = agg

	if o.cacheTTL > 0 {
		c.cache = cache.New(o.cacheTTL, constants.CacheCleanupInterval)
	}

	o.logger.Debug().
		Int("sources", reg.Len()).
		Dur("cache_ttl", o.cacheTTL).
		Msg("Client created")
	return c, nil
}

// Registry returns the configured registry.
func (c *client) Registry() *registry.Registry {
	return c.registry
}

// Aggregate implements Querier.
func (c *client) Aggregate(ctx context.Context, query string, cities ...string) permits.AggregateResult {
	query = aggregator.NormalizeQuery(query)

	var key string
	if c.cache != nil {
		scope := cities
		if len(scope) == 0 {
			scope = c.registry.Cities()
		}
		key = cache.Key(query, scope)
		res, hit := c.cache.Get(key)
		if c.options.metrics != nil {
			c.options.metrics.CacheLookup(hit)
		}
		if hit {
			logging.FromContext(ctx).Debug().Str("query", query).Msg("Cache hit")
			return res
		}
	}

	res := c.agg.FetchAll(ctx, query, aggregator.WithCities(cities...))

	// Total failures are not cached so the next call retries the sources.
	// The cache stores and returns copies, so callers own what they get.
	if c.cache != nil && res.Responded > 0 {
		c.cache.Set(key, res)
	}
	if c.options.metrics != nil {
		c.options.metrics.ObserveAggregate(res)
	}
	c.triggerAggregate(res)
	return res
}

// Answer implements Querier.
func (c *client) Answer(ctx context.Context, query string, cities ...string) permits.Answer {
	return confidence.Answer(c.Aggregate(ctx, query, cities...))
}

// CacheStats implements Stats.
func (c *client) CacheStats() CacheStats {
	if c.cache == nil {
		return CacheStats{}
	}
	st := c.cache.GetStats()
	return CacheStats{Enabled: true, Items: st.ItemCount, TTL: st.TTL.String()}
}

// observe feeds the aggregator's per-source results to metrics and hooks.
func (c *client) observe(r permits.SourceResult) {
	if c.options.metrics != nil {
		c.options.metrics.ObserveSource(r)
	}
	c.triggerSource(r)
}
