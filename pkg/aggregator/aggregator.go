// Package aggregator fans a query out to every registered connector,
// waits for all of them to settle, and merges the results into one
// confidence-scored answer.
//
// Each connector runs in its own goroutine under its own deadline. A
// connector that fails, panics or hangs only ever produces a failed
// SourceResult for its own city.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/agentstation/permitmap/pkg/confidence"
	"github.com/agentstation/permitmap/pkg/connectors"
	"github.com/agentstation/permitmap/pkg/constants"
	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/logging"
	"github.com/agentstation/permitmap/pkg/permits"
	"github.com/agentstation/permitmap/pkg/registry"
)

// Aggregator is safe for concurrent use. It holds no per-query state.
type Aggregator struct {
	registry   *registry.Registry
	connectors map[string]connectors.Connector
	timeout    time.Duration
	observers  []Observer
	logger     *zerolog.Logger
	connOpts   []connectors.Option
	overrides  map[string]connectors.Connector
}

// New builds one connector per registry entry.
func New(reg *registry.Registry, factories *connectors.Factories, opts ...Option) (*Aggregator, error) {
	if reg == nil {
		return nil, errors.NewConfigError("aggregator", "registry is required", nil)
	}
	a := &Aggregator{
		registry:   reg,
		connectors: make(map[string]connectors.Connector, reg.Len()),
		timeout:    constants.DefaultConnectorTimeout,
		overrides:  make(map[string]connectors.Connector),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.logger == nil {
		a.logger = logging.Default()
	}

	connOpts := connectors.Apply(a.connOpts...)
	if connOpts.Logger == nil {
		connOpts.Logger = a.logger
	}

	for city := range a.overrides {
		if _, ok := reg.Get(city); !ok {
			return nil, errors.NewConfigError("aggregator", fmt.Sprintf("connector for unregistered city %q", city), nil)
		}
	}

	for _, entry := range reg.Entries() {
		if c, ok := a.overrides[entry.City]; ok {
			a.connectors[entry.City] = c
			continue
		}
		if factories == nil {
			return nil, errors.NewConfigError("aggregator", "no connector factories", nil)
		}
		c, err := factories.Build(entry, connOpts)
		if err != nil {
			return nil, err
		}
		a.connectors[entry.City] = c
	}
	return a, nil
}

// Registry returns the registry the aggregator was built from.
func (a *Aggregator) Registry() *registry.Registry {
	return a.registry
}

// FetchAll queries every selected source concurrently and merges the
// results. It never returns an error: failures are recorded per source.
func (a *Aggregator) FetchAll(ctx context.Context, query string, opts ...QueryOption) permits.AggregateResult {
	var cfg queryConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	query = NormalizeQuery(query)
	start := time.Now()

	selected, unknown := a.registry.Select(cfg.cities)
	results := make([]permits.SourceResult, 0, len(selected)+len(unknown))
	for _, city := range unknown {
		err := errors.NewConfigError("registry", fmt.Sprintf("unknown city %q", city), errors.NewNotFoundError("city", city))
		results = append(results, permits.FailedResult(permits.SourceMeta{City: city, FetchedAt: utc.Now()}, errors.KindConfiguration, err))
	}

	ch := make(chan permits.SourceResult, len(selected))
	var wg sync.WaitGroup
	for _, entry := range selected {
		wg.Add(1)
		go func(entry registry.Entry) {
			defer wg.Done()
			ch <- a.run(ctx, entry, query)
		}(entry)
	}
	wg.Wait()
	close(ch)
	for r := range ch {
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].City < results[j].City })
	for _, r := range results {
		for _, obs := range a.observers {
			obs(r)
		}
	}

	agg := Merge(query, results)
	a.logger.Info().
		Str("query", query).
		Int("sources", len(results)).
		Int("responded", agg.Responded).
		Int("items", agg.TotalItems).
		Float64("confidence", agg.Confidence).
		Dur("duration", time.Since(start)).
		Msg("Aggregated permits")
	return agg
}

// Answer runs FetchAll and wraps the result in the single-answer envelope.
func (a *Aggregator) Answer(ctx context.Context, query string, opts ...QueryOption) permits.Answer {
	return confidence.Answer(a.FetchAll(ctx, query, opts...))
}

// run invokes one connector under its own deadline. A connector that does
// not return by the deadline is abandoned; its goroutine delivers into a
// buffered channel nobody reads.
func (a *Aggregator) run(ctx context.Context, entry registry.Entry, query string) permits.SourceResult {
	conn := a.connectors[entry.City]
	timeout := entry.EffectiveTimeout(a.timeout)
	meta := permits.SourceMeta{
		City:       entry.City,
		RawSource:  entry.Endpoint,
		TrustScore: entry.TrustScore,
		FetchedAt:  utc.Now(),
	}
	start := time.Now()

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan permits.SourceResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				meta.Duration = time.Since(start)
				done <- permits.FailedResult(meta, errors.KindInternal, &errors.PanicError{City: entry.City, Value: r})
			}
		}()
		done <- conn.Fetch(cctx, query)
	}()

	var result permits.SourceResult
	select {
	case result = <-done:
	case <-cctx.Done():
		select {
		case result = <-done:
		default:
			meta.Duration = time.Since(start)
			result = abandoned(meta, cctx.Err(), timeout)
			a.logger.Warn().
				Str("city", entry.City).
				Str("error_kind", result.ErrorKind).
				Dur("timeout", timeout).
				Msg("Connector abandoned")
		}
	}

	// The registry is authoritative for identity and trust.
	result.City = entry.City
	result.TrustScore = entry.TrustScore
	if result.Items == nil {
		result.Items = []permits.Record{}
	}
	return result
}

func abandoned(meta permits.SourceMeta, err error, timeout time.Duration) permits.SourceResult {
	if errors.Is(err, context.DeadlineExceeded) {
		return permits.FailedResult(meta, errors.KindTimeout,
			errors.NewTimeoutError("fetch "+meta.City, timeout.String(), "connector did not respond"))
	}
	return permits.FailedResult(meta, errors.KindCanceled, fmt.Errorf("fetch %s: %w", meta.City, errors.ErrCanceled))
}

// Merge combines settled source results, already ordered by city, into an
// aggregate result.
func Merge(query string, results []permits.SourceResult) permits.AggregateResult {
	items := make([]permits.Record, 0)
	for _, r := range results {
		if r.Outcome.Responded() {
			items = append(items, r.Items...)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].City != items[j].City {
			return items[i].City < items[j].City
		}
		if items[i].ID != items[j].ID {
			return items[i].ID < items[j].ID
		}
		return items[i].Source < items[j].Source
	})

	responded, attempted := confidence.Counts(results)
	if results == nil {
		results = []permits.SourceResult{}
	}
	return permits.AggregateResult{
		Query:           query,
		TotalItems:      len(items),
		Cities:          results,
		AggregatedItems: items,
		Confidence:      confidence.Score(results),
		Responded:       responded,
		Attempted:       attempted,
		Notes:           confidence.Notes(results),
		GeneratedAt:     utc.Now(),
	}
}

// NormalizeQuery collapses whitespace and bounds the query length.
func NormalizeQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if r := []rune(q); len(r) > constants.MaxQueryLength {
		q = string(r[:constants.MaxQueryLength])
	}
	return q
}
