// Package connectors defines the contract every municipal source adapter
// implements and the factory set that builds adapters from registry
// entries.
package connectors

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/permits"
	"github.com/agentstation/permitmap/pkg/registry"
)

// Connector fetches permits from one municipal source.
//
// Fetch never returns an error and must not panic: every failure is
// reported as a SourceResult with OutcomeFailed. Implementations must honor
// ctx cancellation.
type Connector interface {
	City() string
	Kind() registry.Kind
	Fetch(ctx context.Context, query string) permits.SourceResult
}

// Stage is a step of the per-connector state machine:
// Pending → Fetching → Parsing → Validating → Done, with Failed reachable
// from Fetching and Parsing.
type Stage string

// Stages.
const (
	StagePending    Stage = "pending"
	StageFetching   Stage = "fetching"
	StageParsing    Stage = "parsing"
	StageValidating Stage = "validating"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Options are shared construction settings for connectors.
type Options struct {
	// HTTPClient overrides the transport's http.Client.
	HTTPClient *http.Client

	// RequestTimeout is the per-attempt HTTP ceiling.
	RequestTimeout time.Duration

	// RetryWait is the base retry backoff.
	RetryWait time.Duration

	UserAgent string

	// Secrets resolves an environment variable name to a token.
	Secrets func(name string) string

	Logger *zerolog.Logger
}

// Option configures Options.
type Option func(*Options)

// WithHTTPClient sets the HTTP client used by network connectors.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) { o.HTTPClient = c }
}

// WithRequestTimeout sets the per-attempt HTTP ceiling.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) { o.RequestTimeout = d }
}

// WithRetryWait sets the base retry backoff.
func WithRetryWait(d time.Duration) Option {
	return func(o *Options) { o.RetryWait = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *Options) { o.UserAgent = ua }
}

// WithSecrets sets the token resolver.
func WithSecrets(fn func(name string) string) Option {
	return func(o *Options) { o.Secrets = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Apply builds Options from opts.
func Apply(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Factory builds a connector for one registry entry.
type Factory func(entry registry.Entry, opts Options) (Connector, error)

// Factories maps connector kinds to factories. Adding a municipality that
// speaks a known wire family needs only a registry entry; a new wire family
// needs one Register call.
type Factories struct {
	mu        sync.RWMutex
	factories map[registry.Kind]Factory
}

// NewFactories creates an empty factory set.
func NewFactories() *Factories {
	return &Factories{factories: make(map[registry.Kind]Factory)}
}

// Register adds or replaces the factory for kind.
func (f *Factories) Register(kind registry.Kind, factory Factory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.factories[kind] = factory
}

// Has reports whether kind has a factory.
func (f *Factories) Has(kind registry.Kind) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.factories[kind]
	return ok
}

// Kinds lists registered kinds in sorted order.
func (f *Factories) Kinds() []registry.Kind {
	f.mu.RLock()
	defer f.mu.RUnlock()
	kinds := make([]registry.Kind, 0, len(f.factories))
	for k := range f.factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Build creates a connector for entry.
func (f *Factories) Build(entry registry.Entry, opts Options) (Connector, error) {
	f.mu.RLock()
	factory, ok := f.factories[entry.Kind]
	f.mu.RUnlock()
	if !ok {
		return nil, errors.NewConfigError("connectors", fmt.Sprintf("no connector for kind %q (city %s)", entry.Kind, entry.City), nil)
	}
	c, err := factory(entry, opts)
	if err != nil {
		return nil, errors.WrapConfig("connectors", err)
	}
	return c, nil
}
