package permitmap

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/permitmap/pkg/connectors"
	"github.com/agentstation/permitmap/pkg/constants"
	"github.com/agentstation/permitmap/pkg/permits"
	"github.com/agentstation/permitmap/pkg/registry"
)

// MetricsRecorder receives per-source, per-answer and cache observations.
type MetricsRecorder interface {
	ObserveSource(permits.SourceResult)
	ObserveAggregate(permits.AggregateResult)
	CacheLookup(hit bool)
}

// options holds the client configuration.
type options struct {
	registry     *registry.Registry
	registryPath string
	timeout      time.Duration
	cacheTTL     time.Duration
	logger       *zerolog.Logger
	httpClient   *http.Client
	userAgent    string
	retryWait    time.Duration
	secrets      func(string) string
	metrics      MetricsRecorder
	connectors   []connectors.Connector
}

// Option configures a Client.
type Option func(*options)

// defaults returns the default options.
func defaults() *options {
	return &options{
		timeout: constants.DefaultConnectorTimeout,
	}
}

// apply applies the given options.
func (o *options) apply(opts ...Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithRegistry uses reg instead of the built-in registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithRegistryFile loads the registry from a YAML file.
func WithRegistryFile(path string) Option {
	return func(o *options) {
		o.registryPath = path
	}
}

// WithTimeout sets the per-connector deadline for entries that set none.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithCacheTTL caches aggregate results for d. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(o *options) {
		o.cacheTTL = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithHTTPClient sets the HTTP client shared by network connectors.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithUserAgent sets the User-Agent sent to municipal portals.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithRetryWait sets the base backoff between retries.
func WithRetryWait(d time.Duration) Option {
	return func(o *options) {
		o.retryWait = d
	}
}

// WithSecrets resolves API token variable names. Defaults to os.Getenv.
func WithSecrets(fn func(name string) string) Option {
	return func(o *options) {
		o.secrets = fn
	}
}

// WithMetrics records observations to m.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithConnector replaces the connector built for c.City().
func WithConnector(c connectors.Connector) Option {
	return func(o *options) {
		o.connectors = append(o.connectors, c)
	}
}
