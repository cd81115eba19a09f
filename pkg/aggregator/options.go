package aggregator

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/permitmap/pkg/connectors"
	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/permits"
)

// Observer is notified once per completed source, after every source of a
// query has settled. Observers run on the calling goroutine.
type Observer func(result permits.SourceResult)

// Option configures an Aggregator.
type Option func(*Aggregator) error

// WithTimeout sets the per-connector deadline used when a registry entry
// sets none.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) error {
		if d < 0 {
			return errors.NewValidationError("timeout", d, "must not be negative")
		}
		a.timeout = d
		return nil
	}
}

// WithObserver registers an observer.
func WithObserver(fn Observer) Option {
	return func(a *Aggregator) error {
		if fn != nil {
			a.observers = append(a.observers, fn)
		}
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(a *Aggregator) error {
		a.logger = l
		return nil
	}
}

// WithConnectorOptions passes construction options to every connector the
// factories build.
func WithConnectorOptions(opts ...connectors.Option) Option {
	return func(a *Aggregator) error {
		a.connOpts = append(a.connOpts, opts...)
		return nil
	}
}

// WithConnector uses c for its city instead of building one from the
// registry entry. The city must still be registered.
func WithConnector(c connectors.Connector) Option {
	return func(a *Aggregator) error {
		if c == nil {
			return errors.NewValidationError("connector", nil, "must not be nil")
		}
		a.overrides[c.City()] = c
		return nil
	}
}

// QueryOption narrows a single query.
type QueryOption func(*queryConfig)

type queryConfig struct {
	cities []string
}

// WithCities restricts the query to the given registry keys. Unknown keys
// are reported as failed sources.
func WithCities(cities ...string) QueryOption {
	return func(c *queryConfig) {
		c.cities = append(c.cities, cities...)
	}
}
