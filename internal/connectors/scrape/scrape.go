// Package scrape is the placeholder for municipalities that publish permits
// only as HTML. It never touches the network.
package scrape

import (
	"context"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/agentstation/permitmap/pkg/connectors"
	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/logging"
	"github.com/agentstation/permitmap/pkg/permits"
	"github.com/agentstation/permitmap/pkg/registry"
)

// Connector reports every fetch as failed with kind scrape_required.
type Connector struct {
	entry  registry.Entry
	logger *zerolog.Logger
}

// New builds a placeholder connector. It satisfies connectors.Factory.
func New(entry registry.Entry, opts connectors.Options) (connectors.Connector, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Connector{entry: entry, logger: logger}, nil
}

// City implements connectors.Connector.
func (c *Connector) City() string { return c.entry.City }

// Kind implements connectors.Connector.
func (c *Connector) Kind() registry.Kind { return registry.KindScrape }

// Fetch implements connectors.Connector.
func (c *Connector) Fetch(_ context.Context, _ string) permits.SourceResult {
	err := &errors.ScrapeRequiredError{City: c.entry.City}
	c.logger.Debug().Str("city", c.entry.City).Msg("Skipping scrape-only source")
	return permits.FailedResult(permits.SourceMeta{
		City:       c.entry.City,
		RawSource:  c.entry.Endpoint,
		TrustScore: c.entry.TrustScore,
		FetchedAt:  utc.Now(),
	}, errors.KindScrapeRequired, err)
}
