// Package base implements the fetch, parse and validate pipeline shared by
// every connector kind. Kind-specific packages only supply the request.
package base

import (
	"context"
	"time"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/agentstation/permitmap/pkg/connectors"
	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/logging"
	"github.com/agentstation/permitmap/pkg/permits"
	"github.com/agentstation/permitmap/pkg/registry"
)

// FetchFunc performs the network request for query. It returns the body and
// the URL the body came from.
type FetchFunc func(ctx context.Context, query string) (body []byte, source string, err error)

// Connector runs the shared pipeline around a kind-specific FetchFunc.
type Connector struct {
	entry   registry.Entry
	fields  permits.FieldMap
	fetch   FetchFunc
	extract func([]byte) ([]map[string]any, error)
	logger  *zerolog.Logger
	now     func() time.Time
}

var _ connectors.Connector = (*Connector)(nil)

// New builds a pipeline connector for entry.
func New(entry registry.Entry, fetch FetchFunc, opts connectors.Options) (*Connector, error) {
	fields, err := entry.FieldMap()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	l := logger.With().Str("city", entry.City).Str("kind", string(entry.Kind)).Logger()
	return &Connector{
		entry:   entry,
		fields:  fields,
		fetch:   fetch,
		extract: ExtractRecords,
		logger:  &l,
		now:     time.Now,
	}, nil
}

// City implements connectors.Connector.
func (c *Connector) City() string { return c.entry.City }

// Kind implements connectors.Connector.
func (c *Connector) Kind() registry.Kind { return c.entry.Kind }

// Entry returns the registry entry the connector was built from.
func (c *Connector) Entry() registry.Entry { return c.entry }

// Fetch implements connectors.Connector.
func (c *Connector) Fetch(ctx context.Context, query string) (result permits.SourceResult) {
	start := c.now()
	meta := permits.SourceMeta{
		City:       c.entry.City,
		RawSource:  c.entry.Endpoint,
		TrustScore: c.entry.TrustScore,
		FetchedAt:  utc.Time{Time: start.UTC()},
	}
	defer func() {
		if r := recover(); r != nil {
			meta.Duration = c.now().Sub(start)
			err := &errors.PanicError{City: c.entry.City, Value: r}
			c.logger.Error().Err(err).Msg("Connector panicked")
			result = permits.FailedResult(meta, errors.KindInternal, err)
		}
	}()

	fail := func(stage connectors.Stage, err error) permits.SourceResult {
		meta.Duration = c.now().Sub(start)
		kind := errors.Kind(err)
		c.logger.Warn().
			Err(err).
			Str("stage", string(connectors.StageFailed)).
			Str("failed_in", string(stage)).
			Str("error_kind", kind).
			Dur("duration", meta.Duration).
			Msg("Source failed")
		return permits.FailedResult(meta, kind, err)
	}

	c.stage(connectors.StagePending)

	c.stage(connectors.StageFetching)
	body, source, err := c.fetch(ctx, query)
	if source != "" {
		meta.RawSource = source
	}
	if err != nil {
		return fail(connectors.StageFetching, c.attribute(err, meta.RawSource))
	}
	if err := ctx.Err(); err != nil {
		return fail(connectors.StageFetching, err)
	}

	c.stage(connectors.StageParsing)
	rows, err := c.extract(body)
	if err != nil {
		return fail(connectors.StageParsing, c.attribute(err, meta.RawSource))
	}

	c.stage(connectors.StageValidating)
	batch := permits.Process(rows, c.fields, permits.Defaults{
		City:      c.entry.DisplayName(),
		Source:    meta.RawSource,
		FetchedAt: meta.FetchedAt,
	})

	meta.Duration = c.now().Sub(start)
	result = permits.NewSourceResult(meta, batch)
	c.logger.Debug().
		Str("stage", string(connectors.StageDone)).
		Str("outcome", string(result.Outcome)).
		Int("raw", batch.RawCount).
		Int("items", len(result.Items)).
		Int("dropped", batch.DroppedCount).
		Int("duplicates", batch.DuplicateCount).
		Dur("duration", meta.Duration).
		Msg("Source fetched")
	return result
}

func (c *Connector) stage(s connectors.Stage) {
	c.logger.Debug().Str("stage", string(s)).Msg("Connector stage")
}

// attribute fills in the city and endpoint on errors raised without them.
func (c *Connector) attribute(err error, source string) error {
	var netErr *errors.NetworkError
	if errors.As(err, &netErr) {
		if netErr.City == "" {
			netErr.City = c.entry.City
		}
		if netErr.Endpoint == "" {
			netErr.Endpoint = source
		}
	}
	var parseErr *errors.ParseError
	if errors.As(err, &parseErr) && parseErr.Source == "" {
		parseErr.Source = source
	}
	return err
}
