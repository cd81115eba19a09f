// Package socrata connects to Socrata open-data portals through the SODA
// resource endpoint, using SoQL full-text search for the query.
package socrata

import (
	"context"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/agentstation/permitmap/internal/connectors/base"
	"github.com/agentstation/permitmap/internal/transport"
	"github.com/agentstation/permitmap/pkg/connectors"
	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/registry"
)

// AppTokenHeader carries the optional application token.
const AppTokenHeader = "X-App-Token"

// New builds a Socrata connector. It satisfies connectors.Factory.
func New(entry registry.Entry, opts connectors.Options) (connectors.Connector, error) {
	if entry.Kind != registry.KindSocrata {
		return nil, errors.NewConfigError("socrata", "entry "+entry.City+" is kind "+string(entry.Kind), nil)
	}
	resource, err := ResourceURL(entry)
	if err != nil {
		return nil, err
	}

	client := transport.New(entry.City, transport.Options{
		Timeout:    opts.RequestTimeout,
		MaxRetries: entry.MaxRetries,
		RetryWait:  opts.RetryWait,
		UserAgent:  opts.UserAgent,
		HTTPClient: opts.HTTPClient,
		Logger:     opts.Logger,
	})
	if entry.AppTokenEnv != "" {
		secrets := opts.Secrets
		if secrets == nil {
			secrets = os.Getenv
		}
		client = client.WithAuth(&transport.HeaderAuth{Header: AppTokenHeader}, secrets(entry.AppTokenEnv))
	}

	fetch := func(ctx context.Context, query string) ([]byte, string, error) {
		body, err := client.Get(ctx, resource, Params(entry, query))
		return body, resource, err
	}
	return base.New(entry, fetch, opts)
}

// ResourceURL returns {endpoint}/resource/{dataset}.json.
func ResourceURL(entry registry.Entry) (string, error) {
	u, err := url.Parse(strings.TrimRight(entry.Endpoint, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errors.NewConfigError("socrata", "invalid endpoint "+entry.Endpoint+" for "+entry.City, err)
	}
	return u.JoinPath("resource", entry.Dataset+".json").String(), nil
}

// Params builds the SoQL query parameters.
func Params(entry registry.Entry, query string) url.Values {
	v := url.Values{}
	if q := strings.TrimSpace(query); q != "" {
		v.Set("$q", q)
	}
	v.Set("$limit", strconv.Itoa(entry.EffectiveLimit()))
	if entry.OrderBy != "" {
		v.Set("$order", entry.OrderBy)
	}
	return v
}
