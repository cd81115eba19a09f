// Package arcgis connects to ArcGIS FeatureServer layers through the
// /query REST operation.
package arcgis

import (
	"context"
	"fmt"
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

// TokenParam carries the optional ArcGIS token.
const TokenParam = "token"

// New builds an ArcGIS connector. It satisfies connectors.Factory.
func New(entry registry.Entry, opts connectors.Options) (connectors.Connector, error) {
	if entry.Kind != registry.KindArcGIS {
		return nil, errors.NewConfigError("arcgis", "entry "+entry.City+" is kind "+string(entry.Kind), nil)
	}
	queryURL, err := QueryURL(entry)
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
		client = client.WithAuth(&transport.QueryAuth{Param: TokenParam}, secrets(entry.AppTokenEnv))
	}

	fetch := func(ctx context.Context, query string) ([]byte, string, error) {
		body, err := client.Get(ctx, queryURL, Params(entry, query))
		return body, queryURL, err
	}
	return base.New(entry, fetch, opts)
}

// QueryURL returns {endpoint}/{layer}/query.
func QueryURL(entry registry.Entry) (string, error) {
	u, err := url.Parse(strings.TrimRight(entry.Endpoint, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errors.NewConfigError("arcgis", "invalid endpoint "+entry.Endpoint+" for "+entry.City, err)
	}
	return u.JoinPath(strconv.Itoa(entry.Layer), "query").String(), nil
}

// Params builds the FeatureServer query parameters. Coordinates are
// requested in WGS84.
func Params(entry registry.Entry, query string) url.Values {
	v := url.Values{}
	v.Set("where", Where(entry.SearchFields, query))
	v.Set("outFields", "*")
	v.Set("outSR", "4326")
	v.Set("returnGeometry", "true")
	v.Set("resultRecordCount", strconv.Itoa(entry.EffectiveLimit()))
	v.Set("f", "json")
	if entry.OrderBy != "" {
		v.Set("orderByFields", entry.OrderBy)
	}
	return v
}

// Where builds a case-insensitive substring match of query over fields.
// An empty query, or a layer with no search fields, matches everything.
func Where(fields []string, query string) string {
	q := strings.TrimSpace(query)
	if q == "" || len(fields) == 0 {
		return "1=1"
	}
	escaped := strings.ReplaceAll(strings.ToUpper(q), "'", "''")
	clauses := make([]string, len(fields))
	for i, f := range fields {
		clauses[i] = fmt.Sprintf("UPPER(%s) LIKE '%%%s%%'", f, escaped)
	}
	return strings.Join(clauses, " OR ")
}
