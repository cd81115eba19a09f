// Package application provides the application interface for permitmap
// commands.
//
// Commands accept this interface rather than the concrete App type so they
// can be tested with application.Mock:
//
//	mock := &application.Mock{
//	    ClientFunc: func() (permitmap.Client, error) {
//	        return testClient, nil
//	    },
//	}
//	cmd := fetch.NewCommand(mock)
package application

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/agentstation/permitmap"
	"github.com/agentstation/permitmap/internal/metrics"
)

// Application provides what commands need from the CLI process.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns the shared permitmap client, creating it on first use.
	Client() (permitmap.Client, error)

	// Metrics returns the Prometheus collectors the client reports to.
	Metrics() *metrics.Metrics

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, wide).
	OutputFormat() string

	// Stdout is where command results are written.
	Stdout() io.Writer

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
