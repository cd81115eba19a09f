// Package application provides test doubles for cmd/application.
package application

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/agentstation/permitmap"
	"github.com/agentstation/permitmap/internal/metrics"
)

// Mock implements cmd/application.Application for tests. Nil function
// fields return zero values.
type Mock struct {
	ClientFunc       func() (permitmap.Client, error)
	LoggerFunc       func() *zerolog.Logger
	MetricsValue     *metrics.Metrics
	OutputFormatFunc func() string
	Out              io.Writer
	VersionFunc      func() string
}

// Client returns a client using the mock function or nil.
func (m *Mock) Client() (permitmap.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return nil, nil
}

// Metrics returns MetricsValue, creating one on first use.
func (m *Mock) Metrics() *metrics.Metrics {
	if m.MetricsValue == nil {
		m.MetricsValue = metrics.New()
	}
	return m.MetricsValue
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the mock format or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Stdout returns Out or io.Discard.
func (m *Mock) Stdout() io.Writer {
	if m.Out != nil {
		return m.Out
	}
	return io.Discard
}

// Version returns the mock version or "test".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "test"
}

// Commit returns a fixed value.
func (m *Mock) Commit() string { return "test-commit" }

// Date returns a fixed value.
func (m *Mock) Date() string { return "test-date" }

// BuiltBy returns a fixed value.
func (m *Mock) BuiltBy() string { return "test" }
