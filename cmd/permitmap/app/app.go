// Package app provides the application context and dependency management
// for the permitmap CLI: configuration, logging and a lazily built client.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/permitmap"
	"github.com/agentstation/permitmap/internal/metrics"
	"github.com/agentstation/permitmap/pkg/errors"
)

// App represents the permitmap application with all its dependencies.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config  *Config
	logger  *zerolog.Logger
	metrics *metrics.Metrics
	stdout  io.Writer

	// Client instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	client permitmap.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		metrics: metrics.New(),
		stdout:  os.Stdout,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapConfig("app", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// Metrics returns the collectors the client reports to.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Stdout returns where command results are written.
func (a *App) Stdout() io.Writer { return a.stdout }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// Client returns the permitmap client, creating it lazily if needed.
func (a *App) Client() (permitmap.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	c, err := permitmap.New(a.clientOptions()...)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	a.logger.Debug().Msg("Application shutdown")
	return nil
}

// clientOptions constructs client options from the app configuration.
func (a *App) clientOptions() []permitmap.Option {
	cfg := a.config
	opts := []permitmap.Option{
		permitmap.WithLogger(a.logger),
		permitmap.WithMetrics(a.metrics),
		permitmap.WithSecrets(cfg.Secret),
	}
	if cfg.RegistryFile != "" {
		opts = append(opts, permitmap.WithRegistryFile(cfg.RegistryFile))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, permitmap.WithTimeout(cfg.Timeout))
	}
	if cfg.CacheTTL > 0 {
		opts = append(opts, permitmap.WithCacheTTL(cfg.CacheTTL))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, permitmap.WithUserAgent(cfg.UserAgent))
	}
	if cfg.RetryWait > 0 {
		opts = append(opts, permitmap.WithRetryWait(cfg.RetryWait))
	}
	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a prebuilt client (useful for testing).
func WithClient(c permitmap.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}

// WithStdout redirects command output.
func WithStdout(w io.Writer) Option {
	return func(a *App) error {
		a.stdout = w
		return nil
	}
}
