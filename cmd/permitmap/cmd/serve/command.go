// Package serve implements the serve command, which exposes permit queries
// over HTTP with SSE and WebSocket event streams.
package serve

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/permitmap/cmd/application"
	"github.com/agentstation/permitmap/internal/cmd/emoji"
	"github.com/agentstation/permitmap/internal/server"
	"github.com/agentstation/permitmap/pkg/constants"
	"github.com/agentstation/permitmap/pkg/errors"
)

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the REST API server with WebSocket and SSE support",
		Long: `Start an HTTP API over the permit registry.

Endpoints:
  GET /health                      liveness
  GET /api/v1/permits?q=&city=     merged permits with per-source outcomes
  GET /api/v1/answer?q=&city=      single-answer envelope
  GET /api/v1/sources[/{city}]     registry entries
  GET /api/v1/stats                runtime statistics
  GET /api/v1/stream               Server-Sent Events per settled source
  GET /api/v1/stream/ws            the same events over WebSocket
  GET /metrics                     Prometheus metrics`,
		Example: `  # Start on default port 8080
  permitmap serve

  # Custom port with authentication (key from PERMITMAP_API_KEY)
  permitmap serve --port 3000 --auth

  # Allow specific origins
  permitmap serve --cors-origins "https://example.com"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := parseConfig(cmd, app.Version())
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), app, cfg)
		},
	}

	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")

	cmd.Flags().Bool("cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (comma-separated)")

	cmd.Flags().Bool("auth", false, "Enable API key authentication")
	cmd.Flags().String("auth-header", defaults.AuthHeader, "Authentication header name")

	cmd.Flags().Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")

	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	cmd.Flags().Bool("metrics", defaults.MetricsEnabled, "Enable /metrics endpoint")
	cmd.Flags().Bool("streaming", defaults.StreamingEnabled, "Enable SSE and WebSocket event streams")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")

	return cmd
}

func runServer(ctx context.Context, app application.Application, cfg server.Config) error {
	logger := app.Logger()

	client, err := app.Client()
	if err != nil {
		return err
	}

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Int("sources", client.Registry().Len()).
		Msg("Starting API server")

	srv, err := server.New(client, app.Metrics(), cfg, logger)
	if err != nil {
		return err
	}
	srv.Start()

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	return startWithGracefulShutdown(ctx, srv.HTTPServer(addr), srv, logger, app.Stdout())
}

// parseConfig reads flags into a server.Config. HTTP_HOST and HTTP_PORT
// override the flags for container deployments.
func parseConfig(cmd *cobra.Command, version string) (server.Config, error) {
	flags := cmd.Flags()
	cfg := server.DefaultConfig()
	cfg.Version = version

	var err error
	get := func(fn func() error) {
		if err == nil {
			err = fn()
		}
	}
	get(func() (e error) { cfg.Port, e = flags.GetInt("port"); return })
	get(func() (e error) { cfg.Host, e = flags.GetString("host"); return })
	get(func() (e error) { cfg.CORSEnabled, e = flags.GetBool("cors"); return })
	get(func() (e error) { cfg.CORSOrigins, e = flags.GetStringSlice("cors-origins"); return })
	get(func() (e error) { cfg.AuthEnabled, e = flags.GetBool("auth"); return })
	get(func() (e error) { cfg.AuthHeader, e = flags.GetString("auth-header"); return })
	get(func() (e error) { cfg.RateLimit, e = flags.GetInt("rate-limit"); return })
	get(func() (e error) { cfg.ReadTimeout, e = flags.GetDuration("read-timeout"); return })
	get(func() (e error) { cfg.WriteTimeout, e = flags.GetDuration("write-timeout"); return })
	get(func() (e error) { cfg.IdleTimeout, e = flags.GetDuration("idle-timeout"); return })
	get(func() (e error) { cfg.MetricsEnabled, e = flags.GetBool("metrics"); return })
	get(func() (e error) { cfg.StreamingEnabled, e = flags.GetBool("streaming"); return })
	get(func() (e error) { cfg.PathPrefix, e = flags.GetString("prefix"); return })
	if err != nil {
		return server.Config{}, err
	}

	// CORS origins imply CORS.
	if len(cfg.CORSOrigins) > 0 {
		cfg.CORSEnabled = true
	}

	if envPort := os.Getenv("HTTP_PORT"); envPort != "" {
		p, err := parsePort(envPort)
		if err != nil {
			return server.Config{}, err
		}
		cfg.Port = p
	}
	if envHost := os.Getenv("HTTP_HOST"); envHost != "" {
		cfg.Host = envHost
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return server.Config{}, errors.NewValidationError("port", cfg.Port, "must be between 1 and 65535")
	}
	return cfg, nil
}

// parsePort safely parses a port string to integer.
func parsePort(portStr string) (int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, errors.NewValidationError("HTTP_PORT", portStr, "not a number")
	}
	if port < 1 || port > 65535 {
		return 0, errors.NewValidationError("HTTP_PORT", port, "must be between 1 and 65535")
	}
	return port, nil
}

// startWithGracefulShutdown serves until ctx is canceled, then drains
// connections and stops background services.
func startWithGracefulShutdown(ctx context.Context, httpServer *http.Server, srv *server.Server, logger *zerolog.Logger, out io.Writer) error {
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		fmt.Fprintf(out, "API server listening on %s\n", httpServer.Addr)
		fmt.Fprintln(out, "   Press Ctrl+C to stop")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		_ = srv.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received via context")
		fmt.Fprintf(out, "\n%s Shutting down API server...\n", emoji.Stop)

		// The parent context is already canceled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}

		logger.Info().Msg("Server stopped gracefully")
		fmt.Fprintf(out, "%s API server stopped gracefully\n", emoji.Success)
		return nil
	}
}
