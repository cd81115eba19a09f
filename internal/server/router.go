package server

import (
	"net/http"
	"strings"

	"github.com/agentstation/permitmap/internal/server/handlers"
	"github.com/agentstation/permitmap/internal/server/middleware"
	"github.com/agentstation/permitmap/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()
	h := handlers.New(
		s.client,
		s.broker,
		s.wsHub,
		s.sseBroadcaster,
		s.upgrader,
		s.logger,
		s.startTime,
		s.config.Version,
	)
	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// get restricts a handler to GET and HEAD.
func get(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			response.MethodNotAllowed(w, r.Method)
			return
		}
		fn(w, r)
	}
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/health", get(h.HandleHealth))
	mux.HandleFunc(prefix+"/health", get(h.HandleHealth))

	mux.HandleFunc(prefix+"/permits", get(h.HandlePermits))
	mux.HandleFunc(prefix+"/answer", get(h.HandleAnswer))
	mux.HandleFunc(prefix+"/stats", get(h.HandleStats))

	mux.HandleFunc(prefix+"/sources", get(h.HandleListSources))
	mux.HandleFunc(prefix+"/sources/", get(func(w http.ResponseWriter, r *http.Request) {
		city := extractPathParam(r.URL.Path, prefix+"/sources/")
		if city == "" {
			response.NotFound(w, "Source not found", "")
			return
		}
		h.HandleGetSource(w, r, city)
	}))

	if s.config.StreamingEnabled {
		mux.HandleFunc(prefix+"/stream", get(h.HandleSSE))
		mux.HandleFunc(prefix+"/stream/ws", h.HandleWebSocket)
	}

	if s.config.MetricsEnabled && s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
}

// applyMiddleware wraps handler with the middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	if cfg.RateLimit > 0 {
		handler = middleware.RateLimit(middleware.NewRateLimiter(s.ctx, cfg.RateLimit, s.logger))(handler)
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig()
		authConfig.Enabled = true
		if cfg.AuthHeader != "" {
			authConfig.HeaderName = cfg.AuthHeader
		}
		if cfg.APIKey != "" {
			authConfig.APIKey = cfg.APIKey
		}
		authConfig.PublicPaths = append(authConfig.PublicPaths, cfg.PathPrefix+"/health")
		handler = middleware.Auth(authConfig, s.logger)(handler)
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		handler = middleware.CORS(corsConfig)(handler)
	}

	handler = middleware.Logger(s.logger)(handler)
	return middleware.Recovery(s.logger)(handler)
}

// extractPathParam returns the first path segment after prefix.
func extractPathParam(path, prefix string) string {
	trimmed := strings.TrimPrefix(path, prefix)
	first, _, _ := strings.Cut(trimmed, "/")
	return first
}
