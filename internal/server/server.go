// Package server exposes a permitmap client over HTTP.
//
// Routes live under a configurable prefix (default /api/v1):
//
//	GET /health                  liveness
//	GET {prefix}/permits?q=&city= aggregate result
//	GET {prefix}/answer?q=&city=  single-answer envelope
//	GET {prefix}/sources[/{city}] registry entries
//	GET {prefix}/stats           runtime statistics
//	GET {prefix}/stream          SSE feed of per-source events
//	GET {prefix}/stream/ws       WebSocket feed of the same events
//	GET /metrics                 Prometheus metrics
//
// Usage:
//
//	srv, err := server.New(client, m, server.DefaultConfig(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv.Start()
//	defer srv.Shutdown(ctx)
//	http.ListenAndServe(":8080", srv.Handler())
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/permitmap"
	"github.com/agentstation/permitmap/internal/metrics"
	"github.com/agentstation/permitmap/internal/server/events"
	"github.com/agentstation/permitmap/internal/server/events/adapters"
	"github.com/agentstation/permitmap/internal/server/sse"
	ws "github.com/agentstation/permitmap/internal/server/websocket"
	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/permits"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client         permitmap.Client
	metrics        *metrics.Metrics
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	startTime      time.Time
}

// New creates a server. m may be nil when metrics are disabled.
func New(client permitmap.Client, m *metrics.Metrics, cfg Config, logger *zerolog.Logger) (*Server, error) {
	if client == nil {
		return nil, errors.NewConfigError("server", "client is required", nil)
	}
	if cfg.MetricsEnabled && m == nil {
		return nil, errors.NewConfigError("server", "metrics enabled without a collector", nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		client:         client,
		metrics:        m,
		broker:         events.NewBroker(logger),
		wsHub:          ws.NewHub(logger),
		sseBroadcaster: sse.NewBroadcaster(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}

	if cfg.StreamingEnabled {
		s.broker.Subscribe(adapters.NewWebSocketSubscriber(s.wsHub))
		s.broker.Subscribe(adapters.NewSSESubscriber(s.sseBroadcaster))
		s.connectHooks()
	}

	logger.Debug().Msg("Server instance created")
	return s, nil
}

// connectHooks publishes client events to the broker.
func (s *Server) connectHooks() {
	s.client.OnSourceResult(func(r permits.SourceResult) {
		s.broker.Publish(events.SourceSettled, events.SourceSummary{
			City:       r.City,
			Outcome:    string(r.Outcome),
			Items:      len(r.Items),
			Dropped:    r.DroppedCount,
			ErrorKind:  r.ErrorKind,
			Error:      r.Error,
			TrustScore: r.TrustScore,
			DurationMS: r.Duration.Milliseconds(),
		})
	})
	s.client.OnAggregate(func(a permits.AggregateResult) {
		s.broker.Publish(events.AggregateCompleted, events.AggregateSummary{
			Query:      a.Query,
			TotalItems: a.TotalItems,
			Confidence: a.Confidence,
			Responded:  a.Responded,
			Attempted:  a.Attempted,
			Notes:      a.Notes,
		})
	})
}

// Start starts the broker and the streaming transports.
func (s *Server) Start() {
	go s.broker.Run(s.ctx)
	go s.wsHub.Run(s.ctx)
	go s.sseBroadcaster.Run(s.ctx)
	s.logger.Debug().Msg("Background services started")
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// HTTPServer returns an http.Server configured from Config.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// Shutdown stops background services.
func (s *Server) Shutdown(_ context.Context) error {
	s.cancel()
	s.logger.Info().Msg("Server background services stopped")
	return nil
}

// Broker returns the event broker.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns the server start time.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
