package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/permitmap/internal/server/events"
	ws "github.com/agentstation/permitmap/internal/server/websocket"
	"github.com/agentstation/permitmap/pkg/logging"
)

// HandleWebSocket handles GET /api/v1/stream/ws.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	id := logging.RequestID(r.Context())
	if id == "" {
		id = r.RemoteAddr
	}
	h.wsHub.Register(ws.NewClient(id, h.wsHub, conn))
	h.broker.Publish(events.ClientConnected, map[string]any{
		"transport": "websocket",
		"at":        time.Now().UTC(),
	})
}

// HandleSSE handles GET /api/v1/stream.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}
