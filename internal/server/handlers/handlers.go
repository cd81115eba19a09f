// Package handlers implements the API's HTTP handlers.
package handlers

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/permitmap"
	"github.com/agentstation/permitmap/internal/server/events"
	"github.com/agentstation/permitmap/internal/server/sse"
	ws "github.com/agentstation/permitmap/internal/server/websocket"
)

// Handlers holds the dependencies shared by every handler.
type Handlers struct {
	client         permitmap.Client
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	startTime      time.Time
	version        string
}

// New creates a Handlers instance.
func New(
	client permitmap.Client,
	broker *events.Broker,
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
	startTime time.Time,
	version string,
) *Handlers {
	return &Handlers{
		client:         client,
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       upgrader,
		logger:         logger,
		startTime:      startTime,
		version:        version,
	}
}
