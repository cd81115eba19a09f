package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/permitmap/internal/server/events"
	"github.com/agentstation/permitmap/internal/server/sse"
	ws "github.com/agentstation/permitmap/internal/server/websocket"
	"github.com/agentstation/permitmap/pkg/logging"
)

var _ events.Subscriber = (*SSESubscriber)(nil)
var _ events.Subscriber = (*WebSocketSubscriber)(nil)

func TestSSESubscriber(t *testing.T) {
	sub := NewSSESubscriber(sse.NewBroadcaster(logging.NewNopLogger()))
	assert.NoError(t, sub.Send(events.Event{Type: events.SourceSettled, Timestamp: time.Now()}))
	assert.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())
}

func TestWebSocketSubscriberDelivers(t *testing.T) {
	hub := ws.NewHub(logging.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err == nil {
			hub.Register(ws.NewClient("test", hub, conn))
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	sub := NewWebSocketSubscriber(hub)
	require.NoError(t, sub.Send(events.Event{
		Type:      events.AggregateCompleted,
		Timestamp: time.Now(),
		Data:      events.AggregateSummary{Query: "roof", Confidence: 0.5},
	}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, string(events.AggregateCompleted), msg.Type)
	assert.Equal(t, "roof", msg.Data.(map[string]any)["query"])
}
