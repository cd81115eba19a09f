// Package events distributes query progress to streaming clients.
//
// The client's hooks publish to a Broker, which fans each event out to every
// registered Subscriber (WebSocket, SSE).
package events

import "time"

// EventType names an event.
type EventType string

// Event types.
const (
	// SourceSettled fires once per source after a query's fan-out joins.
	SourceSettled EventType = "source.settled"

	// AggregateCompleted fires when a fresh aggregate result is ready.
	AggregateCompleted EventType = "aggregate.completed"

	// ClientConnected fires when a streaming client attaches.
	ClientConnected EventType = "client.connected"
)

// Event is one published event.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// SourceSummary is the payload of SourceSettled. Records are omitted.
type SourceSummary struct {
	City       string  `json:"city"`
	Outcome    string  `json:"outcome"`
	Items      int     `json:"items"`
	Dropped    int     `json:"dropped"`
	ErrorKind  string  `json:"error_kind,omitempty"`
	Error      string  `json:"error,omitempty"`
	TrustScore float64 `json:"trust_score"`
	DurationMS int64   `json:"duration_ms"`
}

// AggregateSummary is the payload of AggregateCompleted.
type AggregateSummary struct {
	Query      string   `json:"query"`
	TotalItems int      `json:"total_items"`
	Confidence float64  `json:"confidence"`
	Responded  int      `json:"responded"`
	Attempted  int      `json:"attempted"`
	Notes      []string `json:"notes,omitempty"`
}
