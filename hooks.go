package permitmap

import (
	"sync"

	"github.com/agentstation/permitmap/pkg/permits"
)

// Hook function types for query events.
type (
	// SourceResultHook is called once per source after every source of a
	// query has settled.
	SourceResultHook func(result permits.SourceResult)

	// AggregateHook is called with every freshly computed aggregate result.
	// Cached results do not trigger it.
	AggregateHook func(result permits.AggregateResult)
)

// Hooks provides event callback registration.
type Hooks interface {
	OnSourceResult(SourceResultHook)
	OnAggregate(AggregateHook)
}

// hooks manages event callbacks.
type hooks struct {
	mu          sync.RWMutex
	onSource    []SourceResultHook
	onAggregate []AggregateHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnSourceResult registers a callback for settled sources.
func (h *hooks) OnSourceResult(fn SourceResultHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSource = append(h.onSource, fn)
}

// OnAggregate registers a callback for aggregate results.
func (h *hooks) OnAggregate(fn AggregateHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAggregate = append(h.onAggregate, fn)
}

func (h *hooks) triggerSource(r permits.SourceResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onSource {
		fn(r)
	}
}

func (h *hooks) triggerAggregate(r permits.AggregateResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onAggregate {
		fn(r)
	}
}
