package handlers

import (
	"net/http"

	"github.com/agentstation/permitmap/internal/server/response"
	"github.com/agentstation/permitmap/pkg/errors"
)

// HandleListSources handles GET /api/v1/sources.
func (h *Handlers) HandleListSources(w http.ResponseWriter, _ *http.Request) {
	entries := h.client.Registry().Entries()
	response.OK(w, map[string]any{
		"sources": entries,
		"count":   len(entries),
	})
}

// HandleGetSource handles GET /api/v1/sources/{city}.
func (h *Handlers) HandleGetSource(w http.ResponseWriter, _ *http.Request, city string) {
	entry, ok := h.client.Registry().Get(city)
	if !ok {
		response.ErrorFromType(w, errors.NewNotFoundError("source", city))
		return
	}
	response.OK(w, entry)
}
