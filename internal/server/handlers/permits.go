package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/agentstation/permitmap/internal/server/response"
	"github.com/agentstation/permitmap/pkg/constants"
	"github.com/agentstation/permitmap/pkg/permits"
)

// queryParams holds the parsed permit query parameters.
type queryParams struct {
	query  string
	cities []string
}

// parseQuery reads ?q= and ?city=a,b (repeatable).
func parseQuery(r *http.Request) (queryParams, string) {
	v := r.URL.Query()
	q := strings.TrimSpace(v.Get("q"))
	if utf8.RuneCountInString(q) > constants.MaxQueryLength {
		return queryParams{}, fmt.Sprintf("q must be at most %d characters", constants.MaxQueryLength)
	}

	var cities []string
	for _, raw := range v["city"] {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cities = append(cities, c)
			}
		}
	}
	return queryParams{query: q, cities: cities}, ""
}

// HandlePermits handles GET /api/v1/permits.
// Upstream failures are reported inside the payload, so this always
// answers 200 for a well-formed request.
func (h *Handlers) HandlePermits(w http.ResponseWriter, r *http.Request) {
	p, problem := parseQuery(r)
	if problem != "" {
		response.BadRequest(w, "Invalid query", problem)
		return
	}
	res := h.client.Aggregate(r.Context(), p.query, p.cities...)
	if r.URL.Query().Get("items") == "false" {
		res = withoutItems(res)
	}
	response.OK(w, res)
}

// HandleAnswer handles GET /api/v1/answer.
func (h *Handlers) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	p, problem := parseQuery(r)
	if problem != "" {
		response.BadRequest(w, "Invalid query", problem)
		return
	}
	response.OK(w, h.client.Answer(r.Context(), p.query, p.cities...))
}

// withoutItems strips records, keeping counts, provenance and notes.
func withoutItems(res permits.AggregateResult) permits.AggregateResult {
	cities := make([]permits.SourceResult, len(res.Cities))
	for i, c := range res.Cities {
		c.Items = []permits.Record{}
		cities[i] = c
	}
	res.Cities = cities
	res.AggregatedItems = []permits.Record{}
	return res
}
