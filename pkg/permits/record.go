// Package permits defines the canonical permit record, the per-source and
// aggregate result types, and the normalization and validation rules that
// turn heterogeneous municipal rows into canonical records.
package permits

import (
	"slices"
	"time"

	"github.com/agentstation/utc"
)

// Record is one building or development permit in canonical form.
// ID, Address, City, Type and Status are never empty on a record that
// passed validation.
type Record struct {
	ID              string    `json:"id" yaml:"id"`
	Address         string    `json:"address" yaml:"address"`
	City            string    `json:"city" yaml:"city"`
	Type            string    `json:"type" yaml:"type"`
	Status          string    `json:"status" yaml:"status"`
	SubmittedDate   *utc.Time `json:"submitted_date,omitempty" yaml:"submitted_date,omitempty"`
	IssuedDate      *utc.Time `json:"issued_date,omitempty" yaml:"issued_date,omitempty"`
	Lat             *float64  `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lng             *float64  `json:"lng,omitempty" yaml:"lng,omitempty"`
	Description     string    `json:"description,omitempty" yaml:"description,omitempty"`
	Valuation       *float64  `json:"valuation,omitempty" yaml:"valuation,omitempty"`
	Source          string    `json:"source" yaml:"source"`
	SourceUpdatedAt utc.Time  `json:"source_updated_at" yaml:"source_updated_at"`
}

// HasLocation reports whether both coordinates are present.
func (r Record) HasLocation() bool {
	return r.Lat != nil && r.Lng != nil
}

// Outcome is the terminal state of one connector invocation.
type Outcome string

// Outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// Responded reports whether the source returned usable data.
func (o Outcome) Responded() bool {
	return o == OutcomeSuccess || o == OutcomePartial
}

// Warning is a non-fatal problem with one raw record.
type Warning struct {
	RecordID string `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Index    int    `json:"index" yaml:"index"`
	Field    string `json:"field,omitempty" yaml:"field,omitempty"`
	Code     string `json:"code" yaml:"code"`
	Message  string `json:"message" yaml:"message"`
}

// Warning codes.
const (
	WarnInvalidRecord = "invalid_record"
	WarnDuplicateID   = "duplicate_id"
	WarnUnparseable   = "unparseable_value"
	WarnOutOfRange    = "out_of_range"
)

// SourceResult is the outcome of one connector invocation. It is built once
// per invocation and treated as read-only afterwards.
type SourceResult struct {
	City           string        `json:"city" yaml:"city"`
	Items          []Record      `json:"items" yaml:"items"`
	RawSource      string        `json:"raw_source" yaml:"raw_source"`
	Outcome        Outcome       `json:"outcome" yaml:"outcome"`
	Error          string        `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind      string        `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Warnings       []Warning     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	RawCount       int           `json:"raw_count" yaml:"raw_count"`
	DroppedCount   int           `json:"dropped_count" yaml:"dropped_count"`
	DuplicateCount int           `json:"duplicate_count" yaml:"duplicate_count"`
	TrustScore     float64       `json:"trust_score" yaml:"trust_score"`
	FetchedAt      utc.Time      `json:"fetched_at" yaml:"fetched_at"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
}

// ValidRatio is the share of distinct raw records that survived validation.
// A source that returned nothing has ratio 1.
func (r SourceResult) ValidRatio() float64 {
	distinct := r.RawCount - r.DuplicateCount
	if distinct <= 0 {
		return 1
	}
	return float64(len(r.Items)) / float64(distinct)
}

// Batch is the intermediate output of a connector's parse and validate
// stages, before it is sealed into a SourceResult.
type Batch struct {
	Items          []Record
	Warnings       []Warning
	RawCount       int
	DroppedCount   int
	DuplicateCount int
}

// SourceMeta identifies the source a result belongs to.
type SourceMeta struct {
	City       string
	RawSource  string
	TrustScore float64
	FetchedAt  utc.Time
	Duration   time.Duration
}

// NewSourceResult seals a batch. The outcome is partial when any record was
// dropped by validation and success otherwise; duplicates do not count.
func NewSourceResult(meta SourceMeta, b Batch) SourceResult {
	outcome := OutcomeSuccess
	if b.DroppedCount > 0 {
		outcome = OutcomePartial
	}
	items := b.Items
	if items == nil {
		items = []Record{}
	}
	return SourceResult{
		City:           meta.City,
		Items:          items,
		RawSource:      meta.RawSource,
		Outcome:        outcome,
		Warnings:       b.Warnings,
		RawCount:       b.RawCount,
		DroppedCount:   b.DroppedCount,
		DuplicateCount: b.DuplicateCount,
		TrustScore:     meta.TrustScore,
		FetchedAt:      meta.FetchedAt,
		Duration:       meta.Duration,
	}
}

// FailedResult builds a failed SourceResult with no items.
func FailedResult(meta SourceMeta, kind string, err error) SourceResult {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return SourceResult{
		City:       meta.City,
		Items:      []Record{},
		RawSource:  meta.RawSource,
		Outcome:    OutcomeFailed,
		Error:      msg,
		ErrorKind:  kind,
		TrustScore: meta.TrustScore,
		FetchedAt:  meta.FetchedAt,
		Duration:   meta.Duration,
	}
}

// AggregateResult is the merged answer to one query.
type AggregateResult struct {
	Query           string         `json:"query" yaml:"query"`
	TotalItems      int            `json:"total_items" yaml:"total_items"`
	Cities          []SourceResult `json:"cities" yaml:"cities"`
	AggregatedItems []Record       `json:"aggregated_items" yaml:"aggregated_items"`
	Confidence      float64        `json:"confidence" yaml:"confidence"`
	Responded       int            `json:"responded" yaml:"responded"`
	Attempted       int            `json:"attempted" yaml:"attempted"`
	Notes           []string       `json:"notes,omitempty" yaml:"notes,omitempty"`
	GeneratedAt     utc.Time       `json:"generated_at" yaml:"generated_at"`
}

// Clone returns a copy whose slices can be modified without affecting a.
// Records are copied by value; their pointer fields still alias a's.
func (a AggregateResult) Clone() AggregateResult {
	out := a
	out.AggregatedItems = slices.Clone(a.AggregatedItems)
	out.Notes = slices.Clone(a.Notes)
	if a.Cities != nil {
		out.Cities = make([]SourceResult, len(a.Cities))
		for i, r := range a.Cities {
			r.Items = slices.Clone(r.Items)
			r.Warnings = slices.Clone(r.Warnings)
			out.Cities[i] = r
		}
	}
	return out
}

// Source returns the result for city, if present.
func (a AggregateResult) Source(city string) (SourceResult, bool) {
	for _, r := range a.Cities {
		if r.City == city {
			return r, true
		}
	}
	return SourceResult{}, false
}

// SourceProvenance records where part of an answer came from.
type SourceProvenance struct {
	City       string   `json:"city" yaml:"city"`
	Source     string   `json:"source" yaml:"source"`
	FetchedAt  utc.Time `json:"fetched_at" yaml:"fetched_at"`
	Outcome    Outcome  `json:"outcome" yaml:"outcome"`
	Items      int      `json:"items" yaml:"items"`
	TrustScore float64  `json:"trust_score" yaml:"trust_score"`
	Error      string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Answer is the single-answer variant of an aggregate result.
type Answer struct {
	OK         bool               `json:"ok" yaml:"ok"`
	Payload    AggregateResult    `json:"payload" yaml:"payload"`
	Confidence float64            `json:"confidence" yaml:"confidence"`
	Provenance []SourceProvenance `json:"provenance" yaml:"provenance"`
	Notes      []string           `json:"notes" yaml:"notes"`
}
