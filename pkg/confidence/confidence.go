// Package confidence scores an aggregate result and explains where it came
// from.
//
// The score is the record-count-weighted mean of each responding source's
// effective trust (its trust score times the smoothed share of its records
// that survived validation), multiplied by the fraction of attempted sources
// that responded. Scrape-pending placeholders are not counted as attempted.
package confidence

import (
	"fmt"
	"math"

	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/permits"
)

// NoDataNote is added when no source responded.
const NoDataNote = "no data: every source failed"

// Counts returns how many sources responded and how many were attempted.
func Counts(results []permits.SourceResult) (responded, attempted int) {
	for _, r := range results {
		if r.Outcome.Responded() {
			responded++
			attempted++
			continue
		}
		if r.ErrorKind == errors.KindScrapeRequired {
			continue
		}
		attempted++
	}
	return responded, attempted
}

// Penalty is the fraction of attempted sources that responded.
func Penalty(results []permits.SourceResult) float64 {
	responded, attempted := Counts(results)
	if attempted == 0 {
		return 0
	}
	return float64(responded) / float64(attempted)
}

// Score computes the overall confidence in [0,1]. It is 0 when no source
// responded.
func Score(results []permits.SourceResult) float64 {
	var (
		weighted, weight float64
		plain            float64
		n                int
	)
	for _, r := range results {
		if !r.Outcome.Responded() {
			continue
		}
		eff := clamp(r.TrustScore) * validShare(r)
		w := float64(len(r.Items))
		weighted += eff * w
		weight += w
		plain += eff
		n++
	}
	if n == 0 {
		return 0
	}

	base := plain / float64(n)
	if weight > 0 {
		base = weighted / weight
	}
	return round(clamp(base * Penalty(results)))
}

// Notes explains degraded results in plain language.
func Notes(results []permits.SourceResult) []string {
	responded, attempted := Counts(results)
	var notes []string
	if responded == 0 {
		notes = append(notes, NoDataNote)
	}
	if attempted > 0 && responded < attempted {
		notes = append(notes, fmt.Sprintf("%d of %d sources responded", responded, attempted))
	}
	for _, r := range results {
		switch {
		case r.ErrorKind == errors.KindScrapeRequired:
			notes = append(notes, fmt.Sprintf("%s has no structured API and was not queried", r.City))
		case r.Outcome == permits.OutcomeFailed:
			notes = append(notes, fmt.Sprintf("%s failed (%s)", r.City, r.ErrorKind))
		case r.Outcome == permits.OutcomePartial:
			notes = append(notes, fmt.Sprintf("%s: %d of %d records dropped by validation", r.City, r.DroppedCount, r.RawCount-r.DuplicateCount))
		}
	}
	return notes
}

// Provenance summarizes every source consulted.
func Provenance(results []permits.SourceResult) []permits.SourceProvenance {
	out := make([]permits.SourceProvenance, len(results))
	for i, r := range results {
		out[i] = permits.SourceProvenance{
			City:       r.City,
			Source:     r.RawSource,
			FetchedAt:  r.FetchedAt,
			Outcome:    r.Outcome,
			Items:      len(r.Items),
			TrustScore: r.TrustScore,
			Error:      r.Error,
		}
	}
	return out
}

// Answer wraps an aggregate result in the single-answer envelope.
func Answer(agg permits.AggregateResult) permits.Answer {
	notes := agg.Notes
	if notes == nil {
		notes = []string{}
	}
	return permits.Answer{
		OK:         agg.Responded > 0,
		Payload:    agg,
		Confidence: agg.Confidence,
		Provenance: Provenance(agg.Cities),
		Notes:      notes,
	}
}

// validShare is the share of distinct rows that survived validation, with
// add-one smoothing so a source that responded never contributes zero.
func validShare(r permits.SourceResult) float64 {
	distinct := r.RawCount - r.DuplicateCount
	if distinct < 0 {
		distinct = 0
	}
	valid := min(len(r.Items), distinct)
	return float64(valid+1) / float64(distinct+1)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// round trims float noise so repeated queries compare equal.
func round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
