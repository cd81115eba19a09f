package permits

import (
	"fmt"
	"sort"
	"strings"
)

// Process normalizes, validates and deduplicates raw rows from one source.
// Invalid rows, and nil rows standing in for elements that were not objects,
// are dropped with an invalid_record warning, never failing the batch.
// Surviving records are ordered by ID.
func Process(rows []map[string]any, fm FieldMap, d Defaults) Batch {
	b := Batch{RawCount: len(rows)}
	valid := make([]indexed, 0, len(rows))

	for i, raw := range rows {
		if raw == nil {
			b.Warnings = append(b.Warnings, Warning{
				Index:   i,
				Code:    WarnInvalidRecord,
				Message: "not an object",
			})
			b.DroppedCount++
			continue
		}

		rec, warnings := Normalize(raw, fm, d)
		for _, w := range warnings {
			w.Index = i
			b.Warnings = append(b.Warnings, w)
		}

		if errs := Validate(rec); len(errs) > 0 {
			msgs := make([]string, len(errs))
			fields := make([]string, len(errs))
			for j, e := range errs {
				msgs[j] = e.Error()
				fields[j] = e.Field
			}
			b.Warnings = append(b.Warnings, Warning{
				RecordID: rec.ID,
				Index:    i,
				Field:    strings.Join(fields, ","),
				Code:     WarnInvalidRecord,
				Message:  strings.Join(msgs, "; "),
			})
			b.DroppedCount++
			continue
		}
		valid = append(valid, indexed{rec: rec, row: i})
	}

	b.Items, b.DuplicateCount = dedupe(valid, &b.Warnings)
	return b
}

type indexed struct {
	rec Record
	row int
}

// dedupe keeps the first occurrence of each ID and sorts by ID.
func dedupe(records []indexed, warnings *[]Warning) ([]Record, int) {
	seen := make(map[string]int, len(records))
	out := make([]Record, 0, len(records))
	dups := 0
	for _, r := range records {
		if first, ok := seen[r.rec.ID]; ok {
			dups++
			*warnings = append(*warnings, Warning{
				RecordID: r.rec.ID,
				Index:    r.row,
				Field:    string(FieldID),
				Code:     WarnDuplicateID,
				Message:  fmt.Sprintf("duplicate of row %d", first),
			})
			continue
		}
		seen[r.rec.ID] = r.row
		out = append(out, r.rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, dups
}
