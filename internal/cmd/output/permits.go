package output

import (
	"fmt"
	"io"

	"github.com/agentstation/permitmap/internal/cmd/table"
	"github.com/agentstation/permitmap/pkg/permits"
	"github.com/agentstation/permitmap/pkg/registry"
)

func isTable(f Format) bool {
	return f == FormatTable || f == FormatWide || f == ""
}

// Aggregate writes an aggregate result. Table output prints the merged
// records, then a per-source summary and the notes.
func Aggregate(w io.Writer, format Format, res permits.AggregateResult) error {
	if !isTable(format) {
		return NewFormatter(format).Format(w, res)
	}

	f := &TableFormatter{}
	if err := f.Format(w, table.PermitsToTableData(res.AggregatedItems, format == FormatWide)); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n", Heading("sources"))
	if err := f.Format(w, table.SourcesToTableData(res.Cities)); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d records from %d of %d sources, confidence %.2f\n",
		res.TotalItems, res.Responded, res.Attempted, res.Confidence)
	writeNotes(w, res.Notes)
	return nil
}

// Answer writes the single-answer envelope. Table output prints the
// confidence, provenance and notes without the records.
func Answer(w io.Writer, format Format, ans permits.Answer) error {
	if !isTable(format) {
		return NewFormatter(format).Format(w, ans)
	}

	status := "ok"
	if !ans.OK {
		status = "no data"
	}
	fmt.Fprintf(w, "%s: %d records, confidence %.2f\n\n", status, ans.Payload.TotalItems, ans.Confidence)
	if err := (&TableFormatter{}).Format(w, table.SourcesToTableData(ans.Payload.Cities)); err != nil {
		return err
	}
	writeNotes(w, ans.Notes)
	return nil
}

// Sources writes registry entries.
func Sources(w io.Writer, format Format, entries []registry.Entry) error {
	if !isTable(format) {
		return NewFormatter(format).Format(w, entries)
	}
	return (&TableFormatter{}).Format(w, table.RegistryToTableData(entries))
}

// Source writes one registry entry.
func Source(w io.Writer, format Format, entry registry.Entry) error {
	if !isTable(format) {
		return NewFormatter(format).Format(w, entry)
	}
	return (&TableFormatter{}).Format(w, table.EntryToTableData(entry))
}

func writeNotes(w io.Writer, notes []string) {
	if len(notes) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", Heading("notes"))
	for _, n := range notes {
		fmt.Fprintf(w, "  - %s\n", n)
	}
}
