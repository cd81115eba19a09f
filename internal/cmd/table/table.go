// Package table converts permitmap results into rows for tabular output.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/permitmap/internal/cmd/emoji"
	"github.com/agentstation/permitmap/pkg/constants"
	"github.com/agentstation/permitmap/pkg/permits"
	"github.com/agentstation/permitmap/pkg/registry"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// PermitsToTableData converts records to table format. Wide output adds
// dates, coordinates and the source URL.
func PermitsToTableData(records []permits.Record, wide bool) Data {
	headers := []string{"ID", "City", "Address", "Type", "Status"}
	if wide {
		headers = append(headers, "Submitted", "Issued", "Location", "Valuation", "Source")
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{r.ID, r.City, r.Address, r.Type, r.Status}
		if wide {
			row = append(row,
				formatDate(r.SubmittedDate),
				formatDate(r.IssuedDate),
				formatLocation(r.Lat, r.Lng),
				formatValuation(r.Valuation),
				r.Source,
			)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// SourcesToTableData summarizes per-source outcomes.
func SourcesToTableData(results []permits.SourceResult) Data {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			outcomeSymbol(r.Outcome) + " " + r.City,
			string(r.Outcome),
			strconv.Itoa(len(r.Items)),
			strconv.Itoa(r.DroppedCount),
			strconv.FormatFloat(r.TrustScore, 'f', 2, 64),
			r.Duration.Round(time.Millisecond).String(),
			orDash(r.Error),
		})
	}
	return Data{
		Headers: []string{"City", "Outcome", "Items", "Dropped", "Trust", "Duration", "Error"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft,
		},
	}
}

// RegistryToTableData lists registry entries.
func RegistryToTableData(entries []registry.Entry) Data {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.City,
			e.DisplayName(),
			string(e.Kind),
			strconv.FormatFloat(e.TrustScore, 'f', 2, 64),
			orDash(e.Endpoint),
		})
	}
	return Data{
		Headers: []string{"Key", "Name", "Kind", "Trust", "Endpoint"},
		Rows:    rows,
	}
}

// EntryToTableData renders one registry entry as key/value rows.
func EntryToTableData(e registry.Entry) Data {
	rows := [][]string{
		{"Key", e.City},
		{"Name", e.DisplayName()},
		{"Kind", string(e.Kind)},
		{"Endpoint", orDash(e.Endpoint)},
		{"Trust", strconv.FormatFloat(e.TrustScore, 'f', 2, 64)},
	}
	if e.Dataset != "" {
		rows = append(rows, []string{"Dataset", e.Dataset})
	}
	if e.Kind == registry.KindArcGIS {
		rows = append(rows, []string{"Layer", strconv.Itoa(e.Layer)})
	}
	if len(e.SearchFields) > 0 {
		rows = append(rows, []string{"Search Fields", strings.Join(e.SearchFields, ", ")})
	}
	if d := e.Timeout.Std(); d > 0 {
		rows = append(rows, []string{"Timeout", d.String()})
	}
	if e.AppTokenEnv != "" {
		rows = append(rows, []string{"Token Env", e.AppTokenEnv})
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

func outcomeSymbol(o permits.Outcome) string {
	switch o {
	case permits.OutcomeSuccess:
		return emoji.Success
	case permits.OutcomePartial:
		return emoji.Warning
	default:
		return emoji.Error
	}
}

func formatDate(t *utc.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(constants.DateFormat)
}

func formatLocation(lat, lng *float64) string {
	if lat == nil || lng == nil {
		return "-"
	}
	return fmt.Sprintf("%.5f,%.5f", *lat, *lng)
}

func formatValuation(v *float64) string {
	if v == nil {
		return "-"
	}
	return "$" + strconv.FormatFloat(*v, 'f', 0, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
