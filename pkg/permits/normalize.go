package permits

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentstation/utc"
	"github.com/zeebo/blake3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/permitmap/internal/utils/ptr"
	"github.com/agentstation/permitmap/pkg/constants"
)

// Defaults supplies the values a source-level context knows and a raw row
// may not carry.
type Defaults struct {
	// City is used when the row has no city column.
	City string

	// Source is the endpoint URL the row was fetched from.
	Source string

	// FetchedAt stamps SourceUpdatedAt.
	FetchedAt utc.Time
}

// derivedIDPrefix marks IDs computed from row content.
const derivedIDPrefix = "h-"

var titleCaser = cases.Title(language.English)

// Normalize maps one raw row onto a Record. Required fields fall back to
// sentinels where a sentinel exists; type has none and is left empty for
// Validate to reject. Unusable optional values are dropped with a warning.
func Normalize(raw map[string]any, fm FieldMap, d Defaults) (Record, []Warning) {
	n := normalizer{raw: raw, fm: fm}

	r := Record{
		Source:          d.Source,
		SourceUpdatedAt: d.FetchedAt,
	}

	r.ID = n.str(FieldID)
	if r.ID == "" {
		r.ID = DeriveID(raw)
	}
	r.Address = n.str(FieldAddress)
	if r.Address == "" {
		r.Address = constants.UnknownAddress
	}
	r.City = CityName(n.str(FieldCity))
	if r.City == "" {
		r.City = d.City
	}
	r.Type = n.str(FieldType)
	r.Status = n.str(FieldStatus)
	if r.Status == "" {
		r.Status = constants.UnknownStatus
	}
	r.Description = n.str(FieldDescription)

	r.SubmittedDate = n.time(FieldSubmittedDate)
	r.IssuedDate = n.time(FieldIssuedDate)
	r.Valuation = n.float(FieldValuation)
	r.Lat, r.Lng = n.coordinates()

	for i := range n.warnings {
		n.warnings[i].RecordID = r.ID
	}
	return r, n.warnings
}

// DeriveID returns a stable ID for a row that has none, from the BLAKE3
// digest of its canonical JSON encoding.
func DeriveID(raw map[string]any) string {
	data, err := json.Marshal(raw)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", raw))
	}
	sum := blake3.Sum256(data)
	return derivedIDPrefix + hex.EncodeToString(sum[:12])
}

// CityName canonicalizes a municipality name: "SAN  FRANCISCO" becomes
// "San Francisco".
func CityName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(s))
}

type normalizer struct {
	raw      map[string]any
	fm       FieldMap
	warnings []Warning
}

func (n *normalizer) warn(f Field, code, msg string) {
	n.warnings = append(n.warnings, Warning{Field: string(f), Code: code, Message: msg})
}

func (n *normalizer) str(f Field) string {
	v, key, ok := FirstPresent(n.raw, n.fm[f])
	if !ok {
		return ""
	}
	s, ok := asString(v)
	if !ok {
		n.warn(f, WarnUnparseable, fmt.Sprintf("%s: expected text, got %T", key, v))
		return ""
	}
	return s
}

func (n *normalizer) time(f Field) *utc.Time {
	v, key, ok := FirstPresent(n.raw, n.fm[f])
	if !ok {
		return nil
	}
	t, ok := asTime(v)
	if !ok {
		n.warn(f, WarnUnparseable, fmt.Sprintf("%s: unrecognized date %v", key, v))
		return nil
	}
	return ptr.To(utc.Time{Time: t})
}

func (n *normalizer) float(f Field) *float64 {
	v, key, ok := FirstPresent(n.raw, n.fm[f])
	if !ok {
		return nil
	}
	x, ok := asFloat(v)
	if !ok {
		n.warn(f, WarnUnparseable, fmt.Sprintf("%s: not a number: %v", key, v))
		return nil
	}
	return ptr.To(x)
}

// coordinates returns both coordinates or neither. Out-of-range values and
// the (0, 0) placeholder some portals emit are dropped.
func (n *normalizer) coordinates() (*float64, *float64) {
	lat, lng := n.float(FieldLat), n.float(FieldLng)
	if lat == nil || lng == nil {
		return nil, nil
	}
	if *lat == 0 && *lng == 0 {
		return nil, nil
	}
	if !validLat(*lat) || !validLng(*lng) {
		n.warn(FieldLat, WarnOutOfRange, fmt.Sprintf("coordinates (%v, %v) out of range", *lat, *lng))
		return nil, nil
	}
	return lat, lng
}

func validLat(v float64) bool { return v >= -90 && v <= 90 }
func validLng(v float64) bool { return v >= -180 && v <= 180 }
