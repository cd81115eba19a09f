package permits

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Field names a canonical record field.
type Field string

// Canonical fields.
const (
	FieldID            Field = "id"
	FieldAddress       Field = "address"
	FieldCity          Field = "city"
	FieldType          Field = "type"
	FieldStatus        Field = "status"
	FieldSubmittedDate Field = "submitted_date"
	FieldIssuedDate    Field = "issued_date"
	FieldLat           Field = "lat"
	FieldLng           Field = "lng"
	FieldDescription   Field = "description"
	FieldValuation     Field = "valuation"
)

// AllFields lists every canonical field in record order.
var AllFields = []Field{
	FieldID, FieldAddress, FieldCity, FieldType, FieldStatus,
	FieldSubmittedDate, FieldIssuedDate, FieldLat, FieldLng,
	FieldDescription, FieldValuation,
}

// ParseField validates a field name from configuration.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(AllFields, f) {
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// FieldMap maps each canonical field to an ordered list of raw field names.
// The first candidate present in a raw record wins. Candidates may be dotted
// paths into nested objects or arrays, e.g. "location.latitude" or
// "location.coordinates.1".
type FieldMap map[Field][]string

// DefaultFieldMap returns the built-in candidate chains. They cover the
// naming conventions of Socrata, ArcGIS FeatureServer and OpenDataSoft
// permit datasets. Matching is case-insensitive, so only one casing of each
// name is listed.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		FieldID: {
			"permit_number", "permitnum", "permit_num", "permitno", "permit_no",
			"permit_id", "application_number", "application_id", "record_id",
			"case_number", "id", "objectid",
		},
		FieldAddress: {
			"address", "original_address1", "street_address", "site_address",
			"full_address", "fulladdress", "permit_address", "location_address",
			"permit_location",
		},
		FieldCity: {
			"city", "original_city", "jurisdiction", "municipality",
		},
		FieldType: {
			"type", "permit_type", "permittype", "permit_type_desc",
			"permit_type_definition", "permit_class", "work_class", "category",
		},
		FieldStatus: {
			"status", "status_current", "current_status", "permit_status",
			"statuscurrent", "application_status",
		},
		FieldSubmittedDate: {
			"submitted_date", "applieddate", "applied_date", "application_date",
			"application_start_date", "filed_date", "file_date", "created_date",
		},
		FieldIssuedDate: {
			"issued_date", "issue_date", "issueddate", "date_issued", "permit_issued_date",
		},
		FieldLat: {
			"lat", "latitude", "location.latitude", "location.lat",
			"location.coordinates.1", "geometry.y", "y",
		},
		FieldLng: {
			"lng", "lon", "longitude", "location.longitude", "location.lon",
			"location.coordinates.0", "geometry.x", "x",
		},
		FieldDescription: {
			"description", "work_description", "permit_description", "work_desc",
			"description_of_work",
		},
		FieldValuation: {
			"valuation", "total_valuation", "estimated_cost", "reported_cost",
			"est_project_cost", "total_job_valuation", "value",
		},
	}
}

// Merge returns a new map where the candidates in override are tried before
// those of m. Duplicate names keep their first position.
func (m FieldMap) Merge(override FieldMap) FieldMap {
	out := make(FieldMap, len(m))
	for _, f := range AllFields {
		var chain []string
		seen := make(map[string]bool)
		for _, name := range append(slices.Clone(override[f]), m[f]...) {
			key := strings.ToLower(name)
			if name == "" || seen[key] {
				continue
			}
			seen[key] = true
			chain = append(chain, name)
		}
		if len(chain) > 0 {
			out[f] = chain
		}
	}
	return out
}

// FirstPresent returns the value of the first candidate present in raw.
// Missing keys, nulls and blank strings count as absent.
func FirstPresent(raw map[string]any, candidates []string) (value any, key string, ok bool) {
	for _, name := range candidates {
		v, found := lookup(raw, name)
		if !found || isBlank(v) {
			continue
		}
		return v, name, true
	}
	return nil, "", false
}

// lookup resolves a dotted path, matching object keys case-insensitively.
func lookup(raw map[string]any, path string) (any, bool) {
	var cur any = raw
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := lookupKey(node, seg)
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func lookupKey(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}
