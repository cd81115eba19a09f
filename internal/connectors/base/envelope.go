package base

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/agentstation/permitmap/pkg/errors"
)

// ExtractRecords decodes a response body into raw rows. Supported shapes:
//
//	[ {...}, ... ]                                     bare array (Socrata)
//	{"records": [ {...} | {"fields": {...}} | {"record": {"fields": {...}}} ]}
//	{"results": [ {...} ]}, {"data": [ {...} ]}
//	{"features": [ {"attributes": {...}, "geometry": {...}} ]}   ArcGIS
//
// A malformed element (null, a scalar, a feature without attributes) yields a
// nil row so that Process quarantines it; only a list in which no element is
// usable fails the whole body. An ArcGIS {"error": {...}} body is reported as
// a NetworkError because the service answered 200 with a failure.
func ExtractRecords(body []byte) ([]map[string]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.NewParseError("json", "", "empty body", nil)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}

	switch v := doc.(type) {
	case []any:
		return objects(v, "array")
	case map[string]any:
		return fromEnvelope(v)
	}
	return nil, errors.NewParseError("json", "", fmt.Sprintf("unexpected top-level %T", doc), nil)
}

func fromEnvelope(m map[string]any) ([]map[string]any, error) {
	if apiErr, ok := m["error"].(map[string]any); ok {
		return nil, arcgisError(apiErr)
	}

	if features, ok := m["features"].([]any); ok {
		rows := make([]map[string]any, 0, len(features))
		for _, f := range features {
			rows = append(rows, featureRow(f))
		}
		if err := requireUsable(rows, "features"); err != nil {
			return nil, err
		}
		return rows, nil
	}

	if records, ok := m["records"].([]any); ok {
		rows, err := objects(records, "records")
		if err != nil {
			return nil, err
		}
		for i, r := range rows {
			if r != nil {
				rows[i] = unwrapRecord(r)
			}
		}
		return rows, nil
	}

	for _, key := range []string{"results", "data"} {
		if list, ok := m[key].([]any); ok {
			return objects(list, key)
		}
	}

	return nil, errors.NewParseError("json", "", "unrecognized envelope", nil)
}

// unwrapRecord flattens OpenDataSoft {"record": {"fields": {...}}} and
// {"fields": {...}} wrappers.
func unwrapRecord(r map[string]any) map[string]any {
	if inner, ok := r["record"].(map[string]any); ok {
		r = inner
	}
	if fields, ok := r["fields"].(map[string]any); ok {
		return fields
	}
	return r
}

// featureRow flattens an ArcGIS or GeoJSON feature into one row, or returns
// nil when it carries no attributes.
func featureRow(f any) map[string]any {
	feature, ok := f.(map[string]any)
	if !ok {
		return nil
	}
	attrs, _ := feature["attributes"].(map[string]any)
	if attrs == nil {
		// GeoJSON features carry "properties" instead.
		attrs, _ = feature["properties"].(map[string]any)
	}
	if attrs == nil {
		return nil
	}
	row := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		row[k] = v
	}
	if geom, ok := feature["geometry"].(map[string]any); ok {
		if _, taken := row["geometry"]; !taken {
			row["geometry"] = geom
		}
	}
	return row
}

func objects(list []any, where string) ([]map[string]any, error) {
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		obj, _ := item.(map[string]any)
		rows = append(rows, obj)
	}
	if err := requireUsable(rows, where); err != nil {
		return nil, err
	}
	return rows, nil
}

// requireUsable fails a non-empty list that holds no object at all: the body
// is not a record list, as opposed to a list with a few bad records.
func requireUsable(rows []map[string]any, where string) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r != nil {
			return nil
		}
	}
	return errors.NewParseError("json", "", fmt.Sprintf("%s holds no objects", where), nil)
}

func arcgisError(m map[string]any) error {
	code := 0
	if n, ok := m["code"].(json.Number); ok {
		if v, err := n.Int64(); err == nil {
			code = int(v)
		}
	}
	msg, _ := m["message"].(string)
	if msg == "" {
		msg = "service error"
	}
	return errors.NewNetworkError("", "", code, msg)
}
