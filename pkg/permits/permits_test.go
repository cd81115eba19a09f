package permits_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/permitmap/pkg/constants"
	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/permits"
)

var fetchedAt = utc.Time{Time: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

func defaults() permits.Defaults {
	return permits.Defaults{City: "Austin", Source: "https://data.example.gov/resource/abcd.json", FetchedAt: fetchedAt}
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))
	return m
}

func ptr(f float64) *float64 { return &f }

func validRecord() permits.Record {
	return permits.Record{
		ID:      "BP-1",
		Address: "100 Congress Ave",
		City:    "Austin",
		Type:    "Residential",
		Status:  "Issued",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *permits.Record)
		fields []string
	}{
		{"valid", func(*permits.Record) {}, nil},
		{"sentinel address is valid", func(r *permits.Record) { r.Address = constants.UnknownAddress }, nil},
		{"empty address", func(r *permits.Record) { r.Address = "" }, []string{"address"}},
		{"blank type", func(r *permits.Record) { r.Type = "   " }, []string{"type"}},
		{"empty city and status", func(r *permits.Record) { r.City, r.Status = "", "" }, []string{"city", "status"}},
		{"empty id", func(r *permits.Record) { r.ID = "" }, []string{"id"}},
		{"lat out of range", func(r *permits.Record) { r.Lat, r.Lng = ptr(91), ptr(0) }, []string{"lat"}},
		{"lng out of range", func(r *permits.Record) { r.Lat, r.Lng = ptr(30), ptr(-200) }, []string{"lng"}},
		{"lat without lng", func(r *permits.Record) { r.Lat = ptr(30) }, []string{"lat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			errs := permits.Validate(r)

			var got []string
			for _, e := range errs {
				got = append(got, e.Field)
				assert.True(t, errors.IsValidationError(e))
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestNormalizeSocrataRow(t *testing.T) {
	raw := decode(t, `{
		"permit_number": "2024-001234 BP",
		"original_address1": "1100 E 5TH ST",
		"original_city": "AUSTIN",
		"permit_type_desc": "Building Permit",
		"status_current": "Active",
		"applieddate": "2024-01-15T00:00:00.000",
		"issue_date": "2024-02-01T10:30:00.000",
		"latitude": "30.2651",
		"longitude": "-97.7301",
		"description": "Remodel kitchen",
		"total_job_valuation": "$45,000.00"
	}`)

	rec, warnings := permits.Normalize(raw, permits.DefaultFieldMap(), defaults())
	assert.Empty(t, warnings)

	want := permits.Record{
		ID:              "2024-001234 BP",
		Address:         "1100 E 5TH ST",
		City:            "Austin",
		Type:            "Building Permit",
		Status:          "Active",
		SubmittedDate:   &utc.Time{Time: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		IssuedDate:      &utc.Time{Time: time.Date(2024, 2, 1, 10, 30, 0, 0, time.UTC)},
		Lat:             ptr(30.2651),
		Lng:             ptr(-97.7301),
		Description:     "Remodel kitchen",
		Valuation:       ptr(45000),
		Source:          defaults().Source,
		SourceUpdatedAt: fetchedAt,
	}
	if diff := cmp.Diff(want, rec, cmp.Comparer(func(a, b utc.Time) bool { return a.Time.Equal(b.Time) })); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, permits.Validate(rec))
}

func TestNormalizeArcGISRow(t *testing.T) {
	raw := decode(t, `{
		"PERMIT_NUMBER": 20240057,
		"ADDRESS": "500 Main St",
		"PERMIT_TYPE": "Electrical",
		"STATUS": "Finaled",
		"ISSUE_DATE": 1706745600000,
		"geometry": {"x": -86.7816, "y": 36.1627}
	}`)

	rec, warnings := permits.Normalize(raw, permits.DefaultFieldMap(), permits.Defaults{City: "Nashville"})
	assert.Empty(t, warnings)
	assert.Equal(t, "20240057", rec.ID)
	assert.Equal(t, "Nashville", rec.City)
	require.NotNil(t, rec.IssuedDate)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), rec.IssuedDate.Time)
	require.True(t, rec.HasLocation())
	assert.InDelta(t, 36.1627, *rec.Lat, 1e-9)
	assert.InDelta(t, -86.7816, *rec.Lng, 1e-9)
}

func TestNormalizePermitTypeOnly(t *testing.T) {
	raw := map[string]any{"id": "X1", "address": "1 Main", "status": "Open", "permit_type": "Demolition"}

	rec, _ := permits.Normalize(raw, permits.DefaultFieldMap(), defaults())
	assert.Equal(t, "Demolition", rec.Type)
	assert.Empty(t, permits.Validate(rec))
}

func TestNormalizeFallbacks(t *testing.T) {
	raw := map[string]any{"permit_type": "Pool", "address": "   ", "status": nil}

	rec, _ := permits.Normalize(raw, permits.DefaultFieldMap(), defaults())
	assert.Equal(t, constants.UnknownAddress, rec.Address)
	assert.Equal(t, constants.UnknownStatus, rec.Status)
	assert.Equal(t, "Austin", rec.City)
	assert.True(t, strings.HasPrefix(rec.ID, "h-"))

	again, _ := permits.Normalize(raw, permits.DefaultFieldMap(), defaults())
	assert.Equal(t, rec.ID, again.ID, "derived IDs are deterministic")
	assert.Empty(t, permits.Validate(rec))
}

func TestNormalizeMissingTypeIsInvalid(t *testing.T) {
	raw := map[string]any{"id": "X2", "address": "2 Main"}

	rec, _ := permits.Normalize(raw, permits.DefaultFieldMap(), defaults())
	errs := permits.Validate(rec)
	require.Len(t, errs, 1)
	assert.Equal(t, "type", errs[0].Field)
}

func TestNormalizeOptionalWarnings(t *testing.T) {
	raw := map[string]any{
		"id": "X3", "address": "3 Main", "type": "Sign", "status": "Open",
		"issue_date": "next tuesday",
		"latitude":   "95.0", "longitude": "-97.7",
		"valuation": "lots",
	}

	rec, warnings := permits.Normalize(raw, permits.DefaultFieldMap(), defaults())
	assert.Nil(t, rec.IssuedDate)
	assert.False(t, rec.HasLocation())
	assert.Nil(t, rec.Valuation)
	assert.Empty(t, permits.Validate(rec), "bad optional values never reject a record")

	codes := map[string]string{}
	for _, w := range warnings {
		codes[w.Field] = w.Code
		assert.Equal(t, "X3", w.RecordID)
	}
	assert.Equal(t, map[string]string{
		"issued_date": permits.WarnUnparseable,
		"lat":         permits.WarnOutOfRange,
		"valuation":   permits.WarnUnparseable,
	}, codes)
}

func TestNormalizeNumericDates(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  *time.Time
	}{
		{"compact date string", "20240115", nil},
		{"year only", "2024", nil},
		{"small number", 20240115, nil},
		{"epoch seconds string", "1706745600", ptrTime(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))},
		{"epoch millis", 1706745600000, ptrTime(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{"id": "D1", "address": "1 Main", "type": "Sign", "status": "Open", "issue_date": tt.value}
			rec, warnings := permits.Normalize(raw, permits.DefaultFieldMap(), defaults())
			if tt.want == nil {
				assert.Nil(t, rec.IssuedDate)
				require.Len(t, warnings, 1)
				assert.Equal(t, permits.WarnUnparseable, warnings[0].Code)
				assert.Equal(t, "issued_date", warnings[0].Field)
				return
			}
			require.NotNil(t, rec.IssuedDate)
			assert.Equal(t, *tt.want, rec.IssuedDate.Time)
			assert.Empty(t, warnings)
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestNormalizeNullIsland(t *testing.T) {
	raw := map[string]any{"id": "X4", "address": "4 Main", "type": "Sign", "latitude": 0.0, "longitude": 0.0}
	rec, warnings := permits.Normalize(raw, permits.DefaultFieldMap(), defaults())
	assert.False(t, rec.HasLocation())
	assert.Empty(t, warnings)
}

func TestFirstPresent(t *testing.T) {
	raw := map[string]any{
		"Permit_Type": "Roofing",
		"type":        "",
		"location":    map[string]any{"coordinates": []any{-122.3, 47.6}},
	}

	v, key, ok := permits.FirstPresent(raw, []string{"type", "permit_type"})
	require.True(t, ok)
	assert.Equal(t, "Roofing", v)
	assert.Equal(t, "permit_type", key)

	v, _, ok = permits.FirstPresent(raw, []string{"location.coordinates.1"})
	require.True(t, ok)
	assert.Equal(t, 47.6, v)

	_, _, ok = permits.FirstPresent(raw, []string{"location.coordinates.5", "missing"})
	assert.False(t, ok)
}

func TestFieldMapMerge(t *testing.T) {
	base := permits.FieldMap{permits.FieldType: {"type", "permit_type"}}
	merged := base.Merge(permits.FieldMap{permits.FieldType: {"WORK_TYPE", "Type"}})

	assert.Equal(t, []string{"WORK_TYPE", "Type", "permit_type"}, merged[permits.FieldType])
	assert.Equal(t, []string{"type", "permit_type"}, base[permits.FieldType], "base is not modified")
}

func TestParseField(t *testing.T) {
	f, err := permits.ParseField(" Issued_Date ")
	require.NoError(t, err)
	assert.Equal(t, permits.FieldIssuedDate, f)

	_, err = permits.ParseField("owner")
	assert.Error(t, err)
}

func TestCityName(t *testing.T) {
	assert.Equal(t, "San Francisco", permits.CityName("  SAN   FRANCISCO "))
	assert.Equal(t, "", permits.CityName(" "))
}
