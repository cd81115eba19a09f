package permits

import (
	"strings"

	"github.com/agentstation/permitmap/pkg/errors"
)

// Validate checks the canonical invariants of r and returns every violation.
// A nil result means the record is valid.
func Validate(r Record) []*errors.ValidationError {
	var errs []*errors.ValidationError
	required := func(f Field, v string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, &errors.ValidationError{
				Field:    string(f),
				Value:    v,
				Message:  "required",
				RecordID: r.ID,
			})
		}
	}

	required(FieldID, r.ID)
	required(FieldAddress, r.Address)
	required(FieldCity, r.City)
	required(FieldType, r.Type)
	required(FieldStatus, r.Status)

	if r.Lat != nil && !validLat(*r.Lat) {
		errs = append(errs, &errors.ValidationError{Field: string(FieldLat), Value: *r.Lat, Message: "out of range", RecordID: r.ID})
	}
	if r.Lng != nil && !validLng(*r.Lng) {
		errs = append(errs, &errors.ValidationError{Field: string(FieldLng), Value: *r.Lng, Message: "out of range", RecordID: r.ID})
	}
	if (r.Lat == nil) != (r.Lng == nil) {
		errs = append(errs, &errors.ValidationError{Field: string(FieldLat), Message: "lat and lng must be set together", RecordID: r.ID})
	}
	return errs
}
